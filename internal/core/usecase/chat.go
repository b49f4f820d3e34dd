package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/smartcare-assistant/internal/core/attribution"
	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

const defaultUserName = "User"

type ChatLimits struct {
	// HistoryMessages counts the current question, so HistoryMessages-1 stored messages are loaded.
	HistoryMessages   int
	CompletionTimeout time.Duration
}

type ChatUseCase struct {
	sources   *SourceRegistry
	assembler *attribution.Assembler
	completer ports.Completer
	filter    *attribution.Filter
	messages  ports.MessageStore
	publisher ports.TurnPublisher
	observer  ports.PipelineObserver
	limits    ChatLimits
}

func NewChatUseCase(
	sources *SourceRegistry,
	assembler *attribution.Assembler,
	completer ports.Completer,
	filter *attribution.Filter,
	messages ports.MessageStore,
	publisher ports.TurnPublisher,
	observer ports.PipelineObserver,
	limits ChatLimits,
) *ChatUseCase {
	if limits.HistoryMessages <= 0 {
		limits.HistoryMessages = 6
	}
	if limits.CompletionTimeout <= 0 {
		limits.CompletionTimeout = 60 * time.Second
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &ChatUseCase{
		sources:   sources,
		assembler: assembler,
		completer: completer,
		filter:    filter,
		messages:  messages,
		publisher: publisher,
		observer:  observer,
		limits:    limits,
	}
}

// Ask runs one turn. Nothing is stored unless the completion succeeded and sources were selected;
// then the question and the answer are written together.
func (uc *ChatUseCase) Ask(ctx context.Context, req domain.ChatRequest) (*domain.AnswerResult, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("user_id is required"))
	}
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("message is required"))
	}
	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	userName := strings.TrimSpace(req.UserName)
	if userName == "" {
		userName = defaultUserName
	}

	recent, err := uc.messages.ListRecentMessages(ctx, userID, conversationID, uc.limits.HistoryMessages-1)
	if err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}
	history := formatHistory(recent, userName, question)

	results := uc.sources.RetrieveAll(ctx, question)
	contextText, candidates := uc.assembler.Assemble(results)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	answer, err := uc.complete(ctx, contextText, question, history)
	if err != nil {
		return nil, err
	}

	decision := uc.filter.Apply(answer, candidates)
	sources := attribution.DedupeByURL(decision.Sources)
	uc.observer.ObserveAttribution(len(candidates), len(sources), decision.Suppressed)
	if decision.Suppressed {
		slog.Debug("attribution_suppressed", "user_id", userID, "conversation_id", conversationID)
	}

	now := time.Now().UTC()
	userMsg := domain.ChatMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Sender:         domain.SenderUser,
		Text:           question,
		CreatedAt:      now,
	}
	botMsg := domain.ChatMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Sender:         domain.SenderBot,
		Text:           answer,
		Sources:        sources,
		CreatedAt:      now.Add(time.Millisecond),
	}
	if err := uc.messages.AppendTurn(ctx, userMsg, botMsg); err != nil {
		return nil, fmt.Errorf("store turn: %w", err)
	}

	uc.publishTurn(ctx, domain.TurnCompleted{
		UserID:         userID,
		ConversationID: conversationID,
		MessageID:      botMsg.ID,
		Candidates:     len(candidates),
		Suppressed:     decision.Suppressed,
		Sources:        sources,
		CreatedAt:      botMsg.CreatedAt,
	})

	return &domain.AnswerResult{
		Text:           answer,
		Sources:        sources,
		ConversationID: conversationID,
		MessageID:      botMsg.ID,
	}, nil
}

func (uc *ChatUseCase) complete(ctx context.Context, contextText, question, history string) (string, error) {
	completionCtx, cancel := context.WithTimeout(ctx, uc.limits.CompletionTimeout)
	defer cancel()

	start := time.Now()
	answer, err := uc.completer.Complete(completionCtx, contextText, question, history)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("empty answer")
	}
	uc.observer.ObserveCompletion(time.Since(start), err)
	if err != nil {
		if domain.IsKind(err, domain.ErrCompletion) {
			return "", err
		}
		return "", domain.WrapError(domain.ErrCompletion, "complete", err)
	}
	return strings.TrimSpace(answer), nil
}

func (uc *ChatUseCase) publishTurn(ctx context.Context, event domain.TurnCompleted) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishTurnCompleted(ctx, event); err != nil {
		slog.Warn("turn_event_publish_failed",
			"conversation_id", event.ConversationID,
			"message_id", event.MessageID,
			"error", err,
		)
	}
}

func formatHistory(recent []domain.ChatMessage, userName, question string) string {
	var b strings.Builder
	for _, msg := range recent {
		writeHistoryLine(&b, msg.Sender, userName, msg.Text)
	}
	writeHistoryLine(&b, domain.SenderUser, userName, question)
	return b.String()
}

func writeHistoryLine(b *strings.Builder, sender domain.Sender, userName, text string) {
	name := domain.BotName
	if sender == domain.SenderUser {
		name = userName
	}
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(text)
	b.WriteString("\n")
}

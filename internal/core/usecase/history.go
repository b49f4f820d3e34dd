package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/smartcare-assistant/internal/core/attribution"
	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

type HistoryUseCase struct {
	messages ports.MessageStore
}

func NewHistoryUseCase(messages ports.MessageStore) *HistoryUseCase {
	return &HistoryUseCase{messages: messages}
}

func (uc *HistoryUseCase) UserHistory(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	userID, err := requireUser("user history", userID)
	if err != nil {
		return nil, err
	}
	messages, err := uc.messages.ListUserMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user messages: %w", err)
	}
	return dedupeMessageSources(messages), nil
}

func (uc *HistoryUseCase) ConversationMessages(ctx context.Context, userID, conversationID string) ([]domain.ChatMessage, error) {
	userID, err := requireUser("conversation messages", userID)
	if err != nil {
		return nil, err
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "conversation messages", fmt.Errorf("conversation_id is required"))
	}
	messages, err := uc.messages.ListConversationMessages(ctx, userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list conversation messages: %w", err)
	}
	return dedupeMessageSources(messages), nil
}

// MessageSources returns the stored sources of a message, or an empty list when the message is
// unknown or has none.
func (uc *HistoryUseCase) MessageSources(ctx context.Context, userID, messageID string) ([]domain.AttributedSource, error) {
	userID, err := requireUser("message sources", userID)
	if err != nil {
		return nil, err
	}
	msg, err := uc.messages.GetMessage(ctx, userID, strings.TrimSpace(messageID))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return []domain.AttributedSource{}, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return attribution.DedupeByURL(msg.Sources), nil
}

func (uc *HistoryUseCase) ClearHistory(ctx context.Context, userID string) error {
	userID, err := requireUser("clear history", userID)
	if err != nil {
		return err
	}
	if _, err := uc.messages.DeleteUserMessages(ctx, userID); err != nil {
		return fmt.Errorf("delete user messages: %w", err)
	}
	return nil
}

// NewConversation hands out a fresh conversation id. Conversations exist implicitly through their messages.
func (uc *HistoryUseCase) NewConversation(_ context.Context, userID string) (string, error) {
	if _, err := requireUser("new conversation", userID); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func requireUser(operation, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, operation, fmt.Errorf("user_id is required"))
	}
	return userID, nil
}

func dedupeMessageSources(messages []domain.ChatMessage) []domain.ChatMessage {
	for i := range messages {
		if len(messages[i].Sources) > 0 {
			messages[i].Sources = attribution.DedupeByURL(messages[i].Sources)
		}
	}
	return messages
}

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

type retrieverFake struct {
	passages []domain.Passage
	err      error
	delay    time.Duration
	panicMsg string

	// ignoreCtx makes delay a plain sleep that does not watch ctx.
	ignoreCtx bool

	mu      sync.Mutex
	queries []string
}

func (f *retrieverFake) Retrieve(ctx context.Context, query string) ([]domain.Passage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 && f.ignoreCtx {
		time.Sleep(f.delay)
	} else if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

type completerFake struct {
	answer string
	err    error

	calls       int
	contextText string
	question    string
	history     string
}

func (f *completerFake) Complete(_ context.Context, contextText, question, history string) (string, error) {
	f.calls++
	f.contextText = contextText
	f.question = question
	f.history = history
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type messageStoreFake struct {
	recent      []domain.ChatMessage
	recentLimit int
	listErr     error
	appendErr   error

	appended []domain.ChatMessage
	messages map[string]domain.ChatMessage
	all      []domain.ChatMessage
	deleted  []string
}

func (f *messageStoreFake) AppendTurn(_ context.Context, userMessage, botMessage domain.ChatMessage) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, userMessage, botMessage)
	return nil
}

func (f *messageStoreFake) ListRecentMessages(_ context.Context, _, _ string, limit int) ([]domain.ChatMessage, error) {
	f.recentLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.recent, nil
}

func (f *messageStoreFake) ListConversationMessages(_ context.Context, _, conversationID string) ([]domain.ChatMessage, error) {
	out := make([]domain.ChatMessage, 0)
	for _, msg := range f.all {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *messageStoreFake) ListUserMessages(_ context.Context, userID string) ([]domain.ChatMessage, error) {
	out := make([]domain.ChatMessage, 0)
	for _, msg := range f.all {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *messageStoreFake) GetMessage(_ context.Context, _, messageID string) (*domain.ChatMessage, error) {
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get message", context.Canceled)
	}
	return &msg, nil
}

func (f *messageStoreFake) DeleteUserMessages(_ context.Context, userID string) (int64, error) {
	f.deleted = append(f.deleted, userID)
	return int64(len(f.all)), nil
}

type publisherFake struct {
	err    error
	events []domain.TurnCompleted
}

func (f *publisherFake) PublishTurnCompleted(_ context.Context, event domain.TurnCompleted) error {
	f.events = append(f.events, event)
	return f.err
}

type observerFake struct {
	mu                sync.Mutex
	retrievalFailures map[string]int
	completionErrors  int
	attributed        int
	suppressed        bool
}

func (f *observerFake) ObserveSourceRetrieval(source string, _ int, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retrievalFailures == nil {
		f.retrievalFailures = map[string]int{}
	}
	if err != nil {
		f.retrievalFailures[source]++
	}
}

func (f *observerFake) ObserveCompletion(_ time.Duration, err error) {
	if err != nil {
		f.completionErrors++
	}
}

func (f *observerFake) ObserveAttribution(_ int, attributed int, suppressed bool) {
	f.attributed = attributed
	f.suppressed = suppressed
}

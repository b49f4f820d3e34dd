package ports

import (
	"context"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

// Retriever returns ranked passages of one knowledge source.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.Passage, error)
}

// Completer produces the answer text for an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, contextText, question, history string) (string, error)
}

// ConversationalDetector decides whether an answer is small talk that must not carry citations.
type ConversationalDetector interface {
	IsConversational(text string) bool
}

// Embedder builds query vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher runs similarity search inside one namespace.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, limit int, namespace string) ([]domain.Passage, error)
}

// EmbeddingCache stores query vectors keyed by model and text.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, v []float32, ttl time.Duration)
}

// MessageStore persists chat messages.
type MessageStore interface {
	AppendTurn(ctx context.Context, userMessage, botMessage domain.ChatMessage) error
	ListRecentMessages(ctx context.Context, userID, conversationID string, limit int) ([]domain.ChatMessage, error)
	ListConversationMessages(ctx context.Context, userID, conversationID string) ([]domain.ChatMessage, error)
	ListUserMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error)
	GetMessage(ctx context.Context, userID, messageID string) (*domain.ChatMessage, error)
	DeleteUserMessages(ctx context.Context, userID string) (int64, error)
}

// TurnPublisher announces persisted turns.
type TurnPublisher interface {
	PublishTurnCompleted(ctx context.Context, event domain.TurnCompleted) error
}

// TurnSubscriber consumes persisted turn events.
type TurnSubscriber interface {
	SubscribeTurnCompleted(ctx context.Context, handler func(context.Context, domain.TurnCompleted) error) error
}

// PipelineObserver receives per-turn pipeline measurements.
type PipelineObserver interface {
	ObserveSourceRetrieval(source string, passages int, duration time.Duration, err error)
	ObserveCompletion(duration time.Duration, err error)
	ObserveAttribution(candidates, attributed int, suppressed bool)
}

// TurnRecorder aggregates statistics about completed turns.
type TurnRecorder interface {
	RecordTurn(suppressed bool, sourceTypes []string, lag time.Duration)
}

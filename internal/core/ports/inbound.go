package ports

import (
	"context"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

// ChatService is the inbound contract for one question/answer turn.
type ChatService interface {
	Ask(ctx context.Context, req domain.ChatRequest) (*domain.AnswerResult, error)
}

// HistoryService is the inbound read/maintenance model for stored conversations.
type HistoryService interface {
	UserHistory(ctx context.Context, userID string) ([]domain.ChatMessage, error)
	ConversationMessages(ctx context.Context, userID, conversationID string) ([]domain.ChatMessage, error)
	MessageSources(ctx context.Context, userID, messageID string) ([]domain.AttributedSource, error)
	ClearHistory(ctx context.Context, userID string) error
	NewConversation(ctx context.Context, userID string) (string, error)
}

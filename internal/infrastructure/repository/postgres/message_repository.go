package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

const messageColumns = `id, user_id, conversation_id, sender, text, sources, created_at`

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// AppendTurn writes the question and the answer in one transaction.
func (r *MessageRepository) AppendTurn(ctx context.Context, userMessage, botMessage domain.ChatMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin turn tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, msg := range []domain.ChatMessage{userMessage, botMessage} {
		if err := insertMessage(ctx, tx, msg); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit turn tx: %w", err)
	}
	return nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, msg domain.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	sources, err := encodeSources(msg.Sources)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO chat_messages (id, user_id, conversation_id, sender, text, sources, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, msg.ID, msg.UserID, msg.ConversationID, string(msg.Sender), msg.Text, sources, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert %s message: %w", msg.Sender, err)
	}
	return nil
}

func (r *MessageRepository) ListRecentMessages(ctx context.Context, userID, conversationID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+messageColumns+`
FROM chat_messages
WHERE user_id = $1 AND conversation_id = $2
ORDER BY created_at DESC
LIMIT $3
`, userID, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	out, err := scanMessages(rows, "recent")
	if err != nil {
		return nil, err
	}

	// Returned in descending order from SQL; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *MessageRepository) ListConversationMessages(ctx context.Context, userID, conversationID string) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+messageColumns+`
FROM chat_messages
WHERE user_id = $1 AND conversation_id = $2
ORDER BY created_at ASC
`, userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list conversation messages: %w", err)
	}
	return scanMessages(rows, "conversation")
}

func (r *MessageRepository) ListUserMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+messageColumns+`
FROM chat_messages
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user messages: %w", err)
	}
	return scanMessages(rows, "user")
}

func (r *MessageRepository) GetMessage(ctx context.Context, userID, messageID string) (*domain.ChatMessage, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+messageColumns+`
FROM chat_messages
WHERE user_id = $1 AND id = $2
`, userID, messageID)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get message", err)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &msg, nil
}

func (r *MessageRepository) DeleteUserMessages(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user messages: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user messages rows affected: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (domain.ChatMessage, error) {
	var (
		msg     domain.ChatMessage
		sender  string
		sources []byte
	)
	if err := row.Scan(
		&msg.ID,
		&msg.UserID,
		&msg.ConversationID,
		&sender,
		&msg.Text,
		&sources,
		&msg.CreatedAt,
	); err != nil {
		return domain.ChatMessage{}, err
	}
	msg.Sender = domain.Sender(sender)
	decoded, err := decodeSources(sources)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	msg.Sources = decoded
	return msg, nil
}

func scanMessages(rows *sql.Rows, scope string) ([]domain.ChatMessage, error) {
	defer rows.Close()

	out := make([]domain.ChatMessage, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s message: %w", scope, err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s messages: %w", scope, err)
	}
	return out, nil
}

func encodeSources(sources []domain.AttributedSource) (any, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("marshal sources: %w", err)
	}
	return raw, nil
}

func decodeSources(raw []byte) ([]domain.AttributedSource, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var sources []domain.AttributedSource
	if err := json.Unmarshal(raw, &sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return sources, nil
}

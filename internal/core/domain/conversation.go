package domain

import "time"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// BotName labels assistant turns in the prompt history.
const BotName = "SmartCare"

type ChatMessage struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	ConversationID string             `json:"conversation_id"`
	Sender         Sender             `json:"sender"`
	Text           string             `json:"text"`
	Sources        []AttributedSource `json:"sources,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

type ChatRequest struct {
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// TurnCompleted is published after a turn has been persisted.
type TurnCompleted struct {
	UserID         string             `json:"user_id"`
	ConversationID string             `json:"conversation_id"`
	MessageID      string             `json:"message_id"`
	Candidates     int                `json:"candidates"`
	Suppressed     bool               `json:"suppressed"`
	Sources        []AttributedSource `json:"sources"`
	CreatedAt      time.Time          `json:"created_at"`
}

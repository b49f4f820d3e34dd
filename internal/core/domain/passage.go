package domain

// UnknownTitle is stored on candidates whose passage carried no title.
const UnknownTitle = "Unknown Topic"

const (
	MetadataSource = "source"
	MetadataTitle  = "title"
)

// Passage is one retrieved chunk of a knowledge source.
type Passage struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score,omitempty"`
}

func (p Passage) SourceURL() string {
	return p.Metadata[MetadataSource]
}

func (p Passage) Title() string {
	return p.Metadata[MetadataTitle]
}

// SourceResult is the outcome of querying one named source.
type SourceResult struct {
	Label    string
	Passages []Passage
	Err      error
}

type SourceCandidate struct {
	Type           string `json:"type"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	ContentExcerpt string `json:"content"`
}

type AttributedSource struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type AnswerResult struct {
	Text           string             `json:"response"`
	Sources        []AttributedSource `json:"sources"`
	ConversationID string             `json:"conversation_id"`
	MessageID      string             `json:"message_id"`
}

// Package attribution merges retrieved passages into model context and decides which
// of them are cited next to the model's answer.
package attribution

// DisplayKind selects how a matched source URL is rendered.
type DisplayKind string

const (
	// DisplayTitle renders "<Label> - <title>" and falls back to the bare label.
	DisplayTitle DisplayKind = "title"
	// DisplayPathSegment renders "<Label> - <Slug>" from the path segment after PathMarker.
	DisplayPathSegment DisplayKind = "path_segment"
	// DisplayLabel always renders the bare label.
	DisplayLabel DisplayKind = "label"
)

// FallbackSourceName is used when a URL cannot be turned into a readable label.
const FallbackSourceName = "Medical Source"

type DisplayRule struct {
	Label      string
	Match      []string
	Kind       DisplayKind
	PathMarker string
}

// Config is shared read-only by the assembler, the detector and the filter.
type Config struct {
	// SourcePriority lists source labels, most trusted first.
	SourcePriority []string

	TopKPerSource   int
	ExcerptChars    int
	PreviewChars    int
	MaxContextChars int
	MaxAttributed   int

	ConversationalMarkers []string
	MinMarkers            int
	ShortAnswerMarkers    int
	ShortAnswerChars      int

	DisplayRules []DisplayRule
}

var defaultConversationalMarkers = []string{
	"hi", "hello", "hey", "how can i help", "you're welcome",
	"take care", "great", "ok", "sounds good", "thank you",
	"pleasure chatting", "feel free to ask", "any new questions",
	"any concerns", "free to ask", "medical questions",
}

func DefaultConfig() Config {
	return Config{
		SourcePriority: []string{"MedlinePlus"},

		TopKPerSource:   2,
		ExcerptChars:    300,
		PreviewChars:    100,
		MaxContextChars: 4000,
		MaxAttributed:   2,

		ConversationalMarkers: append([]string(nil), defaultConversationalMarkers...),
		MinMarkers:            2,
		ShortAnswerMarkers:    1,
		ShortAnswerChars:      100,

		DisplayRules: []DisplayRule{
			{Label: "MedlinePlus", Match: []string{"medlineplus.gov"}, Kind: DisplayTitle},
		},
	}
}

// PrimaryLabel is the most trusted source label, or "" when none is configured.
func (c Config) PrimaryLabel() string {
	if len(c.SourcePriority) == 0 {
		return ""
	}
	return c.SourcePriority[0]
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.TopKPerSource <= 0 {
		out.TopKPerSource = def.TopKPerSource
	}
	if out.ExcerptChars <= 0 {
		out.ExcerptChars = def.ExcerptChars
	}
	if out.PreviewChars <= 0 {
		out.PreviewChars = def.PreviewChars
	}
	if out.MaxContextChars <= 0 {
		out.MaxContextChars = def.MaxContextChars
	}
	if out.MaxAttributed <= 0 {
		out.MaxAttributed = def.MaxAttributed
	}
	if out.ConversationalMarkers == nil {
		out.ConversationalMarkers = def.ConversationalMarkers
	}
	if out.MinMarkers <= 0 {
		out.MinMarkers = def.MinMarkers
	}
	if out.ShortAnswerMarkers <= 0 {
		out.ShortAnswerMarkers = def.ShortAnswerMarkers
	}
	if out.ShortAnswerChars <= 0 {
		out.ShortAnswerChars = def.ShortAnswerChars
	}

	// The normalized config owns its slices.
	out.SourcePriority = append([]string(nil), out.SourcePriority...)
	out.ConversationalMarkers = append([]string(nil), out.ConversationalMarkers...)
	rules := make([]DisplayRule, len(out.DisplayRules))
	for i, rule := range out.DisplayRules {
		rule.Match = append([]string(nil), rule.Match...)
		rules[i] = rule
	}
	out.DisplayRules = rules
	return out
}

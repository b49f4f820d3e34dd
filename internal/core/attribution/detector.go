package attribution

import "strings"

// PhraseDetector flags small-talk answers by counting marker phrases.
// Matching is by substring, so short markers such as "hi" also hit inside longer words.
type PhraseDetector struct {
	markers      []string
	minMarkers   int
	shortMarkers int
	shortChars   int
}

func NewPhraseDetector(cfg Config) *PhraseDetector {
	cfg = cfg.normalize()
	markers := make([]string, 0, len(cfg.ConversationalMarkers))
	for _, marker := range cfg.ConversationalMarkers {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker != "" {
			markers = append(markers, marker)
		}
	}
	return &PhraseDetector{
		markers:      markers,
		minMarkers:   cfg.MinMarkers,
		shortMarkers: cfg.ShortAnswerMarkers,
		shortChars:   cfg.ShortAnswerChars,
	}
}

func (d *PhraseDetector) MarkerCount(text string) int {
	normalized := strings.ToLower(strings.TrimSpace(text))
	count := 0
	for _, marker := range d.markers {
		if strings.Contains(normalized, marker) {
			count++
		}
	}
	return count
}

func (d *PhraseDetector) IsConversational(text string) bool {
	count := d.MarkerCount(text)
	if count >= d.minMarkers {
		return true
	}
	return count >= d.shortMarkers && runeLen(strings.TrimSpace(text)) < d.shortChars
}

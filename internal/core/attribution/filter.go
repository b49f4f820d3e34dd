package attribution

import (
	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

// Decision is the outcome of attributing one answer.
type Decision struct {
	Sources    []domain.AttributedSource
	Suppressed bool
}

// Filter selects the sources shown next to an answer.
type Filter struct {
	cfg      Config
	detector ports.ConversationalDetector
	resolver *Resolver
}

// NewFilter builds a filter. A nil detector falls back to the phrase detector built from cfg.
func NewFilter(cfg Config, detector ports.ConversationalDetector) *Filter {
	cfg = cfg.normalize()
	if detector == nil {
		detector = NewPhraseDetector(cfg)
	}
	return &Filter{
		cfg:      cfg,
		detector: detector,
		resolver: NewResolver(cfg.DisplayRules),
	}
}

func (f *Filter) Filter(answer string, candidates []domain.SourceCandidate) []domain.AttributedSource {
	return f.Apply(answer, candidates).Sources
}

// Apply keeps candidate order, moves the most trusted source type to the front, deduplicates by
// url and shows at most one source of the most trusted type.
func (f *Filter) Apply(answer string, candidates []domain.SourceCandidate) Decision {
	if f.detector.IsConversational(answer) {
		return Decision{Suppressed: true}
	}
	if len(candidates) == 0 {
		return Decision{}
	}

	primaryLabel := f.cfg.PrimaryLabel()
	prioritized := make([]domain.SourceCandidate, 0, len(candidates))
	others := make([]domain.SourceCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if primaryLabel != "" && candidate.Type == primaryLabel {
			prioritized = append(prioritized, candidate)
			continue
		}
		others = append(others, candidate)
	}
	prioritized = append(prioritized, others...)

	accepted := make([]domain.AttributedSource, 0, f.cfg.MaxAttributed)
	seen := make(map[string]struct{}, f.cfg.MaxAttributed)
	primaryTaken := false
	for _, candidate := range prioritized {
		if len(accepted) >= f.cfg.MaxAttributed {
			break
		}
		if candidate.URL == "" {
			continue
		}
		if _, dup := seen[candidate.URL]; dup {
			continue
		}
		isPrimary := primaryLabel != "" && candidate.Type == primaryLabel
		if isPrimary && primaryTaken {
			continue
		}

		seen[candidate.URL] = struct{}{}
		if isPrimary {
			primaryTaken = true
		}
		accepted = append(accepted, domain.AttributedSource{
			Type: candidate.Type,
			Name: f.resolver.Resolve(candidate.URL, candidate.Title),
			URL:  candidate.URL,
		})
	}
	return Decision{Sources: accepted}
}

// DedupeByURL drops repeated urls keeping the first occurrence. Used when stored sources are shown again.
func DedupeByURL(sources []domain.AttributedSource) []domain.AttributedSource {
	out := make([]domain.AttributedSource, 0, len(sources))
	seen := make(map[string]struct{}, len(sources))
	for _, source := range sources {
		if _, dup := seen[source.URL]; dup {
			continue
		}
		seen[source.URL] = struct{}{}
		out = append(out, source)
	}
	return out
}

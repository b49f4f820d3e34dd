package bootstrap

import (
	"github.com/kirillkom/smartcare-assistant/internal/config"
	"github.com/kirillkom/smartcare-assistant/internal/core/attribution"
)

// AttributionConfig derives the attribution settings from the source registry.
// Priority follows enabled sources only; display rules cover every known source so
// that URLs persisted while a source was enabled still render properly.
func AttributionConfig(cfg config.Config, sources []config.Source) attribution.Config {
	out := attribution.DefaultConfig()

	out.SourcePriority = out.SourcePriority[:0]
	for _, src := range config.EnabledSources(sources) {
		out.SourcePriority = append(out.SourcePriority, src.Label)
	}

	out.DisplayRules = make([]attribution.DisplayRule, 0, len(sources))
	for _, src := range sources {
		out.DisplayRules = append(out.DisplayRules, attribution.DisplayRule{
			Label:      src.Label,
			Match:      src.Match,
			Kind:       attribution.DisplayKind(src.Display),
			PathMarker: src.PathMarker,
		})
	}

	if cfg.TopKPerSource > 0 {
		out.TopKPerSource = cfg.TopKPerSource
	}
	if cfg.ExcerptChars > 0 {
		out.ExcerptChars = cfg.ExcerptChars
	}
	if cfg.PreviewChars > 0 {
		out.PreviewChars = cfg.PreviewChars
	}
	if cfg.MaxContextChars > 0 {
		out.MaxContextChars = cfg.MaxContextChars
	}
	if cfg.MaxAttributedSources > 0 {
		out.MaxAttributed = cfg.MaxAttributedSources
	}
	if cfg.ConversationalMinMarkers > 0 {
		out.MinMarkers = cfg.ConversationalMinMarkers
	}
	if cfg.ConversationalShortMinMarkers > 0 {
		out.ShortAnswerMarkers = cfg.ConversationalShortMinMarkers
	}
	if cfg.ShortAnswerChars > 0 {
		out.ShortAnswerChars = cfg.ShortAnswerChars
	}
	return out
}

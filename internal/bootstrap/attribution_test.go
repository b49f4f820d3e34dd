package bootstrap

import (
	"testing"

	"github.com/kirillkom/smartcare-assistant/internal/config"
	"github.com/kirillkom/smartcare-assistant/internal/core/attribution"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/claude"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/openaicompat"
)

func TestAttributionConfigFromDefaultSources(t *testing.T) {
	cfg := AttributionConfig(config.Config{MaxContextChars: 2000, MaxAttributedSources: 3}, config.DefaultSources())

	if len(cfg.SourcePriority) != 1 || cfg.SourcePriority[0] != "MedlinePlus" {
		t.Fatalf("unexpected priority: %v", cfg.SourcePriority)
	}
	if len(cfg.DisplayRules) != 3 {
		t.Fatalf("expected display rules for all sources, got %d", len(cfg.DisplayRules))
	}
	if cfg.DisplayRules[1].Kind != attribution.DisplayPathSegment || cfg.DisplayRules[1].PathMarker != "/diseases-conditions/" {
		t.Fatalf("unexpected mayo rule: %+v", cfg.DisplayRules[1])
	}
	if cfg.MaxContextChars != 2000 || cfg.MaxAttributed != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.TopKPerSource != 2 || cfg.ExcerptChars != 300 {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestAttributionConfigAppliesSuppressionThresholds(t *testing.T) {
	cfg := AttributionConfig(config.Config{
		ConversationalMinMarkers:      3,
		ConversationalShortMinMarkers: 2,
		ShortAnswerChars:              50,
	}, config.DefaultSources())

	if cfg.MinMarkers != 3 || cfg.ShortAnswerMarkers != 2 || cfg.ShortAnswerChars != 50 {
		t.Fatalf("thresholds not applied: %+v", cfg)
	}

	// One marker in a short answer no longer counts as small talk.
	detector := attribution.NewPhraseDetector(cfg)
	if detector.IsConversational("Ok, drink water.") {
		t.Fatalf("single marker must not suppress with short threshold 2")
	}
	if !detector.IsConversational("Ok, sounds good.") {
		t.Fatalf("two markers in a short answer must suppress")
	}
}

func TestAttributionConfigResolvesMayoWhenEnabled(t *testing.T) {
	sources := config.DefaultSources()
	sources[1].Enabled = true

	cfg := AttributionConfig(config.Config{}, sources)
	if len(cfg.SourcePriority) != 2 || cfg.SourcePriority[1] != "Mayo Clinic" {
		t.Fatalf("unexpected priority: %v", cfg.SourcePriority)
	}

	name := attribution.NewResolver(cfg.DisplayRules).Resolve("https://www.mayoclinic.org/diseases-conditions/high-blood-pressure/symptoms", "")
	if name != "Mayo Clinic - High Blood Pressure" {
		t.Fatalf("unexpected display name %q", name)
	}
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	client := ollama.New("http://localhost:11434", "llama3.1:8b", "nomic-embed-text")

	completer, err := newCompleter(config.Config{CompletionProvider: "ollama"}, client, nil)
	if err != nil {
		t.Fatalf("ollama provider: %v", err)
	}
	if _, ok := completer.(*ollama.Completer); !ok {
		t.Fatalf("expected ollama completer, got %T", completer)
	}

	completer, err = newCompleter(config.Config{
		CompletionProvider: "openai",
		OpenAIBaseURL:      openaicompat.GroqBaseURL,
		OpenAIAPIKey:       "key",
		OpenAIModel:        "llama3-8b-8192",
	}, client, nil)
	if err != nil {
		t.Fatalf("openai provider: %v", err)
	}
	if _, ok := completer.(*openaicompat.Completer); !ok {
		t.Fatalf("expected openai-compatible completer, got %T", completer)
	}

	completer, err = newCompleter(config.Config{
		CompletionProvider: "Anthropic",
		AnthropicAPIKey:    "key",
		AnthropicModel:     "claude-3-5-haiku-latest",
	}, client, nil)
	if err != nil {
		t.Fatalf("anthropic provider: %v", err)
	}
	if _, ok := completer.(*claude.Completer); !ok {
		t.Fatalf("expected anthropic completer, got %T", completer)
	}

	if _, err := newCompleter(config.Config{CompletionProvider: "bard"}, client, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if _, err := newCompleter(config.Config{CompletionProvider: "openai", OpenAIModel: "m"}, client, nil); err == nil {
		t.Fatalf("expected error for missing openai key")
	}
}

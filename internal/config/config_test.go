package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"COMPLETION_PROVIDER", "RETRIEVAL_TIMEOUT", "HISTORY_MESSAGES", "MAX_CONTEXT_CHARS", "OPENAI_MODEL", "CONVERSATIONAL_MIN_MARKERS", "CONVERSATIONAL_SHORT_MIN_MARKERS", "CONVERSATIONAL_SHORT_ANSWER_CHARS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.CompletionProvider != ProviderOllama {
		t.Fatalf("expected default provider ollama, got %q", cfg.CompletionProvider)
	}
	if cfg.RetrievalTimeout != 8*time.Second {
		t.Fatalf("expected default retrieval timeout 8s, got %s", cfg.RetrievalTimeout)
	}
	if cfg.HistoryMessages != 6 {
		t.Fatalf("expected default history 6, got %d", cfg.HistoryMessages)
	}
	if cfg.MaxContextChars != 4000 {
		t.Fatalf("expected default context budget 4000, got %d", cfg.MaxContextChars)
	}
	if cfg.OpenAIModel != "llama3-8b-8192" {
		t.Fatalf("expected default model llama3-8b-8192, got %q", cfg.OpenAIModel)
	}
	if cfg.ConversationalMinMarkers != 2 || cfg.ConversationalShortMinMarkers != 1 || cfg.ShortAnswerChars != 100 {
		t.Fatalf("unexpected suppression defaults: %d/%d/%d", cfg.ConversationalMinMarkers, cfg.ConversationalShortMinMarkers, cfg.ShortAnswerChars)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_TIMEOUT", "2s")
	t.Setenv("COMPLETION_TIMEOUT", "not-a-duration")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("MAX_ATTRIBUTED_SOURCES", "3")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk-123")
	t.Setenv("CONVERSATIONAL_SHORT_MIN_MARKERS", "2")

	cfg := Load()
	if cfg.RetrievalTimeout != 2*time.Second {
		t.Fatalf("expected 2s, got %s", cfg.RetrievalTimeout)
	}
	if cfg.CompletionTimeout != 60*time.Second {
		t.Fatalf("invalid duration must fall back, got %s", cfg.CompletionTimeout)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.MaxAttributedSources != 3 {
		t.Fatalf("expected 3, got %d", cfg.MaxAttributedSources)
	}
	if cfg.OpenAIAPIKey != "gsk-123" {
		t.Fatalf("expected GROQ_API_KEY fallback, got %q", cfg.OpenAIAPIKey)
	}
	if cfg.ConversationalShortMinMarkers != 2 {
		t.Fatalf("expected short answer marker threshold 2, got %d", cfg.ConversationalShortMinMarkers)
	}
}

func TestDefaultSourcesMatchDeployment(t *testing.T) {
	enabled := EnabledSources(DefaultSources())
	if len(enabled) != 1 || enabled[0].Label != "MedlinePlus" || enabled[0].Namespace != "medlineplus" {
		t.Fatalf("unexpected enabled sources: %+v", enabled)
	}
}

func TestLoadSourcesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `
sources:
  - label: MedlinePlus
    namespace: medlineplus
    match: [medlineplus.gov]
    display: title
    enabled: true
  - label: Mayo Clinic
    namespace: mayo_clinic
    match: [mayoclinic.org]
    display: path_segment
    path_marker: /diseases-conditions/
    enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources() error = %v", err)
	}
	if len(sources) != 2 || sources[1].PathMarker != "/diseases-conditions/" || !sources[1].Enabled {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestParseSourcesValidation(t *testing.T) {
	cases := map[string]string{
		"empty":          `sources: []`,
		"no label":       "sources:\n  - namespace: x\n",
		"duplicate":      "sources:\n  - label: A\n  - label: A\n",
		"unknown kind":   "sources:\n  - label: A\n    display: fancy\n",
		"missing marker": "sources:\n  - label: A\n    display: path_segment\n",
		"no namespace":   "sources:\n  - label: A\n    enabled: true\n",
	}
	for name, raw := range cases {
		if _, err := ParseSources([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadSourcesEmptyPathUsesDefaults(t *testing.T) {
	sources, err := LoadSources("")
	if err != nil {
		t.Fatalf("LoadSources() error = %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 default sources, got %d", len(sources))
	}
}

package attribution

import (
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

func passage(text, url, title string) domain.Passage {
	md := map[string]string{}
	if url != "" {
		md[domain.MetadataSource] = url
	}
	if title != "" {
		md[domain.MetadataTitle] = title
	}
	return domain.Passage{Text: text, Metadata: md}
}

func TestAssembleTakesTopKAndTruncates(t *testing.T) {
	a := NewAssembler(DefaultConfig())
	long := strings.Repeat("a", 350)
	contextText, candidates := a.Assemble([]domain.SourceResult{{
		Label: "MedlinePlus",
		Passages: []domain.Passage{
			passage(long, "https://medlineplus.gov/a.html", "A"),
			passage("second passage", "https://medlineplus.gov/b.html", ""),
			passage("third passage", "https://medlineplus.gov/c.html", "C"),
		},
	}})

	if !strings.HasPrefix(contextText, "MEDLINEPLUS SOURCES:\nSource 1: ") {
		t.Fatalf("unexpected context prefix: %q", contextText)
	}
	if !strings.Contains(contextText, "Source 1: "+strings.Repeat("a", 300)+"...\n") {
		t.Fatalf("expected excerpt truncated to 300 chars")
	}
	if strings.Contains(contextText, "third passage") {
		t.Fatalf("expected only top 2 passages in context")
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ContentExcerpt != strings.Repeat("a", 100) {
		t.Fatalf("expected 100 char preview, got %d chars", len(candidates[0].ContentExcerpt))
	}
	if candidates[1].Title != domain.UnknownTitle {
		t.Fatalf("expected unknown title sentinel, got %q", candidates[1].Title)
	}
}

func TestAssembleOrdersByPriorityNotByInputOrder(t *testing.T) {
	cfg := multiSourceConfig()
	a := NewAssembler(cfg)
	contextText, candidates := a.Assemble([]domain.SourceResult{
		{Label: "Mayo Clinic", Passages: []domain.Passage{passage("mayo text", "https://www.mayoclinic.org/x", "")}},
		{Label: "MedlinePlus", Passages: []domain.Passage{passage("medline text", "https://medlineplus.gov/x.html", "X")}},
	})

	if !strings.HasPrefix(contextText, "MEDLINEPLUS SOURCES:") {
		t.Fatalf("expected most trusted section first, got %q", contextText)
	}
	if !strings.Contains(contextText, "\n\nMAYO CLINIC SOURCES:\nSource 1: mayo text...") {
		t.Fatalf("expected separated mayo section, got %q", contextText)
	}
	if len(candidates) != 2 || candidates[0].Type != "MedlinePlus" || candidates[1].Type != "Mayo Clinic" {
		t.Fatalf("unexpected candidate order %+v", candidates)
	}
}

func TestAssembleIsolatesFailedSources(t *testing.T) {
	a := NewAssembler(multiSourceConfig())
	contextText, candidates := a.Assemble([]domain.SourceResult{
		{Label: "MedlinePlus", Err: errors.New("timeout")},
		{Label: "Mayo Clinic", Passages: []domain.Passage{passage("mayo text", "https://www.mayoclinic.org/x", "")}},
	})

	if contextText == "" || len(candidates) != 1 {
		t.Fatalf("expected secondary source to contribute, got context=%q candidates=%d", contextText, len(candidates))
	}
	if strings.Contains(contextText, "MEDLINEPLUS") {
		t.Fatalf("failed source must not contribute a header")
	}
}

func TestAssembleAllSourcesFailed(t *testing.T) {
	a := NewAssembler(multiSourceConfig())
	contextText, candidates := a.Assemble([]domain.SourceResult{
		{Label: "MedlinePlus", Err: errors.New("down")},
		{Label: "Mayo Clinic", Err: errors.New("down")},
		{Label: "Gale Encyclopedia of Medicine"},
	})
	if contextText != "" || candidates != nil {
		t.Fatalf("expected empty result, got context=%q candidates=%v", contextText, candidates)
	}
}

func TestAssembleSkipsCandidatesWithoutURL(t *testing.T) {
	a := NewAssembler(DefaultConfig())
	contextText, candidates := a.Assemble([]domain.SourceResult{{
		Label:    "MedlinePlus",
		Passages: []domain.Passage{passage("no metadata", "", "")},
	}})
	if !strings.Contains(contextText, "no metadata") {
		t.Fatalf("expected passage text in context")
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestAssembleRespectsContextBudget(t *testing.T) {
	cfg := multiSourceConfig()
	cfg.MaxContextChars = 120
	a := NewAssembler(cfg)
	contextText, candidates := a.Assemble([]domain.SourceResult{
		{Label: "MedlinePlus", Passages: []domain.Passage{passage(strings.Repeat("m", 60), "https://medlineplus.gov/m.html", "M")}},
		{Label: "Mayo Clinic", Passages: []domain.Passage{passage(strings.Repeat("y", 60), "https://www.mayoclinic.org/y", "")}},
	})

	if n := len([]rune(contextText)); n > 120 {
		t.Fatalf("context exceeds budget: %d", n)
	}
	if len(candidates) != 1 || candidates[0].Type != "MedlinePlus" {
		t.Fatalf("expected only the passage that fits to be cited, got %+v", candidates)
	}
}

func TestAssembleNumbersOnlyWrittenPassages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxContextChars = 60
	a := NewAssembler(cfg)
	contextText, candidates := a.Assemble([]domain.SourceResult{
		{Label: "MedlinePlus", Passages: []domain.Passage{
			passage(strings.Repeat("x", 100), "https://medlineplus.gov/long.html", "Long"),
			passage("short", "https://medlineplus.gov/short.html", "Short"),
		}},
	})

	want := "MEDLINEPLUS SOURCES:\nSource 1: short..."
	if contextText != want {
		t.Fatalf("unexpected context:\n%q\nwant\n%q", contextText, want)
	}
	if len(candidates) != 1 || candidates[0].URL != "https://medlineplus.gov/short.html" {
		t.Fatalf("expected only the written passage to be a candidate, got %+v", candidates)
	}
}

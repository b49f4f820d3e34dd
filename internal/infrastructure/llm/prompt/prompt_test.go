package prompt

import (
	"strings"
	"testing"
)

func TestBuildIncludesAllParts(t *testing.T) {
	got := Build("MEDLINEPLUS SOURCES:\nSource 1: Headaches...", "what helps?", "User: what helps?\n")

	for _, want := range []string{
		"You are SmartCare",
		"Previous conversation:\nUser: what helps?\n\n",
		"Medical context from multiple sources: MEDLINEPLUS SOURCES:",
		"Current question: what helps?",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "SmartCare:") {
		t.Fatalf("prompt must end with the assistant cue")
	}
}

func TestUserOmitsPersona(t *testing.T) {
	if strings.Contains(User("", "q", ""), "CORE RULES") {
		t.Fatalf("user prompt must not repeat the persona")
	}
}

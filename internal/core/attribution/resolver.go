package attribution

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

// Resolver turns a source URL into a short display name. It holds no mutable state.
type Resolver struct {
	rules []DisplayRule
}

func NewResolver(rules []DisplayRule) *Resolver {
	normalized := make([]DisplayRule, 0, len(rules))
	for _, rule := range rules {
		match := make([]string, 0, len(rule.Match))
		for _, m := range rule.Match {
			m = strings.ToLower(strings.TrimSpace(m))
			if m != "" {
				match = append(match, m)
			}
		}
		if len(match) == 0 || strings.TrimSpace(rule.Label) == "" {
			continue
		}
		rule.Match = match
		normalized = append(normalized, rule)
	}
	return &Resolver{rules: normalized}
}

// Resolve applies the first matching rule, else a title-cased host name, else FallbackSourceName.
func (r *Resolver) Resolve(rawURL, title string) string {
	lowered := strings.ToLower(rawURL)
	for _, rule := range r.rules {
		if !matchesAny(lowered, rule.Match) {
			continue
		}
		return rule.render(rawURL, title)
	}
	return hostDisplayName(rawURL)
}

func matchesAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

func (rule DisplayRule) render(rawURL, title string) string {
	switch rule.Kind {
	case DisplayTitle:
		title = strings.TrimSpace(title)
		if title != "" && title != domain.UnknownTitle {
			return rule.Label + " - " + title
		}
	case DisplayPathSegment:
		if slug := pathSegmentAfter(rawURL, rule.PathMarker); slug != "" {
			return rule.Label + " - " + titleWords(strings.ReplaceAll(slug, "-", " "))
		}
	}
	return rule.Label
}

func pathSegmentAfter(rawURL, marker string) string {
	if marker == "" {
		return ""
	}
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return ""
	}
	rest := rawURL[idx+len(marker):]
	if cut := strings.IndexAny(rest, "/?#"); cut >= 0 {
		rest = rest[:cut]
	}
	return strings.TrimSpace(rest)
}

func hostDisplayName(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return FallbackSourceName
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	if host == "" {
		return FallbackSourceName
	}
	return titleWords(host)
}

// titleWords upper-cases the first letter of every letter run and lower-cases the rest,
// so "nih.gov" becomes "Nih.Gov" and "abc123def.com" becomes "Abc123Def.Com".
func titleWords(s string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		isWord := unicode.IsLetter(r)
		switch {
		case isWord && start < 0:
			start = i
		case !isWord && start >= 0:
			b.WriteString(caser.String(s[start:i]))
			start = -1
			b.WriteRune(r)
		case !isWord:
			b.WriteRune(r)
		}
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}

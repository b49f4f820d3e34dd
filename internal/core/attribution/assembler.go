package attribution

import (
	"fmt"
	"strings"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

// Assembler merges per-source passages into one prompt context.
type Assembler struct {
	cfg Config
}

func NewAssembler(cfg Config) *Assembler {
	return &Assembler{cfg: cfg.normalize()}
}

// Assemble walks results in configured priority order regardless of their order in the slice.
// Failed sources are skipped. Passages that would overflow MaxContextChars are dropped with
// their candidates.
func (a *Assembler) Assemble(results []domain.SourceResult) (string, []domain.SourceCandidate) {
	ctxBuf := contextBudget{limit: a.cfg.MaxContextChars}
	candidates := make([]domain.SourceCandidate, 0)

	for _, result := range orderByPriority(results, a.cfg.SourcePriority) {
		if result.Err != nil || len(result.Passages) == 0 {
			continue
		}

		passages := result.Passages
		if len(passages) > a.cfg.TopKPerSource {
			passages = passages[:a.cfg.TopKPerSource]
		}

		header := strings.ToUpper(result.Label) + " SOURCES:"
		headerWritten := false
		written := 0
		for _, passage := range passages {
			line := fmt.Sprintf("Source %d: %s...", written+1, truncateRunes(passage.Text, a.cfg.ExcerptChars))

			if !headerWritten {
				if !ctxBuf.addSection(header, line) {
					continue
				}
				headerWritten = true
			} else if !ctxBuf.add(line) {
				continue
			}
			written++

			url := passage.SourceURL()
			if url == "" {
				continue
			}
			title := passage.Title()
			if title == "" {
				title = domain.UnknownTitle
			}
			candidates = append(candidates, domain.SourceCandidate{
				Type:           result.Label,
				URL:            url,
				Title:          title,
				ContentExcerpt: truncateRunes(passage.Text, a.cfg.PreviewChars),
			})
		}
	}

	if len(candidates) == 0 {
		candidates = nil
	}
	return ctxBuf.String(), candidates
}

func orderByPriority(results []domain.SourceResult, priority []string) []domain.SourceResult {
	rank := make(map[string]int, len(priority))
	for i, label := range priority {
		if _, ok := rank[label]; !ok {
			rank[label] = i
		}
	}

	ordered := make([]domain.SourceResult, 0, len(results))
	slots := make([][]domain.SourceResult, len(priority))
	var unranked []domain.SourceResult
	for _, result := range results {
		if idx, ok := rank[result.Label]; ok {
			slots[idx] = append(slots[idx], result)
			continue
		}
		unranked = append(unranked, result)
	}
	for _, slot := range slots {
		ordered = append(ordered, slot...)
	}
	return append(ordered, unranked...)
}

type contextBudget struct {
	limit int
	used  int
	lines []string
}

func (b *contextBudget) cost(line string) int {
	n := runeLen(line)
	if len(b.lines) > 0 {
		n++ // joining newline
	}
	return n
}

func (b *contextBudget) add(line string) bool {
	n := b.cost(line)
	if b.used+n > b.limit {
		return false
	}
	b.lines = append(b.lines, line)
	b.used += n
	return true
}

// addSection writes a section header together with its first line, or nothing.
// Sections after the first are separated by a blank line.
func (b *contextBudget) addSection(header, first string) bool {
	if len(b.lines) > 0 {
		header = "\n" + header
	}
	n := b.cost(header) + runeLen(first) + 1
	if b.used+n > b.limit {
		return false
	}
	b.lines = append(b.lines, header, first)
	b.used += n
	return true
}

func (b *contextBudget) String() string {
	return strings.Join(b.lines, "\n")
}

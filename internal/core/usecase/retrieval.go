package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

// NamedRetriever binds a source label to its retriever.
type NamedRetriever struct {
	Label     string
	Retriever ports.Retriever
}

// SourceRegistry queries every registered source concurrently and returns results in
// registration (priority) order.
type SourceRegistry struct {
	sources  []NamedRetriever
	timeout  time.Duration
	observer ports.PipelineObserver
}

func NewSourceRegistry(timeout time.Duration, observer ports.PipelineObserver, sources ...NamedRetriever) *SourceRegistry {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if observer == nil {
		observer = noopObserver{}
	}
	registered := make([]NamedRetriever, 0, len(sources))
	for _, source := range sources {
		if source.Retriever == nil || source.Label == "" {
			continue
		}
		registered = append(registered, source)
	}
	return &SourceRegistry{
		sources:  registered,
		timeout:  timeout,
		observer: observer,
	}
}

func (r *SourceRegistry) Labels() []string {
	out := make([]string, 0, len(r.sources))
	for _, source := range r.sources {
		out = append(out, source.Label)
	}
	return out
}

// RetrieveAll never fails as a whole: a source error or timeout is recorded on its own result.
func (r *SourceRegistry) RetrieveAll(ctx context.Context, query string) []domain.SourceResult {
	results := make([]domain.SourceResult, len(r.sources))

	var wg sync.WaitGroup
	for i, source := range r.sources {
		wg.Add(1)
		go func(i int, source NamedRetriever) {
			defer wg.Done()
			results[i] = r.retrieveOne(ctx, source, query)
		}(i, source)
	}
	wg.Wait()
	return results
}

type retrieval struct {
	passages []domain.Passage
	err      error
}

// retrieveOne enforces the source timeout even when the retriever ignores its context;
// passages arriving after the deadline are dropped.
func (r *SourceRegistry) retrieveOne(ctx context.Context, source NamedRetriever, query string) domain.SourceResult {
	result := domain.SourceResult{Label: source.Label}
	start := time.Now()

	sourceCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan retrieval, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- retrieval{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		passages, err := source.Retriever.Retrieve(sourceCtx, query)
		done <- retrieval{passages: passages, err: err}
	}()

	select {
	case out := <-done:
		result.Passages, result.Err = out.passages, out.err
	case <-sourceCtx.Done():
		result.Err = sourceCtx.Err()
	}
	if result.Err != nil {
		result.Passages = nil
		result.Err = domain.WrapError(domain.ErrRetrieval, "retrieve "+source.Label, result.Err)
		slog.Warn("source_retrieval_failed",
			"source", source.Label,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"error", result.Err,
		)
	}
	r.observer.ObserveSourceRetrieval(source.Label, len(result.Passages), time.Since(start), result.Err)
	return result
}

type noopObserver struct{}

func (noopObserver) ObserveSourceRetrieval(string, int, time.Duration, error) {}
func (noopObserver) ObserveCompletion(time.Duration, error) {}
func (noopObserver) ObserveAttribution(int, int, bool) {}

package qdrant

import (
	"context"
	"fmt"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

// NamespaceRetriever serves one knowledge source: it embeds the query and searches its namespace.
type NamespaceRetriever struct {
	embedder  ports.Embedder
	searcher  ports.VectorSearcher
	namespace string
	limit     int
}

func NewNamespaceRetriever(embedder ports.Embedder, searcher ports.VectorSearcher, namespace string, limit int) *NamespaceRetriever {
	if limit <= 0 {
		limit = 4
	}
	return &NamespaceRetriever{
		embedder:  embedder,
		searcher:  searcher,
		namespace: namespace,
		limit:     limit,
	}
}

func (r *NamespaceRetriever) Retrieve(ctx context.Context, query string) ([]domain.Passage, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	passages, err := r.searcher.Search(ctx, vector, r.limit, r.namespace)
	if err != nil {
		return nil, fmt.Errorf("search namespace %q: %w", r.namespace, err)
	}
	return passages, nil
}

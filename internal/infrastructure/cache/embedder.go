package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

func MakeKey(model, text string) string {
	h := md5.Sum([]byte(model + "|" + text))
	return "emb:" + hex.EncodeToString(h[:])
}

// CachedEmbedder consults the tiers in order and backfills the faster tiers on a hit.
type CachedEmbedder struct {
	next  ports.Embedder
	model string
	ttl   time.Duration
	tiers []ports.EmbeddingCache
}

func NewCachedEmbedder(next ports.Embedder, model string, ttl time.Duration, tiers ...ports.EmbeddingCache) *CachedEmbedder {
	if ttl <= 0 {
		ttl = time.Hour
	}
	active := make([]ports.EmbeddingCache, 0, len(tiers))
	for _, tier := range tiers {
		if tier != nil {
			active = append(active, tier)
		}
	}
	return &CachedEmbedder{next: next, model: model, ttl: ttl, tiers: active}
}

func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := MakeKey(e.model, strings.TrimSpace(text))
	for i, tier := range e.tiers {
		if v, ok := tier.Get(ctx, key); ok {
			for _, faster := range e.tiers[:i] {
				faster.Set(ctx, key, v, e.ttl)
			}
			return v, nil
		}
	}

	v, err := e.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	for _, tier := range e.tiers {
		tier.Set(ctx, key, v, e.ttl)
	}
	return v, nil
}

// Package cache keeps query embeddings so repeated questions skip the embedding model.
package cache

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"time"
)

// LocalLRU is an in-process LRU with per-entry TTL. Vectors are copied in and out.
type LocalLRU struct {
	mu    sync.Mutex
	cap   int
	order *list.List // front = most recent
	items map[string]*list.Element
	now   func() time.Time
}

type lruEntry struct {
	key string
	vec []float32
	exp time.Time
}

func NewLocalLRU(capacity int) *LocalLRU {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LocalLRU{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element, capacity),
		now:   time.Now,
	}
}

func (l *LocalLRU) Get(_ context.Context, key string) ([]float32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	el, ok := l.items[key]
	if !ok {
		return nil, false
	}
	ent := el.Value.(lruEntry)
	if !ent.exp.After(l.now()) {
		l.order.Remove(el)
		delete(l.items, key)
		return nil, false
	}
	l.order.MoveToFront(el)
	return slices.Clone(ent.vec), true
}

func (l *LocalLRU) Set(_ context.Context, key string, v []float32, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent := lruEntry{key: key, vec: slices.Clone(v), exp: l.now().Add(ttl)}
	if el, ok := l.items[key]; ok {
		el.Value = ent
		l.order.MoveToFront(el)
		return
	}
	l.items[key] = l.order.PushFront(ent)
	if l.order.Len() > l.cap {
		if oldest := l.order.Back(); oldest != nil {
			delete(l.items, oldest.Value.(lruEntry).key)
			l.order.Remove(oldest)
		}
	}
}

func (l *LocalLRU) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

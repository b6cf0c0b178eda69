package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Spok95/cpq/internal/infra/cache"
)

// Lists caches whole-table snapshots. Every list view loads its rows once
// and filters, sorts and pages them in memory.
//
// Each list has a generation that Invalidate bumps. A load that overlaps a
// write must not leave its snapshot behind, so after storing it the loader
// deletes the key again if the generation moved.
type Lists struct {
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

func NewLists(c cache.Cache, ttl time.Duration, log *slog.Logger) *Lists {
	return &Lists{cache: c, ttl: ttl, log: log, gens: map[string]uint64{}}
}

func (l *Lists) generation(name string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[name]
}

const (
	listCustomers = "customers"
	listProducts  = "products"
	listQuotes    = "quotes"
	listOrders    = "orders"
	listUsers     = "users"
)

func cachedList[T any](ctx context.Context, l *Lists, name string, load func(context.Context) ([]T, error)) ([]T, error) {
	key := l.cache.GenerateKey("list", name)
	raw, err := l.cache.Get(ctx, key)
	if err != nil {
		l.log.Warn("cache get failed", "key", key, "err", err)
	} else if raw != "" {
		var out []T
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
		l.log.Warn("cache entry unreadable", "key", key)
	}

	gen := l.generation(name)
	out, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if l.generation(name) != gen {
		return out, nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := l.cache.Set(ctx, key, string(b), l.ttl); err != nil {
		l.log.Warn("cache set failed", "key", key, "err", err)
		return out, nil
	}
	// a write may have invalidated between the check above and Set
	if l.generation(name) != gen {
		if err := l.cache.Delete(ctx, key); err != nil {
			l.log.Warn("cache invalidate failed", "keys", []string{key}, "err", err)
		}
	}
	return out, nil
}

// Invalidate drops the named snapshots after a write.
func (l *Lists) Invalidate(ctx context.Context, names ...string) {
	l.mu.Lock()
	for _, n := range names {
		l.gens[n]++
	}
	l.mu.Unlock()

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = l.cache.GenerateKey("list", n)
	}
	if err := l.cache.Delete(ctx, keys...); err != nil {
		l.log.Warn("cache invalidate failed", "keys", keys, "err", err)
	}
}

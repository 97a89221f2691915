package pipeline

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/sourcedeps/pkg/observability"
)

const memoKeyType = "artifact"

// outcome is what a run remembers about an artifact file name. Records
// themselves are never stored.
type outcome struct {
	path string
	err  error
}

// memo remembers per-run artifact outcomes so an artifact referenced by
// several manifests is requested at most once.
type memo struct {
	cache *lru.Cache[string, outcome]
}

func newMemo(size int) *memo {
	c, err := lru.New[string, outcome](size)
	if err != nil {
		// only fails for non-positive sizes
		c, _ = lru.New[string, outcome](DefaultMemoSize)
	}
	return &memo{cache: c}
}

func (m *memo) get(ctx context.Context, key string) (outcome, bool) {
	o, ok := m.cache.Get(key)
	if ok {
		observability.Cache().OnCacheHit(ctx, memoKeyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, memoKeyType)
	}
	return o, ok
}

func (m *memo) add(key string, o outcome) {
	m.cache.Add(key, o)
}

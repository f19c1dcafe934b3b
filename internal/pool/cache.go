package pool

import "go.uber.org/zap"

// Cache memoizes fn for the most recently used keys. It is a Pool whose
// resources need no release.
type Cache[K comparable, V any] struct {
	pool *Pool[K, V]
}

// NewCache returns a cache holding results for at most maxsize keys.
func NewCache[K comparable, V any](maxsize int, fn func(K) (V, error), log *zap.SugaredLogger) (*Cache[K, V], error) {
	p, err := New(maxsize, AcquireFunc[K, V](fn), nil, log)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{pool: p}, nil
}

// Get returns the cached value for key, computing it on a miss.
func (c *Cache[K, V]) Get(key K) (V, error) {
	return c.pool.Get(key)
}

func (c *Cache[K, V]) Len() int {
	return c.pool.Len()
}

func (c *Cache[K, V]) Stats() Stats {
	return c.pool.Stats()
}

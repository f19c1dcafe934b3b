package pool

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"
)

// AcquireFunc claims the resource for key. It is the only place a pool opens anything.
type AcquireFunc[K comparable, V any] func(key K) (V, error)

// ReleaseFunc relinquishes a resource previously returned by the AcquireFunc for key.
type ReleaseFunc[K comparable, V any] func(key K, value V) error

// Stats counts pool activity since construction.
type Stats struct {
	Hits      int64 // Get calls served by an already tracked key.
	Acquires  int64 // Successful AcquireFunc calls.
	Releases  int64 // ReleaseFunc calls, failed ones included.
	Evictions int64 // Releases forced by a claim at capacity.
}

// Pool is a fixed capacity map of claimed resources with least-recently-used eviction.
// It is not safe for concurrent use.
type Pool[K comparable, V any] struct {
	maxsize int
	stats   Stats
	acquire AcquireFunc[K, V]
	release ReleaseFunc[K, V]
	log     *zap.SugaredLogger
	entries *simplelru.LRU[K, V]
}

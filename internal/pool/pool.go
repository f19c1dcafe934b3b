// Package pool manages scarce resources, such as open file descriptors, under a hard
// ceiling. Resources are claimed on demand and the least recently used one is
// released to make room for a new claim.
package pool

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamBelugaa/esort/pkg/errors"
)

// New creates a pool holding at most maxsize resources.
func New[K comparable, V any](
	maxsize int, acquire AcquireFunc[K, V], release ReleaseFunc[K, V], log *zap.SugaredLogger,
) (*Pool[K, V], error) {
	if maxsize < 1 {
		return nil, errors.NewValidationError(
			nil, errors.ErrValidationInvalidData, fmt.Sprintf("maxsize must be at least 1, got %d", maxsize),
		).
			WithField("maxsize").
			WithProvided(maxsize).
			WithExpected(1)
	}

	if acquire == nil {
		return nil, errors.NewRequiredFieldError("acquire")
	}

	if release == nil {
		release = func(K, V) error { return nil }
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	// Evictions are driven by Get so that release runs before the next acquire.
	entries, err := simplelru.NewLRU[K, V](maxsize, nil)
	if err != nil {
		return nil, err
	}

	log.Debugw("Initializing resource pool", "maxsize", maxsize)
	return &Pool[K, V]{
		log:     log,
		maxsize: maxsize,
		acquire: acquire,
		release: release,
		entries: entries,
	}, nil
}

// Get returns the resource for key, claiming it if it is not tracked yet.
//
// A tracked key becomes the most recently used one and keeps its handle. An
// untracked key is acquired; when the pool is full the least recently used
// entry is released and dropped first, so the pool never holds more than its
// capacity. Callback errors are returned as they are, wrapped in a PoolError,
// and never retried.
func (p *Pool[K, V]) Get(key K) (V, error) {
	if value, ok := p.entries.Get(key); ok {
		p.stats.Hits++
		return value, nil
	}

	if p.entries.Len() >= p.maxsize {
		if err := p.evictOldest(); err != nil {
			var zero V
			return zero, err
		}
	}

	value, err := p.acquire(key)
	if err != nil {
		var zero V
		return zero, errors.NewPoolError(err, errors.ErrPoolAcquireFailed, "Failed to acquire resource").
			WithKey(key).
			WithOperation("acquire")
	}

	p.stats.Acquires++
	p.entries.Add(key, value)

	p.log.Debugw("Resource claimed", "key", key, "size", p.entries.Len(), "maxsize", p.maxsize)
	return value, nil
}

// Remove releases key if it is tracked. It reports whether key was tracked.
func (p *Pool[K, V]) Remove(key K) (bool, error) {
	value, ok := p.entries.Peek(key)
	if !ok {
		return false, nil
	}

	p.entries.Remove(key)
	return true, p.releaseEntry(key, value, "remove")
}

// Free releases every tracked resource, oldest first, and empties the pool.
// Every entry is released even if some releases fail; the failures are combined.
func (p *Pool[K, V]) Free() error {
	var errs error
	count := p.entries.Len()

	for _, key := range p.entries.Keys() {
		value, _ := p.entries.Peek(key)
		errs = multierr.Append(errs, p.releaseEntry(key, value, "free"))
	}
	p.entries.Purge()

	if errs != nil {
		p.log.Errorw("Resource pool freed with errors", "released", count, "errors", len(multierr.Errors(errs)))
		return fmt.Errorf("failed to release %d out of %d resources: %w", len(multierr.Errors(errs)), count, errs)
	}

	p.log.Debugw("Resource pool freed", "released", count)
	return nil
}

// Len returns the number of tracked resources.
func (p *Pool[K, V]) Len() int {
	return p.entries.Len()
}

// Cap returns the maximum number of tracked resources.
func (p *Pool[K, V]) Cap() int {
	return p.maxsize
}

// Contains reports whether key is tracked, without touching its recency.
func (p *Pool[K, V]) Contains(key K) bool {
	return p.entries.Contains(key)
}

// Keys returns the tracked keys from least to most recently used.
func (p *Pool[K, V]) Keys() []K {
	return p.entries.Keys()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[K, V]) Stats() Stats {
	return p.stats
}

// The evicted entry is dropped even when its release fails.
func (p *Pool[K, V]) evictOldest() error {
	key, value, ok := p.entries.RemoveOldest()
	if !ok {
		return nil
	}

	p.stats.Evictions++
	p.log.Debugw("Evicting least recently used resource", "key", key, "maxsize", p.maxsize)
	return p.releaseEntry(key, value, "evict")
}

func (p *Pool[K, V]) releaseEntry(key K, value V, operation string) error {
	p.stats.Releases++

	if err := p.release(key, value); err != nil {
		p.log.Errorw("Failed to release resource", "key", key, "operation", operation, "error", err)
		return errors.NewPoolError(err, errors.ErrPoolReleaseFailed, "Failed to release resource").
			WithKey(key).
			WithOperation(operation)
	}
	return nil
}

// Package esort sorts sequences larger than memory.
//
// Items are buffered until their serialized size reaches the configured memory
// threshold. Smaller inputs are sorted in memory; larger ones are written out as
// sorted runs in a private temporary directory and merged back lazily, with no
// more than a fixed number of run files open at any moment.
//
//	s, err := esort.New(codec.Uint64{}, cmp.Compare[uint64], options.WithMemSize(64<<20))
//	if err != nil {
//		return err
//	}
//	for v, err := range s.Sort(ctx, values) {
//		...
//	}
package esort

import (
	"cmp"
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/iamBelugaa/esort/internal/engine"
	"github.com/iamBelugaa/esort/pkg/codec"
	"github.com/iamBelugaa/esort/pkg/errors"
	"github.com/iamBelugaa/esort/pkg/options"
)

// Stats describes the most recent sort run by a Sorter.
type Stats = engine.Stats

// Mode reports whether a sort stayed in memory or spilled to disk.
type Mode = engine.Mode

const (
	ModeMemory   = engine.ModeMemory
	ModeExternal = engine.ModeExternal
)

// Sorter sorts sequences of T with a fixed configuration.
type Sorter[T any] struct {
	engine  *engine.Engine[T]
	options *options.Options
	log     *zap.SugaredLogger
}

// New validates the options and returns a Sorter. compare orders items the way
// cmp.Compare does; cd defines both their on-disk form and their measured size.
func New[T any](cd codec.Codec[T], compare func(a, b T) int, opts ...options.OptionFunc) (*Sorter[T], error) {
	if cd == nil {
		return nil, errors.NewRequiredFieldError("codec")
	}
	if compare == nil {
		return nil, errors.NewRequiredFieldError("compare")
	}

	defaultOpts := options.DefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	log := defaultOpts.Log()
	if err := validateOptions(&defaultOpts, log); err != nil {
		return nil, err
	}

	return &Sorter[T]{
		log:     log,
		options: &defaultOpts,
		engine:  engine.New(cd, compare, &defaultOpts),
	}, nil
}

// Sort returns items in ascending order. The result is lazy: the sort starts when
// it is ranged over and is repeated on every range, so items must be re-iterable
// to range it more than once. The first error ends the sequence.
//
// A Sorter runs one sort at a time; ranging results concurrently is not supported.
func (s *Sorter[T]) Sort(ctx context.Context, items iter.Seq[T]) iter.Seq2[T, error] {
	return s.engine.Sort(ctx, items)
}

// Stats returns statistics of the most recently finished sort.
func (s *Sorter[T]) Stats() Stats {
	return s.engine.Stats()
}

// Options returns a copy of the configuration the Sorter was built with.
func (s *Sorter[T]) Options() options.Options {
	opts := *s.options
	if opts.Compression != nil {
		compression := *opts.Compression
		opts.Compression = &compression
	}
	return opts
}

// Sorted is a one-shot form of New followed by Sort. A configuration error is
// yielded as the only element of the sequence.
func Sorted[T any](
	ctx context.Context, items iter.Seq[T], cd codec.Codec[T], compare func(a, b T) int, opts ...options.OptionFunc,
) iter.Seq2[T, error] {
	s, err := New(cd, compare, opts...)
	if err != nil {
		return func(yield func(T, error) bool) {
			var zero T
			yield(zero, err)
		}
	}
	return s.Sort(ctx, items)
}

// ByKey builds a comparison that orders items by the value key extracts.
func ByKey[T any, K cmp.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	}
}

// Reverse inverts a comparison.
func Reverse[T any](compare func(a, b T) int) func(a, b T) int {
	return func(a, b T) int {
		return compare(b, a)
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}

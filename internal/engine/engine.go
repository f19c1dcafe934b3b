// Package engine implements the external sort driver: a small input is sorted in
// memory, a large one is cut into size-bounded sorted runs on disk and merged
// back lazily with a k-way heap merge.
package engine

import (
	"container/heap"
	"context"
	"io"
	"iter"
	"slices"
	"time"

	"go.uber.org/multierr"

	"github.com/iamBelugaa/esort/internal/index"
	"github.com/iamBelugaa/esort/internal/storage"
	"github.com/iamBelugaa/esort/internal/storage/filepool"
	"github.com/iamBelugaa/esort/pkg/codec"
	"github.com/iamBelugaa/esort/pkg/errors"
	"github.com/iamBelugaa/esort/pkg/filesys"
	"github.com/iamBelugaa/esort/pkg/options"
	"github.com/iamBelugaa/esort/pkg/runinfo"
)

const tempDirPattern = "esort-*"

// New creates an Engine. The options are used as given; validation is the caller's job.
func New[T any](cd codec.Codec[T], compare func(a, b T) int, opts *options.Options) *Engine[T] {
	log := opts.Log()
	log.Infow(
		"Initializing sort engine",
		"memSize", opts.MemSize,
		"fileSize", opts.FileSize,
		"maxOpenFiles", opts.MaxOpenFiles,
		"compression", opts.Compression,
	)

	return &Engine[T]{
		log:     log,
		codec:   cd,
		compare: compare,
		options: opts,
	}
}

// Sort returns items in ascending order as a lazy sequence.
//
// Nothing happens until the sequence is ranged over, and each range sorts items
// again. Items are read only as far as needed to pick a strategy and fill runs;
// during the merge one run is advanced per yielded item. An error ends the
// sequence. Temporary files and descriptors are released when the range ends,
// including when the consumer stops early.
func (e *Engine[T]) Sort(ctx context.Context, items iter.Seq[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		start := time.Now()
		stats := Stats{Mode: ModeMemory}

		defer func() {
			stats.Duration = time.Since(start)
			e.setStats(stats)
		}()

		e.sort(ctx, items, &stats, yield)
	}
}

// Stats returns the statistics of the most recently finished sort.
func (e *Engine[T]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine[T]) sort(ctx context.Context, items iter.Seq[T], stats *Stats, yield func(T, error) bool) {
	var zero T

	next, stop := iter.Pull(items)
	defer stop()

	var size int64
	var buffered []entry[T]

	for {
		if err := ctx.Err(); err != nil {
			yield(zero, e.canceled(err, "buffer", stats.Items))
			return
		}

		item, ok := next()
		if !ok {
			break
		}

		stats.Items++
		buffered = append(buffered, entry[T]{item: item})

		// Checked before the item is sized: input ending exactly on MemSize stays in memory.
		if size >= e.options.MemSize {
			stats.Mode = ModeExternal
			break
		}

		data, err := e.codec.Marshal(item)
		if err != nil {
			yield(zero, e.serializationError(err, "buffer", stats.Items))
			return
		}

		last := &buffered[len(buffered)-1]
		last.data, last.sized = data, true
		size += int64(len(data))
	}

	if stats.Mode == ModeMemory {
		e.log.Infow("Sorting in memory", "items", len(buffered), "bytes", size, "memSize", e.options.MemSize)

		slices.SortStableFunc(buffered, e.compareEntries)
		for i := range buffered {
			if !yield(buffered[i].item, nil) {
				return
			}
		}
		return
	}

	e.log.Infow(
		"Memory threshold reached, switching to external sort",
		"bufferedItems", len(buffered),
		"bufferedBytes", size,
		"memSize", e.options.MemSize,
	)

	if err := e.external(ctx, buffered, next, stats, yield); err != nil {
		yield(zero, err)
	}
}

// external owns the temporary directory and the file pool for the rest of the sort.
// It returns nil once the consumer has stopped ranging, since nothing may be yielded after that.
func (e *Engine[T]) external(
	ctx context.Context, buffered []entry[T], next func() (T, bool), stats *Stats, yield func(T, error) bool,
) (err error) {
	dir, err := filesys.CreateTempDir(e.options.TempDir, tempDirPattern)
	if err != nil {
		return errors.ClassifyDirectoryCreationError(err, e.options.TempDir)
	}
	stats.TempDir = dir

	files, err := filepool.New(e.options.MaxOpenFiles, e.log)
	if err != nil {
		return multierr.Append(err, filesys.RemoveDir(dir))
	}

	idx := index.New(e.log)
	writer := storage.NewWriter(dir, files, idx, e.options)

	stopped, partitioned := false, false
	var cursors []*storage.Cursor

	// Runs are discarded from the index as the merge drains them, so their totals are taken first.
	recordRuns := func() {
		partitioned = true
		stats.Runs = idx.Len()
		_, stats.PayloadBytes, stats.DiskBytes = idx.Totals()
	}

	defer func() {
		if !partitioned {
			recordRuns()
		}

		fs := files.Stats()
		stats.PeakOpenFiles = fs.PeakOpen
		stats.Opens, stats.Reopens, stats.Evictions = fs.Opens, fs.Reopens, fs.Evictions

		cleanupErr := e.cleanup(dir, files, idx, cursors)
		if stopped {
			err = nil
			return
		}
		err = multierr.Append(err, cleanupErr)
	}()

	if err := e.partition(ctx, buffered, next, writer, stats); err != nil {
		return err
	}

	recordRuns()
	runs := writer.Runs()
	e.log.Infow("Partition complete, merging runs", "runs", len(runs), "items", stats.Items, "dir", dir)

	h := &mergeHeap[T]{compare: e.compare, heads: make([]*head[T], 0, len(runs))}
	for _, run := range runs {
		cursor, err := run.Cursor()
		if err != nil {
			return err
		}
		cursors = append(cursors, cursor)

		item, err := storage.Decode(cursor, e.codec)
		if err == io.EOF {
			if err := writer.Discard(run); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		h.heads = append(h.heads, &head[T]{item: item, runID: run.ID, run: run, cursor: cursor})
	}
	heap.Init(h)

	for h.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return e.canceled(err, "merge", stats.Items)
		}

		top := h.heads[0]
		if !yield(top.item, nil) {
			stopped = true
			e.log.Infow("Consumer stopped before the merge finished", "remainingRuns", h.Len())
			return nil
		}

		item, err := storage.Decode(top.cursor, e.codec)
		if err == io.EOF {
			heap.Pop(h)
			if err := writer.Discard(top.run); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		top.item = item
		heap.Fix(h, 0)
	}

	e.log.Infow("External sort complete", "items", stats.Items, "runs", len(runs))
	return nil
}

// partition cuts the input into stacks of at most FileSize serialized bytes and
// writes each one, sorted, as a run. A stack is flushed when the next item would
// push it past FileSize, never when it is empty.
func (e *Engine[T]) partition(
	ctx context.Context, buffered []entry[T], next func() (T, bool), writer *storage.Writer, stats *Stats,
) error {
	var stackSize int64
	var stack []entry[T]

	flush := func() error {
		slices.SortStableFunc(stack, e.compareEntries)

		chunks := make([][]byte, len(stack))
		for i := range stack {
			chunks[i] = stack[i].data
		}

		run, err := writer.WriteRun(ctx, chunks)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return e.canceled(ctxErr, "partition", stats.Items)
			}
			return err
		}

		e.log.Debugw("Run flushed", "runID", run.ID, "items", run.Items, "bytes", run.PayloadBytes)
		clear(stack)
		stack = stack[:0]
		return nil
	}

	add := func(en entry[T]) error {
		if !en.sized {
			data, err := e.codec.Marshal(en.item)
			if err != nil {
				return e.serializationError(err, "partition", stats.Items)
			}
			en.data, en.sized = data, true
		}

		itemSize := int64(len(en.data))
		stackSize += itemSize

		if stackSize > e.options.FileSize && len(stack) > 0 {
			if err := flush(); err != nil {
				return err
			}
			stackSize = itemSize
		}

		stack = append(stack, en)
		return nil
	}

	for i := range buffered {
		if err := add(buffered[i]); err != nil {
			return err
		}
		buffered[i] = entry[T]{}
	}

	for {
		if err := ctx.Err(); err != nil {
			return e.canceled(err, "partition", stats.Items)
		}

		item, ok := next()
		if !ok {
			break
		}

		stats.Items++
		if err := add(entry[T]{item: item}); err != nil {
			return err
		}
	}

	if len(stack) > 0 {
		return flush()
	}
	return nil
}

func (e *Engine[T]) cleanup(dir string, files *filepool.FilePool, idx *index.Index, cursors []*storage.Cursor) error {
	var err error
	for _, cursor := range cursors {
		err = multierr.Append(err, cursor.Close())
	}

	err = multierr.Append(err, files.Close())

	// Whatever the merge did not drain is still on disk; files the index never saw are partial writes.
	leftover, listErr := runinfo.ListRuns(dir, e.options.RunPrefix)
	if listErr != nil {
		e.log.Warnw("Failed to list leftover runs", "dir", dir, "error", listErr)
	}
	unregistered := 0
	for _, path := range leftover {
		id, parseErr := runinfo.ParseRunID(path, e.options.RunPrefix)
		if _, ok := idx.Get(id); parseErr != nil || !ok {
			unregistered++
		}
	}
	if len(leftover) > 0 {
		e.log.Debugw("Removing unmerged runs", "dir", dir, "runs", len(leftover), "unregistered", unregistered)
	}

	err = multierr.Append(err, idx.Close())

	if rmErr := filesys.RemoveDir(dir); rmErr != nil {
		err = multierr.Append(err, errors.NewStorageError(
			rmErr, errors.ErrTempDirRemoveFailed, "Failed to remove temporary run directory",
		).
			WithPath(dir))
	}

	if err != nil {
		e.log.Errorw("Failed to release sort resources", "dir", dir, "error", err)
		return err
	}

	e.log.Debugw("Sort resources released", "dir", dir)
	return nil
}

func (e *Engine[T]) compareEntries(a, b entry[T]) int {
	return e.compare(a.item, b.item)
}

func (e *Engine[T]) setStats(stats Stats) {
	e.mu.Lock()
	e.stats = stats
	e.mu.Unlock()

	e.log.Infow(
		"Sort finished",
		"mode", stats.Mode,
		"items", stats.Items,
		"runs", stats.Runs,
		"peakOpenFiles", stats.PeakOpenFiles,
		"duration", stats.Duration,
	)
}

func (e *Engine[T]) serializationError(err error, phase string, items int64) *errors.SortError {
	return errors.NewSortError(err, errors.ErrRecordSerialization, "Failed to marshal item").
		WithPhase(phase).
		WithItems(items)
}

func (e *Engine[T]) canceled(err error, phase string, items int64) *errors.SortError {
	return errors.NewSortError(err, errors.ErrSystemCanceled, "Sort canceled").
		WithPhase(phase).
		WithItems(items)
}

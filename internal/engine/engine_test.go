package engine

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iamBelugaa/esort/pkg/codec"
	"github.com/iamBelugaa/esort/pkg/errors"
	"github.com/iamBelugaa/esort/pkg/options"
)

func testOptions(t *testing.T, memSize, fileSize int64, maxOpen int) *options.Options {
	t.Helper()

	opts := options.DefaultOptions()
	opts.TempDir = t.TempDir()
	opts.MemSize = memSize
	opts.FileSize = fileSize
	opts.MaxOpenFiles = maxOpen
	opts.Logger = zaptest.NewLogger(t).Sugar()
	return &opts
}

func randomUint64s(n int) []uint64 {
	r := rand.New(rand.NewPCG(7, 11))
	values := make([]uint64, n)
	for i := range values {
		values[i] = r.Uint64()
	}
	return values
}

func collect[T any](t *testing.T, e *Engine[T], values []T) []T {
	t.Helper()

	out := make([]T, 0, len(values))
	for v, err := range e.Sort(context.Background(), slices.Values(values)) {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func sortedCopy(values []uint64) []uint64 {
	want := slices.Clone(values)
	slices.Sort(want)
	return want
}

func TestSortInMemory(t *testing.T) {
	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 1<<20, 1<<10, 4))
	values := randomUint64s(500)

	assert.Equal(t, sortedCopy(values), collect(t, e, values))

	stats := e.Stats()
	assert.Equal(t, ModeMemory, stats.Mode)
	assert.Equal(t, int64(500), stats.Items)
	assert.Zero(t, stats.Runs)
	assert.Empty(t, stats.TempDir)
}

func TestSortEmptyInput(t *testing.T) {
	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 0, 8, 1))

	assert.Empty(t, collect(t, e, nil))
	assert.Equal(t, ModeMemory, e.Stats().Mode)
	assert.Zero(t, e.Stats().Runs)
}

func TestMemSizeBoundary(t *testing.T) {
	t.Run("ExactlyAtThreshold", func(t *testing.T) {
		e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 24, 8, 2))
		assert.Equal(t, []uint64{1, 2, 3}, collect(t, e, []uint64{3, 1, 2}))
		assert.Equal(t, ModeMemory, e.Stats().Mode)
	})

	t.Run("OneItemMore", func(t *testing.T) {
		e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 24, 8, 2))
		assert.Equal(t, []uint64{1, 2, 3, 4}, collect(t, e, []uint64{3, 1, 4, 2}))
		assert.Equal(t, ModeExternal, e.Stats().Mode)
		assert.Equal(t, 4, e.Stats().Runs)
	})

	t.Run("ZeroForcesExternal", func(t *testing.T) {
		e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 0, 1<<10, 2))
		assert.Equal(t, []uint64{9}, collect(t, e, []uint64{9}))
		assert.Equal(t, ModeExternal, e.Stats().Mode)
		assert.Equal(t, 1, e.Stats().Runs)
	})
}

func TestRunCountFollowsFileSize(t *testing.T) {
	// 80 bytes per run holds ten 8 byte items.
	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 0, 80, 4))
	values := randomUint64s(95)

	assert.Equal(t, sortedCopy(values), collect(t, e, values))

	stats := e.Stats()
	assert.Equal(t, 10, stats.Runs)
	assert.Equal(t, int64(95*8), stats.PayloadBytes)
	assert.Greater(t, stats.DiskBytes, stats.PayloadBytes)
}

func TestOversizedItemGetsOwnRun(t *testing.T) {
	e := New[string](codec.String{}, cmp.Compare[string], testOptions(t, 0, 4, 2))
	values := []string{"b", "a", "a-very-long-item", "c"}

	assert.Equal(t, []string{"a", "a-very-long-item", "b", "c"}, collect(t, e, values))
	assert.Equal(t, 3, e.Stats().Runs)
}

func TestExternalSortWithinDescriptorBudget(t *testing.T) {
	opts := testOptions(t, 1000, 2000, 3)
	opts.ReadBufferSize = 512

	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], opts)
	values := randomUint64s(10_000)

	assert.Equal(t, sortedCopy(values), collect(t, e, values))

	stats := e.Stats()
	assert.Equal(t, ModeExternal, stats.Mode)
	assert.Equal(t, int64(10_000), stats.Items)
	assert.GreaterOrEqual(t, stats.Runs, 5)
	assert.LessOrEqual(t, stats.PeakOpenFiles, 3)
	assert.Positive(t, stats.Evictions)
	assert.Positive(t, stats.Reopens)

	_, err := os.Stat(stats.TempDir)
	assert.True(t, os.IsNotExist(err), "temporary directory should be removed")
}

func TestSortWithCompression(t *testing.T) {
	tests := []struct {
		codec options.CompressionCodec
		level int
	}{
		{options.CompressionGzip, 6},
		{options.CompressionZstd, 3},
		{options.CompressionLZ4, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.codec), func(t *testing.T) {
			opts := testOptions(t, 256, 512, 2)
			opts.Compression = &options.CompressionOptions{Codec: tt.codec, Level: tt.level}

			e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], opts)
			values := randomUint64s(2_000)

			assert.Equal(t, sortedCopy(values), collect(t, e, values))
			assert.LessOrEqual(t, e.Stats().PeakOpenFiles, 2)
		})
	}
}

func TestSortIsStable(t *testing.T) {
	type record struct {
		key int
		seq int
	}

	cd := codec.Func[record]{
		MarshalFunc: func(r record) ([]byte, error) {
			buf := binary.BigEndian.AppendUint32(nil, uint32(r.key))
			return binary.BigEndian.AppendUint32(buf, uint32(r.seq)), nil
		},
		UnmarshalFunc: func(data []byte) (record, error) {
			return record{
				key: int(binary.BigEndian.Uint32(data[:4])),
				seq: int(binary.BigEndian.Uint32(data[4:])),
			}, nil
		},
	}
	byKey := func(a, b record) int { return cmp.Compare(a.key, b.key) }

	values := make([]record, 300)
	for i := range values {
		values[i] = record{key: i % 7, seq: i}
	}
	want := slices.Clone(values)
	slices.SortStableFunc(want, byKey)

	for _, memSize := range []int64{0, 1 << 20} {
		t.Run(fmt.Sprintf("MemSize%d", memSize), func(t *testing.T) {
			e := New[record](cd, byKey, testOptions(t, memSize, 64, 3))
			assert.Equal(t, want, collect(t, e, values))
		})
	}
}

func TestSortIsRepeatable(t *testing.T) {
	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 16, 64, 2))
	values := randomUint64s(100)
	seq := e.Sort(context.Background(), slices.Values(values))

	for range 2 {
		var out []uint64
		for v, err := range seq {
			require.NoError(t, err)
			out = append(out, v)
		}
		assert.Equal(t, sortedCopy(values), out)
	}
}

func TestEarlyStopReleasesResources(t *testing.T) {
	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 64, 128, 2))
	values := randomUint64s(1_000)

	var got []uint64
	for v, err := range e.Sort(context.Background(), slices.Values(values)) {
		require.NoError(t, err)
		got = append(got, v)
		if len(got) == 5 {
			break
		}
	}

	assert.Equal(t, sortedCopy(values)[:5], got)

	stats := e.Stats()
	require.NotEmpty(t, stats.TempDir)
	_, err := os.Stat(stats.TempDir)
	assert.True(t, os.IsNotExist(err), "temporary directory should be removed")
}

func TestMergeDiscardsDrainedRuns(t *testing.T) {
	tests := []struct {
		name     string
		take     int
		leftover bool
	}{
		{"FullDrain", 0, false},
		{"EarlyStop", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			opts := testOptions(t, 64, 128, 2)
			opts.Logger = zap.New(core).Sugar()

			e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], opts)

			taken := 0
			for _, err := range e.Sort(context.Background(), slices.Values(randomUint64s(1_000))) {
				require.NoError(t, err)
				taken++
				if tt.take > 0 && taken == tt.take {
					break
				}
			}

			stats := e.Stats()
			assert.Equal(t, 63, stats.Runs)

			discarded := logs.FilterMessage("Run discarded").Len()
			unmerged := logs.FilterMessage("Removing unmerged runs").AllUntimed()

			if !tt.leftover {
				assert.Equal(t, stats.Runs, discarded)
				assert.Empty(t, unmerged)
				return
			}

			require.Len(t, unmerged, 1)
			fields := unmerged[0].ContextMap()
			assert.Equal(t, int64(stats.Runs-discarded), fields["runs"])
			assert.Equal(t, int64(0), fields["unregistered"])
		})
	}
}

func TestCanceledDuringMerge(t *testing.T) {
	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 64, 128, 2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		count   int
		lastErr error
	)
	for _, err := range e.Sort(ctx, slices.Values(randomUint64s(1_000))) {
		if err != nil {
			lastErr = err
			break
		}
		count++
		cancel()
	}

	assert.Equal(t, 1, count)
	require.Error(t, lastErr)
	assert.ErrorIs(t, lastErr, context.Canceled)

	sortErr, ok := errors.AsSortError(lastErr)
	require.True(t, ok)
	assert.Equal(t, errors.ErrSystemCanceled, sortErr.Code())
	assert.Equal(t, "merge", sortErr.Phase())

	_, err := os.Stat(e.Stats().TempDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCanceledBeforeStart(t *testing.T) {
	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], testOptions(t, 64, 128, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for v, err := range e.Sort(ctx, slices.Values([]uint64{3, 2, 1})) {
		assert.Zero(t, v)
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.True(t, errors.HasCode(errs[0], errors.ErrSystemCanceled))
}

func TestSerializationFailure(t *testing.T) {
	failing := codec.Func[int]{
		MarshalFunc: func(v int) ([]byte, error) {
			if v == 13 {
				return nil, fmt.Errorf("unlucky number")
			}
			return binary.BigEndian.AppendUint64(nil, uint64(v)), nil
		},
		UnmarshalFunc: func(data []byte) (int, error) {
			return int(binary.BigEndian.Uint64(data)), nil
		},
	}

	tests := []struct {
		name    string
		memSize int64
		phase   string
	}{
		{"Buffering", 1 << 20, "buffer"},
		{"Partitioning", 16, "partition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New[int](failing, cmp.Compare[int], testOptions(t, tt.memSize, 32, 2))

			var lastErr error
			for _, err := range e.Sort(context.Background(), slices.Values([]int{20, 5, 7, 1, 13, 2})) {
				if err != nil {
					lastErr = err
				}
			}

			sortErr, ok := errors.AsSortError(lastErr)
			require.True(t, ok)
			assert.Equal(t, errors.ErrRecordSerialization, sortErr.Code())
			assert.Equal(t, tt.phase, sortErr.Phase())
			assert.Equal(t, int64(5), sortErr.Items())
		})
	}
}

func TestTempDirFailure(t *testing.T) {
	opts := testOptions(t, 0, 64, 2)
	opts.TempDir = filepath.Join(opts.TempDir, "not-a-dir")
	require.NoError(t, os.WriteFile(opts.TempDir, []byte("x"), 0644))

	e := New[uint64](codec.Uint64{}, cmp.Compare[uint64], opts)

	var lastErr error
	for _, err := range e.Sort(context.Background(), slices.Values([]uint64{1, 2})) {
		lastErr = err
	}

	storageErr, ok := errors.AsStorageError(lastErr)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTempDirCreateFailed, storageErr.Code())
	assert.Equal(t, opts.TempDir, storageErr.Path())
}

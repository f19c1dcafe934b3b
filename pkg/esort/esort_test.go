package esort

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/iamBelugaa/esort/pkg/codec"
	"github.com/iamBelugaa/esort/pkg/errors"
	"github.com/iamBelugaa/esort/pkg/options"
)

func TestSorterSortsBothPaths(t *testing.T) {
	values := []int64{5, -3, 12, 0, -99, 42, 7, 7, -1}
	want := slices.Clone(values)
	slices.Sort(want)

	tests := []struct {
		name    string
		memSize int64
		mode    Mode
	}{
		{"Memory", 1 << 20, ModeMemory},
		{"External", 16, ModeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New[int64](
				codec.Int64{}, cmp.Compare[int64],
				options.WithTempDir(t.TempDir()),
				options.WithMemSize(tt.memSize),
				options.WithFileSize(24),
				options.WithMaxOpenFiles(2),
				options.WithLogger(zaptest.NewLogger(t).Sugar()),
			)
			require.NoError(t, err)

			got, err := Collect(s.Sort(context.Background(), slices.Values(values)))
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, tt.mode, s.Stats().Mode)
		})
	}
}

func TestSortedWithKeyAndProtoCodec(t *testing.T) {
	words := []string{"pear", "fig", "banana", "kiwi", "apple", "date"}
	items := make([]*wrapperspb.StringValue, len(words))
	for i, w := range words {
		items[i] = wrapperspb.String(w)
	}

	byLength := ByKey(func(v *wrapperspb.StringValue) int { return len(v.GetValue()) })
	seq := Sorted(
		context.Background(), slices.Values(items),
		codec.NewProto(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }),
		byLength,
		options.WithTempDir(t.TempDir()),
		options.WithMemSize(0),
		options.WithFileSize(12),
		options.WithCompression(options.CompressionZstd, 3),
	)

	got, err := Collect(seq)
	require.NoError(t, err)

	var out []string
	for _, v := range got {
		out = append(out, v.GetValue())
	}
	assert.Equal(t, []string{"fig", "pear", "kiwi", "date", "apple", "banana"}, out)
}

func TestSortedYieldsConfigurationError(t *testing.T) {
	seq := Sorted(context.Background(), slices.Values([]string{"b", "a"}), codec.String{}, strings.Compare,
		options.WithFileSize(0),
	)

	got, err := Collect(seq)
	assert.Empty(t, got)

	validationErr, ok := errors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "fileSize", validationErr.Field())
}

func TestReverse(t *testing.T) {
	s, err := New(codec.String{}, Reverse(strings.Compare), options.WithTempDir(t.TempDir()), options.WithMemSize(0))
	require.NoError(t, err)

	got, err := Collect(s.Sort(context.Background(), slices.Values([]string{"b", "c", "a"})))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestOptionsReturnsCopy(t *testing.T) {
	s, err := New(codec.String{}, strings.Compare, options.WithCompression(options.CompressionGzip, 5))
	require.NoError(t, err)

	opts := s.Options()
	opts.Compression.Level = 1
	assert.Equal(t, 5, s.Options().Compression.Level)
}

func TestCollectStopsAtError(t *testing.T) {
	boom := errors.NewSortError(nil, errors.ErrSystemInternal, "boom")
	var seq iter.Seq2[int, error] = func(yield func(int, error) bool) {
		if !yield(1, nil) {
			return
		}
		if !yield(0, boom) {
			return
		}
		yield(3, nil)
	}

	got, err := Collect(seq)
	assert.Equal(t, []int{1}, got)
	assert.Same(t, boom, err)
}

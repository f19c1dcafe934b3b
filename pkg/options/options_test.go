package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func apply(opts ...OptionFunc) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()

	assert.Equal(t, DefaultMemSize, o.MemSize)
	assert.Equal(t, DefaultFileSize, o.FileSize)
	assert.Equal(t, DefaultMaxOpenFiles, o.MaxOpenFiles)
	assert.Equal(t, DefaultRunPrefix, o.RunPrefix)
	require.NotNil(t, o.Compression)
	assert.False(t, o.Compression.Enabled())
	assert.NotNil(t, o.Log())
}

func TestDefaultOptionsAreIndependentCopies(t *testing.T) {
	a := DefaultOptions()
	a.Compression.Codec = CompressionZstd

	b := DefaultOptions()
	assert.Equal(t, CompressionNone, b.Compression.Codec)
}

func TestOptionFuncs(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	o := apply(
		WithTempDir("  /tmp/sort  "),
		WithMemSize(1000),
		WithFileSize(2000),
		WithMaxOpenFiles(3),
		WithReadBufferSize(64),
		WithRunPrefix("bucket"),
		WithCompression(CompressionGzip, 6),
		WithLogger(log),
	)

	assert.Equal(t, "/tmp/sort", o.TempDir)
	assert.Equal(t, int64(1000), o.MemSize)
	assert.Equal(t, int64(2000), o.FileSize)
	assert.Equal(t, 3, o.MaxOpenFiles)
	assert.Equal(t, 64, o.ReadBufferSize)
	assert.Equal(t, "bucket", o.RunPrefix)
	assert.True(t, o.Compression.Enabled())
	assert.Equal(t, 6, o.Compression.Level)
	assert.Same(t, log, o.Log())
}

func TestBlankStringsKeepDefaults(t *testing.T) {
	o := apply(WithTempDir("   "), WithRunPrefix(""))
	assert.Equal(t, "", o.TempDir)
	assert.Equal(t, DefaultRunPrefix, o.RunPrefix)
}

func TestWithDefaultOptionsKeepsLogger(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	o := apply(WithLogger(log), WithMemSize(1), WithDefaultOptions())
	assert.Equal(t, DefaultMemSize, o.MemSize)
	assert.Same(t, log, o.Logger)
}

func TestWithMemoryFraction(t *testing.T) {
	o := apply(WithMemSize(5), WithMemoryFraction(0))
	assert.Equal(t, int64(5), o.MemSize, "out of range fraction is ignored")

	o = apply(WithMemSize(5), WithMemoryFraction(0.01))
	assert.NotEqual(t, int64(0), o.MemSize)
}

func TestOpenFilesLimit(t *testing.T) {
	limit := OpenFilesLimit()
	assert.GreaterOrEqual(t, limit, 0)
	assert.LessOrEqual(t, limit, MaxMaxOpenFiles)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.50 KB"},
		{16 * 1024 * 1024, "16 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}

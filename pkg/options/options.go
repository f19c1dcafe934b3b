// Package options provides data structures and functions for configuring an external sort.
package options

import (
	"fmt"
	"math"
	"strings"

	"github.com/pbnjay/memory"
	"go.uber.org/zap"
)

// CompressionCodec names the filter spilled runs are written through.
type CompressionCodec string

const (
	CompressionNone CompressionCodec = "none"
	CompressionGzip CompressionCodec = "gzip"
	CompressionZstd CompressionCodec = "zstd"
	CompressionLZ4  CompressionCodec = "lz4"
)

// Defines how spilled run files are compressed.
type CompressionOptions struct {
	// Codec used for run files.
	//
	// Default: "none"
	Codec CompressionCodec `json:"codec"`

	// Codec specific level. Zero selects the codec's default.
	//
	//  - gzip: 1 (speed) .. 9 (size)
	//  - zstd: 1 .. 22, mapped onto the encoder's speed tiers
	//  - lz4:  1 .. 9
	Level int `json:"level"`
}

// Enabled reports whether runs are written through a compressor.
func (c *CompressionOptions) Enabled() bool {
	return c != nil && c.Codec != "" && c.Codec != CompressionNone
}

// Defines the configuration parameters for a sort.
type Options struct {
	// Base directory in which each sort creates its private temporary directory.
	//
	// Default: os.TempDir()
	TempDir string `json:"tempDir"`

	// Serialized bytes buffered before the sort switches to external mode.
	// Zero forces external mode for any non-empty input.
	//
	// Default: 16MB
	MemSize int64 `json:"memSize"`

	// Serialized bytes per spilled run, measured before compression.
	//
	// Default: 128KB
	FileSize int64 `json:"fileSize"`

	// Ceiling on run files held open at once during the merge.
	//
	// Default: 17
	MaxOpenFiles int `json:"maxOpenFiles"`

	// Size of the in-memory read buffer kept per run during the merge.
	//
	// Default: 32KB
	ReadBufferSize int `json:"readBufferSize"`

	// Filename prefix for run files.
	// Final filename will be: `prefix_runId.run`
	//
	// Default: "run"
	RunPrefix string `json:"runPrefix"`

	// Configures compression of run files.
	Compression *CompressionOptions `json:"compression"`

	// Logger receives progress and diagnostics. Nil means no logging.
	Logger *zap.SugaredLogger `json:"-"`
}

type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		logger := o.Logger
		*o = DefaultOptions()
		o.Logger = logger
	}
}

// Sets the base directory for temporary run directories.
func WithTempDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.TempDir = directory
		}
	}
}

// Sets the in-memory threshold in serialized bytes.
func WithMemSize(size int64) OptionFunc {
	return func(o *Options) {
		o.MemSize = size
	}
}

// Sets the in-memory threshold as a fraction of physical memory.
// Ignored when the fraction is outside (0, 1] or the total cannot be determined.
func WithMemoryFraction(fraction float64) OptionFunc {
	return func(o *Options) {
		if fraction <= 0 || fraction > 1 {
			return
		}

		total := memory.TotalMemory()
		if total == 0 {
			return
		}

		size := fraction * float64(total)
		if size > math.MaxInt64 {
			size = math.MaxInt64
		}
		o.MemSize = int64(size)
	}
}

// Sets the per-run threshold in serialized bytes.
func WithFileSize(size int64) OptionFunc {
	return func(o *Options) {
		o.FileSize = size
	}
}

// Sets the ceiling on simultaneously open run files.
func WithMaxOpenFiles(n int) OptionFunc {
	return func(o *Options) {
		o.MaxOpenFiles = n
	}
}

// Sets the per-run read buffer size.
func WithReadBufferSize(size int) OptionFunc {
	return func(o *Options) {
		o.ReadBufferSize = size
	}
}

// Sets the file name prefix for run files.
func WithRunPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.RunPrefix = prefix
		}
	}
}

// Sets the compression codec and level for run files.
func WithCompression(codec CompressionCodec, level int) OptionFunc {
	return func(o *Options) {
		o.Compression = &CompressionOptions{Codec: codec, Level: level}
	}
}

// Sets the logger used by the sort and its pools.
func WithLogger(log *zap.SugaredLogger) OptionFunc {
	return func(o *Options) {
		o.Logger = log
	}
}

// Log returns the configured logger or a no-op logger.
func (o *Options) Log() *zap.SugaredLogger {
	if o.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return o.Logger
}

// FormatBytes converts byte count to human-readable format for error messages.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	var units = []string{"B", "KB", "MB", "GB", "TB"}

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	exp := 0
	value := float64(bytes)

	for value >= unit && exp < len(units)-1 {
		value /= unit
		exp++
	}

	if math.Abs(value-math.Round(value)) < 0.01 {
		return fmt.Sprintf("%.0f %s", math.Round(value), units[exp])
	}
	return fmt.Sprintf("%.2f %s", value, units[exp])
}

package storage

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/iamBelugaa/esort/pkg/options"
)

var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// newCompressor wraps w in the configured codec. Closing the result flushes it
// but leaves w open.
func newCompressor(w io.Writer, opts *options.CompressionOptions) (io.WriteCloser, error) {
	switch opts.Codec {
	case options.CompressionGzip:
		level := opts.Level
		if level == 0 {
			level = gzip.DefaultCompression
		}
		return gzip.NewWriterLevel(w, level)

	case options.CompressionZstd:
		level := zstd.SpeedDefault
		if opts.Level != 0 {
			level = zstd.EncoderLevelFromZstd(opts.Level)
		}
		return zstd.NewWriter(w, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))

	case options.CompressionLZ4:
		if opts.Level < 0 || opts.Level >= len(lz4Levels) {
			return nil, fmt.Errorf("lz4 level %d out of range [0, %d]", opts.Level, len(lz4Levels)-1)
		}
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[opts.Level])); err != nil {
			return nil, err
		}
		return zw, nil
	}

	return nil, fmt.Errorf("unsupported compression codec %q", opts.Codec)
}

// newDecompressor is the read side of newCompressor. Closing it leaves r open.
func newDecompressor(r io.Reader, opts *options.CompressionOptions) (io.ReadCloser, error) {
	switch opts.Codec {
	case options.CompressionGzip:
		return gzip.NewReader(r)

	case options.CompressionZstd:
		// A single decoder goroutine-free stream keeps reads on the caller's thread.
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil

	case options.CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}

	return nil, fmt.Errorf("unsupported compression codec %q", opts.Codec)
}

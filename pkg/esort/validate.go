package esort

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/iamBelugaa/esort/pkg/errors"
	"github.com/iamBelugaa/esort/pkg/options"
)

var compressionLevels = map[options.CompressionCodec][2]int{
	options.CompressionNone: {0, 0},
	options.CompressionGzip: {-3, 9},
	options.CompressionZstd: {0, 22},
	options.CompressionLZ4:  {0, 9},
}

func validateOptions(opts *options.Options, log *zap.SugaredLogger) error {
	if opts.MemSize < 0 {
		return errors.NewFieldRangeError("memSize", opts.MemSize, 0, "unbounded").
			WithMessage(fmt.Sprintf("Memory threshold must not be negative, got %d", opts.MemSize))
	}

	if opts.FileSize < options.MinFileSize {
		return errors.NewFieldRangeError("fileSize", opts.FileSize, options.MinFileSize, "unbounded").
			WithMessage(fmt.Sprintf("Run size threshold must be at least %d byte, got %d", options.MinFileSize, opts.FileSize))
	}

	if opts.MaxOpenFiles < options.MinMaxOpenFiles || opts.MaxOpenFiles > options.MaxMaxOpenFiles {
		return errors.NewFieldRangeError(
			"maxOpenFiles", opts.MaxOpenFiles, options.MinMaxOpenFiles, options.MaxMaxOpenFiles,
		)
	}

	if limit := options.OpenFilesLimit(); limit > 0 && opts.MaxOpenFiles > limit {
		log.Warnw(
			"Requested open file ceiling exceeds the process limit, clamping",
			"requested", opts.MaxOpenFiles,
			"limit", limit,
		)
		opts.MaxOpenFiles = limit
	}

	if opts.ReadBufferSize < options.MinReadBufferSize || opts.ReadBufferSize > options.MaxReadBufferSize {
		return errors.NewFieldRangeError(
			"readBufferSize", opts.ReadBufferSize, options.MinReadBufferSize, options.MaxReadBufferSize,
		).
			WithMessage(
				fmt.Sprintf(
					"Read buffer size %s is outside the allowed range of %s to %s",
					options.FormatBytes(uint64(max(opts.ReadBufferSize, 0))),
					options.FormatBytes(uint64(options.MinReadBufferSize)),
					options.FormatBytes(uint64(options.MaxReadBufferSize)),
				),
			)
	}

	if opts.RunPrefix == "" {
		return errors.NewRequiredFieldError("runPrefix")
	}

	return validateCompression(opts.Compression)
}

func validateCompression(compression *options.CompressionOptions) error {
	if compression == nil || compression.Codec == "" {
		return nil
	}

	bounds, ok := compressionLevels[compression.Codec]
	if !ok {
		return errors.NewValidationError(
			nil, errors.ErrValidationInvalidData,
			fmt.Sprintf("Unsupported compression codec %q", compression.Codec),
		).
			WithField("compression.codec").
			WithProvided(compression.Codec).
			WithExpected("none, gzip, zstd or lz4")
	}

	if compression.Level < bounds[0] || compression.Level > bounds[1] {
		return errors.NewFieldRangeError("compression.level", compression.Level, bounds[0], bounds[1]).
			WithDetail("codec", compression.Codec)
	}

	return nil
}

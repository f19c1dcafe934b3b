package options

const (
	DefaultMemSize  int64 = 16 * 1024 * 1024
	DefaultFileSize int64 = 128 * 1024

	// Taken from GNU sort's fallback when getrlimit is unavailable.
	DefaultMaxOpenFiles int = 17
	MinMaxOpenFiles     int = 1
	MaxMaxOpenFiles     int = 1 << 16

	MinFileSize int64 = 1

	DefaultReadBufferSize int = 32 * 1024
	MinReadBufferSize     int = 16
	MaxReadBufferSize     int = 16 * 1024 * 1024

	DefaultRunPrefix string = "run"

	// Upper bound for a single serialized item; guards reads of corrupted length prefixes.
	MaxRecordSize uint64 = 256 * 1024 * 1024

	// Descriptors kept back from RLIMIT_NOFILE for stdio, the run being written and the caller.
	reservedDescriptors uint64 = 8
)

var defaultOptions = Options{
	TempDir:        "",
	MemSize:        DefaultMemSize,
	FileSize:       DefaultFileSize,
	MaxOpenFiles:   DefaultMaxOpenFiles,
	ReadBufferSize: DefaultReadBufferSize,
	RunPrefix:      DefaultRunPrefix,
	Compression: &CompressionOptions{
		Codec: CompressionNone,
		Level: 0,
	},
}

// DefaultOptions returns a copy of the default configuration.
func DefaultOptions() Options {
	opts := defaultOptions
	compression := *defaultOptions.Compression
	opts.Compression = &compression
	return opts
}

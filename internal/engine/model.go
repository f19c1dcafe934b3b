package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iamBelugaa/esort/internal/storage"
	"github.com/iamBelugaa/esort/pkg/codec"
	"github.com/iamBelugaa/esort/pkg/options"
)

// Mode is the strategy a sort ended up using.
type Mode string

const (
	ModeMemory   Mode = "memory"
	ModeExternal Mode = "external"
)

// Stats describes the most recent sort run by an Engine.
type Stats struct {
	Mode          Mode          `json:"mode"`
	Items         int64         `json:"items"`         // Input items consumed.
	Runs          int           `json:"runs"`          // Run files written.
	PayloadBytes  int64         `json:"payloadBytes"`  // Serialized bytes spilled to runs.
	DiskBytes     int64         `json:"diskBytes"`     // Bytes written to run files, after framing and compression.
	PeakOpenFiles int           `json:"peakOpenFiles"` // Most run descriptors open at once, writes included.
	Opens         int64         `json:"opens"`         // Read descriptors opened during the merge.
	Reopens       int64         `json:"reopens"`       // Opens that resumed an evicted run.
	Evictions     int64         `json:"evictions"`     // Descriptors closed to respect MaxOpenFiles.
	TempDir       string        `json:"tempDir"`       // Directory runs were written to; removed when the sort ends.
	Duration      time.Duration `json:"duration"`
}

// Engine sorts sequences of T within the memory and descriptor budget of its options.
type Engine[T any] struct {
	mu      sync.Mutex
	stats   Stats
	codec   codec.Codec[T]
	compare func(a, b T) int
	options *options.Options
	log     *zap.SugaredLogger
}

// entry is an input item together with its encoding, once computed.
type entry[T any] struct {
	item  T
	data  []byte
	sized bool
}

// head is the current smallest unread item of one run during the merge.
type head[T any] struct {
	item   T
	runID  int
	run    *storage.Run
	cursor *storage.Cursor
}

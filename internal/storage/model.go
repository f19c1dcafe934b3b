package storage

import (
	"bufio"
	"io"

	"go.uber.org/zap"

	"github.com/iamBelugaa/esort/internal/index"
	"github.com/iamBelugaa/esort/internal/storage/filepool"
	"github.com/iamBelugaa/esort/pkg/checksum"
	"github.com/iamBelugaa/esort/pkg/options"
)

// RecordHeader precedes every payload in a run file.
//
// On disk: Checksum as 4 bytes little-endian, then PayloadSize as a uvarint.
type RecordHeader struct {
	Checksum    uint32 // CRC32C of the payload.
	PayloadSize uint64 // Length of the payload in bytes.
}

// Writer spills sorted chunks into run files inside one directory.
type Writer struct {
	dir         string
	nextID      int
	options     *options.Options
	log         *zap.SugaredLogger
	index       *index.Index
	files       *filepool.FilePool
	checksummer *checksum.CRC32C
}

// Run is one completely written, sorted run file.
type Run struct {
	*index.RunPointer
	files       *filepool.FilePool
	options     *options.Options
	log         *zap.SugaredLogger
	checksummer *checksum.CRC32C
}

// Cursor reads the records of a run in order.
type Cursor struct {
	run     *Run
	done    bool
	records int64
	buf     []byte
	file    *filepool.File
	decomp  io.ReadCloser
	reader  *bufio.Reader
}

package filepool

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/iamBelugaa/esort/internal/pool"
)

// fileState is the logical read state of a registered path. It outlives the
// OS handle: file is nil whenever the pool has evicted the path.
type fileState struct {
	path   string
	file   *os.File
	offset int64 // Bytes delivered to readers so far; where a reopen seeks to.
	eof    bool
}

// Stats describes descriptor usage of a FilePool.
type Stats struct {
	Opens     int64 // Read descriptors opened, reopens included.
	Reopens   int64 // Opens that resumed at a non-zero offset after an eviction.
	Closes    int64 // Read descriptors closed, by eviction, end of file or Close.
	Evictions int64 // Descriptors closed to make room for another path.
	Creates   int64 // Write descriptors handed out by Create.
	Open      int   // Descriptors open right now, read and write.
	PeakOpen  int   // Highest value Open has reached.
}

// FilePool hands out readers over files whose descriptors are capped by a resource pool.
type FilePool struct {
	mu     sync.Mutex
	closed bool
	stats  Stats
	log    *zap.SugaredLogger
	files  map[string]*fileState
	pool   *pool.Pool[string, *fileState]
}

// File reads one registered path through its FilePool.
type File struct {
	fp    *FilePool
	state *fileState
}

// WriteFile is a descriptor created through a FilePool for the initial write of a file.
type WriteFile struct {
	*os.File
	fp     *FilePool
	closed bool
}

package index

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunPointer contains the metadata required to locate and account for one spilled run.
type RunPointer struct {
	ID           int       // ID is the run's sequence number within its sort.
	Path         string    // Path of the run file.
	Items        int64     // Items is the number of records in the run.
	PayloadBytes int64     // PayloadBytes is the serialized size of the items, before framing and compression.
	DiskBytes    int64     // DiskBytes is the size of the file as written.
	CreatedAt    time.Time // CreatedAt records when the run was completely written.
}

// Index keeps the runs of one sort in creation order.
type Index struct {
	mu    sync.RWMutex
	log   *zap.SugaredLogger
	order []int
	byID  map[int]*RunPointer
}

package index

import (
	"go.uber.org/zap"
)

func New(log *zap.SugaredLogger) *Index {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Index{
		log:  log,
		byID: make(map[int]*RunPointer),
	}
}

// Set registers a completely written run. Registering an ID again replaces its metadata.
func (idx *Index) Set(pointer *RunPointer) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byID[pointer.ID]; !ok {
		idx.order = append(idx.order, pointer.ID)
	}
	idx.byID[pointer.ID] = pointer
}

func (idx *Index) Get(id int) (*RunPointer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pointer, ok := idx.byID[id]
	return pointer, ok
}

func (idx *Index) Delete(id int) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byID[id]; !ok {
		return false
	}

	delete(idx.byID, id)
	for i, v := range idx.order {
		if v == id {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns the registered runs in creation order.
func (idx *Index) All() []*RunPointer {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	runs := make([]*RunPointer, 0, len(idx.order))
	for _, id := range idx.order {
		runs = append(runs, idx.byID[id])
	}
	return runs
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.order)
}

// Totals sums items, payload bytes and on-disk bytes over all runs.
func (idx *Index) Totals() (items, payloadBytes, diskBytes int64) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, rp := range idx.byID {
		items += rp.Items
		payloadBytes += rp.PayloadBytes
		diskBytes += rp.DiskBytes
	}
	return items, payloadBytes, diskBytes
}

func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.log.Debugw("Run index closed", "runs", len(idx.order))
	clear(idx.byID)
	idx.order = nil

	return nil
}

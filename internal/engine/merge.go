package engine

import "container/heap"

// Compile time check to ensure mergeHeap satisfies the heap interface.
var _ heap.Interface = (*mergeHeap[int])(nil)

// mergeHeap orders run heads by item, then by run ID so equal items leave in input order.
type mergeHeap[T any] struct {
	compare func(a, b T) int
	heads   []*head[T]
}

func (h *mergeHeap[T]) Len() int { return len(h.heads) }

func (h *mergeHeap[T]) Less(i, j int) bool {
	if c := h.compare(h.heads[i].item, h.heads[j].item); c != 0 {
		return c < 0
	}
	return h.heads[i].runID < h.heads[j].runID
}

func (h *mergeHeap[T]) Swap(i, j int) { h.heads[i], h.heads[j] = h.heads[j], h.heads[i] }

func (h *mergeHeap[T]) Push(x any) { h.heads = append(h.heads, x.(*head[T])) }

func (h *mergeHeap[T]) Pop() any {
	old := h.heads
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // Avoid memory leak
	h.heads = old[:n-1]
	return item
}

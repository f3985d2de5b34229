package sim

import (
	"sync"

	"github.com/go-theft-craft/dynlights/internal/dynlight/section"
)

// RebuildQueue collects chunk section rebuild requests until a renderer
// drains them. Duplicate requests collapse.
type RebuildQueue struct {
	mu      sync.Mutex
	pending section.Set
	total   int
}

// NewRebuildQueue returns an empty queue.
func NewRebuildQueue() *RebuildQueue {
	return &RebuildQueue{pending: make(section.Set)}
}

func (q *RebuildQueue) ScheduleChunkRebuild(x, y, z int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending.Add(section.Pos{X: int32(x), Y: int32(y), Z: int32(z)})
	q.total++
}

// Drain returns the pending sections in order and empties the queue.
func (q *RebuildQueue) Drain() []section.Pos {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending.Sorted()
	clear(q.pending)
	return out
}

// Pending returns the number of distinct queued sections.
func (q *RebuildQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Total returns how many requests were received, duplicates included.
func (q *RebuildQueue) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}

package core

// DeletionQueue collects release functions in creation order and runs them
// in reverse when flushed, so teardown order follows construction order
// without being maintained by hand.
type DeletionQueue struct {
	deletors []func()
}

// Push registers fn to run on the next Flush.
func (dq *DeletionQueue) Push(fn func()) {
	dq.deletors = append(dq.deletors, fn)
}

// Flush runs every registered function, last pushed first, and empties the
// queue. Flushing an empty queue is a no-op.
func (dq *DeletionQueue) Flush() {
	for i := len(dq.deletors) - 1; i >= 0; i-- {
		dq.deletors[i]()
	}
	dq.deletors = nil
}

// Len returns the number of pending release functions.
func (dq *DeletionQueue) Len() int {
	return len(dq.deletors)
}

package reactive

import "sync"

var batchState struct {
	mu      sync.Mutex
	depth   int
	pending []Listener
}

// Batch groups signal notifications: listeners notified while fn runs are
// collected, deduplicated and marked dirty once when the outermost batch
// completes.
//
// Example:
//
//	reactive.Batch(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
func Batch(fn func()) {
	batchState.mu.Lock()
	batchState.depth++
	batchState.mu.Unlock()

	defer func() {
		batchState.mu.Lock()
		batchState.depth--
		var pending []Listener
		if batchState.depth == 0 {
			pending = batchState.pending
			batchState.pending = nil
		}
		batchState.mu.Unlock()

		if pending != nil {
			markDirty(pending)
		}
	}()

	fn()
}

// deliver marks subs dirty now, or queues them when a batch is open.
func deliver(subs []Listener) {
	batchState.mu.Lock()
	if batchState.depth > 0 {
		batchState.pending = append(batchState.pending, subs...)
		batchState.mu.Unlock()
		return
	}
	batchState.mu.Unlock()

	markDirty(subs)
}

func markDirty(subs []Listener) {
	seen := make(map[uint64]bool, len(subs))
	for _, l := range subs {
		id := l.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		l.MarkDirty()
	}
}

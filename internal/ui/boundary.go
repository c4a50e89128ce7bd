package ui

// cursorBoundary implements feed.BoundaryWatcher for a terminal list: the
// "sentinel" is visible when the cursor moves into the last threshold rows.
// Edge-triggered - the callback fires once on entry, and re-arms only after
// the cursor leaves the region (or new pages push the boundary away).
type cursorBoundary struct {
	threshold int
	onVisible func()
	inside    bool
}

func newCursorBoundary(threshold int) *cursorBoundary {
	if threshold < 1 {
		threshold = 1
	}
	return &cursorBoundary{threshold: threshold}
}

// Observe implements feed.BoundaryWatcher.
func (b *cursorBoundary) Observe(onVisible func()) (detach func()) {
	b.onVisible = onVisible
	b.inside = false
	return func() {
		b.onVisible = nil
		b.inside = false
	}
}

// update is called after every cursor move or list change.
func (b *cursorBoundary) update(cursor, total int) {
	if b.onVisible == nil || total == 0 {
		b.inside = false
		return
	}
	near := cursor >= total-b.threshold
	if near && !b.inside {
		b.inside = true
		b.onVisible()
		return
	}
	if !near {
		b.inside = false
	}
}

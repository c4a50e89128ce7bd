package feed

// BoundaryWatcher notifies when a sentinel boundary becomes visible. It is
// a capability interface so the core's load-more wiring is testable without
// a real display surface: the terminal UI implements it with cursor
// position, a browser-style host would implement it with an
// IntersectionObserver equivalent.
//
// Observe registers the callback and returns a detach function. The signal
// is edge-triggered: implementations fire once per entry into the visible
// region, and the Pagination Controller's own in-flight guard makes even a
// misbehaving level-triggered implementation harmless.
type BoundaryWatcher interface {
	Observe(onVisible func()) (detach func())
}

// Trigger binds a BoundaryWatcher to a load-more intent. It re-attaches
// whenever the watcher or the callback identity changes and guarantees the
// previous observation is detached first, so a stale watcher can never
// invoke a callback against torn-down state.
type Trigger struct {
	detach func()
}

// NewTrigger returns an unattached Trigger.
func NewTrigger() *Trigger {
	return &Trigger{}
}

// Attach observes w with onVisible, detaching any previous observation
// first. Passing a nil watcher just detaches.
func (t *Trigger) Attach(w BoundaryWatcher, onVisible func()) {
	t.Detach()
	if w == nil || onVisible == nil {
		return
	}
	t.detach = w.Observe(onVisible)
}

// Detach removes the current observation, if any. Idempotent. Must be
// called on teardown.
func (t *Trigger) Detach() {
	if t.detach != nil {
		t.detach()
		t.detach = nil
	}
}

// Attached reports whether an observation is currently registered.
func (t *Trigger) Attached() bool {
	return t.detach != nil
}

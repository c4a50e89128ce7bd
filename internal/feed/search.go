package feed

import (
	"strings"
	"time"
)

// DefaultDebounce is the quiet period between the last keystroke and the
// search actually firing.
const DefaultDebounce = 300 * time.Millisecond

// Scheduled describes a pending debounced search. The consumer arms a
// timer for Delay and, when it fires, calls TimerFired with Seq. Only the
// most recently scheduled Seq is honored, so an armed timer is cancelled
// simply by scheduling (or cancelling) again; the old Seq dies unconsumed.
type Scheduled struct {
	Seq   uint64
	Delay time.Duration
}

// SearchController coalesces rapid keystrokes into a single delayed query.
// It owns at most one live schedule at a time. Like the Controller, it is
// single-goroutine: the consumer's event loop calls every method.
type SearchController struct {
	delay time.Duration

	seq     uint64
	pending string
	live    bool
}

// NewSearchController creates a SearchController with the given quiet
// period; zero or negative means DefaultDebounce.
func NewSearchController(delay time.Duration) *SearchController {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &SearchController{delay: delay}
}

// OnQueryTextChanged handles one keystroke's worth of text. Any pending
// schedule is cancelled unconditionally first. Empty (or all-space) text
// returns nil: the caller must clear results synchronously, no remote call
// is made. Otherwise a new schedule replaces the old one.
func (s *SearchController) OnQueryTextChanged(text string) *Scheduled {
	s.Cancel()
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	s.seq++
	s.pending = text
	s.live = true
	return &Scheduled{Seq: s.seq, Delay: s.delay}
}

// OnSubmit handles an explicit submit (Enter). The pending schedule is
// cancelled and the trimmed text is returned for immediate execution:
// a deliberate user action does not wait out the quiet period. Empty text
// means clear.
func (s *SearchController) OnSubmit(text string) string {
	s.Cancel()
	return strings.TrimSpace(text)
}

// TimerFired reports whether the schedule identified by seq is still the
// live one, consuming it if so. A false return means the schedule was
// superseded or cancelled after its timer was armed; the caller discards
// the firing.
func (s *SearchController) TimerFired(seq uint64) (query string, ok bool) {
	if !s.live || seq != s.seq {
		return "", false
	}
	s.live = false
	return s.pending, true
}

// Cancel drops any pending schedule. Safe to call at any time; callers
// must invoke it on teardown so an armed timer cannot fire into a
// consumer that is no longer listening.
func (s *SearchController) Cancel() {
	s.live = false
	s.pending = ""
}

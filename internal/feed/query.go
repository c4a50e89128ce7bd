package feed

// QueryKind distinguishes the two logical query shapes.
type QueryKind int

const (
	KindCategory QueryKind = iota
	KindSearch
)

func (k QueryKind) String() string {
	if k == KindSearch {
		return "search"
	}
	return "category"
}

// Descriptor is the logical identity of the current query: the category
// being browsed or the search term being looked up. A new descriptor
// invalidates every in-flight request issued for the previous one.
type Descriptor struct {
	Kind  QueryKind
	Value string
}

// Tracker issues monotonically increasing generation tokens per descriptor.
// A response is applied iff the token it carries is still current when it
// completes; anything else is discarded silently. This is the system's sole
// ordering mechanism; there are no locks to take and nothing is cancelled
// on the wire.
type Tracker struct {
	current uint64
	active  Descriptor
	started bool
}

// BeginQuery switches to the given descriptor. If it differs from the
// active one (or no query has started yet), the token is incremented and
// reset reports true: the caller must clear accumulated results and return
// to page 1. Re-issuing the active descriptor returns the current token
// with reset false.
func (t *Tracker) BeginQuery(d Descriptor) (token uint64, reset bool) {
	if t.started && d == t.active {
		return t.current, false
	}
	t.current++
	t.active = d
	t.started = true
	return t.current, true
}

// Bump invalidates all in-flight requests without changing the descriptor.
// Used by explicit refresh, where the same query is re-fetched from page 1.
func (t *Tracker) Bump() uint64 {
	t.current++
	return t.current
}

// IsCurrent reports whether a response carrying token may still be applied.
func (t *Tracker) IsCurrent(token uint64) bool {
	return token == t.current
}

// Token returns the current generation token, for tagging follow-up pages
// of the active query.
func (t *Tracker) Token() uint64 {
	return t.current
}

// Active returns the descriptor results are currently accumulated for.
func (t *Tracker) Active() Descriptor {
	return t.active
}

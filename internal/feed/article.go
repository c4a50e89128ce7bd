// Package feed implements the article feed synchronization core: paginated
// loading from the remote article service, generation-token staleness
// tracking, optimistic save/unsave mutations, debounced search, and the
// scroll-triggered load-more boundary.
//
// The package is presentation-free. Operations that need the network return
// a Cmd (a function producing a Msg); the consumer runs the Cmd on its event
// loop and feeds the resulting Msg back through Controller.Apply. All state
// transitions happen inside Apply, on a single goroutine, so staleness is
// resolved by token comparison rather than locks.
package feed

import (
	"sort"
	"time"
)

// Article is the client-side copy of a remote article. Only Saved is
// locally mutable; everything else is owned by the remote service.
type Article struct {
	ID              string
	Title           string
	Summary         string
	Category        string
	Source          string
	URL             string
	ImageURL        string
	Published       time.Time
	Saved           bool
	ViewCount       int
	ReadTimeMinutes int
}

// Category is a remote category with its article count.
type Category struct {
	Name  string
	Count int
}

// Normalize returns a new slice sorted by published time, newest first.
// Ties keep their input order (stable sort). The same function runs on
// every path that exposes articles (fresh pages and the saved view), so
// two code paths can never disagree about ordering. Pure: the input slice
// is not modified, and normalizing an already-sorted slice is a no-op.
func Normalize(articles []Article) []Article {
	out := make([]Article, len(articles))
	copy(out, articles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published.After(out[j].Published)
	})
	return out
}

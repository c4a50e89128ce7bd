package feed

import (
	"context"
	"fmt"

	"github.com/abelbrown/smartbrief/internal/otel"
)

// DefaultPageSize matches the remote service's default page size.
const DefaultPageSize = 20

// Options configures a Controller.
type Options struct {
	Client   Client
	Logger   *otel.Logger // optional
	PageSize int          // defaults to DefaultPageSize
	SortBy   string       // defaults to "publishedAt"
	SortOrd  string       // defaults to "desc"
}

// Controller owns the feed state: the accumulated article sequence, the
// pagination cursor, and the bookkeeping for optimistic saves. It is the
// only writer of that state. All methods must be called from a single
// goroutine (the UI event loop); the returned Cmds may run anywhere, but
// their Msgs must come back through Apply on that same goroutine.
type Controller struct {
	client Client
	log    *otel.Logger

	pageSize  int
	sortBy    string
	sortOrder string

	gen        Tracker
	articles   []Article
	categories []Category
	page       int
	hasMore    bool
	totalCount int
	loading    bool
	errText    string

	// lastCategory is where an abandoned search returns to.
	lastCategory string

	// saveSeq maps article ID to the sequence number of the most recently
	// issued toggle. Confirmations for older sequence numbers are ignored:
	// last write wins regardless of arrival order.
	saveSeq  map[string]uint64
	saveNext uint64
}

// New creates a Controller. The client is required.
func New(opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.SortBy == "" {
		// The service's sort_by parameter takes camelCase field names.
		opts.SortBy = "publishedAt"
	}
	if opts.SortOrd == "" {
		opts.SortOrd = "desc"
	}
	return &Controller{
		client:    opts.Client,
		log:       opts.Logger,
		pageSize:  opts.PageSize,
		sortBy:    opts.SortBy,
		sortOrder: opts.SortOrd,
		hasMore:   true,
		saveSeq:   make(map[string]uint64),
	}
}

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	Articles   []Article
	Saved      []Article // derived: saved subsequence, normalizer order
	Categories []Category
	Query      Descriptor
	Page       int
	HasMore    bool
	TotalCount int
	Loading    bool
	Err        string // empty means no surfaced error
}

// Snapshot returns the current derived state. The returned slices are
// copies; the presentation layer never aliases controller-owned memory.
func (c *Controller) Snapshot() Snapshot {
	articles := make([]Article, len(c.articles))
	copy(articles, c.articles)

	var saved []Article
	for _, a := range c.articles {
		if a.Saved {
			saved = append(saved, a)
		}
	}

	categories := make([]Category, len(c.categories))
	copy(categories, c.categories)

	return Snapshot{
		Articles:   articles,
		Saved:      Normalize(saved),
		Categories: categories,
		Query:      c.gen.Active(),
		Page:       c.page,
		HasMore:    c.hasMore,
		TotalCount: c.totalCount,
		Loading:    c.loading,
		Err:        c.errText,
	}
}

// SelectCategory switches the feed to the given category (empty string for
// all categories) and fetches its first page. Reselecting the active
// category is a no-op: an in-flight query for the same descriptor keeps
// its token. Any trailing responses for the previous descriptor become
// stale the moment this returns.
func (c *Controller) SelectCategory(name string) Cmd {
	d := Descriptor{Kind: KindCategory, Value: name}
	token, reset := c.gen.BeginQuery(d)
	if !reset {
		return nil
	}
	c.lastCategory = name
	c.resetResults()
	c.loading = true
	c.emit(otel.Event{Kind: otel.KindFeedSelect, Comp: "feed", Token: token, Category: name})
	return c.loadPage(token, d, 1)
}

// SearchNow issues a search query immediately. Callers normally go through
// SearchController so keystrokes are debounced; this is the shared endpoint
// for both the fired timer and an explicit submit. Empty text clears the
// search and returns to the last selected category.
func (c *Controller) SearchNow(text string) Cmd {
	if text == "" {
		return c.ClearSearch()
	}
	d := Descriptor{Kind: KindSearch, Value: text}
	token, reset := c.gen.BeginQuery(d)
	if !reset {
		return nil
	}
	c.resetResults()
	c.loading = true
	c.emit(otel.Event{Kind: otel.KindSearchFire, Comp: "feed", Token: token, Query: text})
	return c.loadPage(token, d, 1)
}

// ClearSearch abandons an active search and restores the last category.
// No-op when no search is active. No remote call is wasted on the cleared
// text: the category refetch carries a fresh token that invalidates any
// search response still in flight.
func (c *Controller) ClearSearch() Cmd {
	if !c.gen.started || c.gen.Active().Kind != KindSearch {
		return nil
	}
	return c.SelectCategory(c.lastCategory)
}

// Refresh re-fetches page 1 of the active query. The token is bumped so
// stragglers from before the refresh cannot land on top of the fresh page.
// Existing results stay visible until the new page arrives.
func (c *Controller) Refresh() Cmd {
	if !c.gen.started {
		return c.SelectCategory(c.lastCategory)
	}
	token := c.gen.Bump()
	c.loading = true
	return c.loadPage(token, c.gen.Active(), 1)
}

// LoadMore requests the next page of the active query. It is a silent
// no-op while a request is in flight or when the last page has been
// reached. That guard is what makes scroll-triggered fetching safe to
// invoke repeatedly.
func (c *Controller) LoadMore() Cmd {
	if c.loading || !c.hasMore || !c.gen.started {
		return nil
	}
	c.loading = true
	next := c.page + 1
	c.emit(otel.Event{Kind: otel.KindLoadMore, Comp: "feed", Token: c.gen.Token(), Page: next})
	return c.loadPage(c.gen.Token(), c.gen.Active(), next)
}

// ToggleSaved flips the saved flag for the given article immediately and
// returns a Cmd that confirms the new value with the remote service. The
// request carries the exact desired boolean; on failure Apply rolls the
// flag back. Unknown IDs are a no-op.
func (c *Controller) ToggleSaved(id string) Cmd {
	i := c.indexOf(id)
	if i < 0 {
		return nil
	}
	desired := !c.articles[i].Saved
	c.articles[i].Saved = desired

	c.saveNext++
	seq := c.saveNext
	c.saveSeq[id] = seq
	c.emit(otel.Event{Kind: otel.KindSaveToggle, Comp: "feed", Msg: fmt.Sprintf("%s -> %v", id, desired)})

	client := c.client
	return func(ctx context.Context) Msg {
		err := client.SetSaved(ctx, id, desired)
		return SaveResult{ID: id, Seq: seq, Saved: desired, Err: err}
	}
}

// LoadCategories fetches the remote category list with counts.
func (c *Controller) LoadCategories() Cmd {
	client := c.client
	return func(ctx context.Context) Msg {
		cats, err := client.ListCategories(ctx)
		return CategoriesLoaded{Categories: cats, Err: err}
	}
}

// Seed installs cached articles as the initial display before the first
// remote page arrives. Ignored once any query has started or results exist.
func (c *Controller) Seed(articles []Article) {
	if c.gen.started || len(c.articles) > 0 {
		return
	}
	c.articles = Normalize(dedupeByID(articles))
}

// Apply folds a completion Msg into the feed state. Must be called on the
// same goroutine as the intent methods.
func (c *Controller) Apply(msg Msg) {
	switch m := msg.(type) {
	case PageLoaded:
		c.applyPage(m)
	case SaveResult:
		c.applySave(m)
	case CategoriesLoaded:
		c.applyCategories(m)
	}
}

func (c *Controller) applyPage(m PageLoaded) {
	if !c.gen.IsCurrent(m.Token) {
		// Expected consequence of fast navigation, not a failure. The
		// current generation has its own request in flight, so loading
		// is deliberately left alone.
		c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPageStale, Comp: "feed", Token: m.Token, Page: m.Page})
		return
	}
	c.loading = false
	if m.Err != nil {
		// Existing results stay untouched.
		c.errText = "couldn't load articles: " + m.Err.Error()
		c.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindPageError, Comp: "feed", Token: m.Token, Page: m.Page, Err: m.Err.Error()})
		return
	}

	fresh := dedupeByID(m.Articles)
	if m.Page <= 1 {
		c.articles = Normalize(fresh)
	} else {
		seen := make(map[string]struct{}, len(c.articles))
		for _, a := range c.articles {
			seen[a.ID] = struct{}{}
		}
		merged := c.articles
		for _, a := range fresh {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			merged = append(merged, a)
		}
		c.articles = Normalize(merged)
	}

	c.page = m.Page
	c.totalCount = m.TotalCount
	c.hasMore = m.Page < m.TotalPages
	c.errText = ""
	c.emit(otel.Event{Kind: otel.KindPageLoad, Comp: "feed", Token: m.Token, Page: m.Page, Count: len(fresh)})
}

// ApplySave folds a save confirmation into the state and reports whether it
// was accepted. A confirmation superseded by a newer toggle for the same
// article is discarded and returns false; callers mirroring confirmed saves
// elsewhere (the local cache) must skip discarded ones, or a stale
// confirmation would overwrite the newer state the controller kept.
func (c *Controller) ApplySave(m SaveResult) bool {
	return c.applySave(m)
}

func (c *Controller) applySave(m SaveResult) bool {
	latest, ok := c.saveSeq[m.ID]
	if !ok || latest != m.Seq {
		// A newer toggle owns this article's flag; its own confirmation
		// governs the final state.
		return false
	}
	delete(c.saveSeq, m.ID)
	if m.Err == nil {
		return true
	}
	// Roll back the optimistic flip. The article may have been dropped by
	// a descriptor change in the meantime; then there is nothing to revert.
	if i := c.indexOf(m.ID); i >= 0 {
		c.articles[i].Saved = !m.Saved
	}
	c.errText = "couldn't update saved state: " + m.Err.Error()
	c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSaveRollback, Comp: "feed", Msg: m.ID, Err: m.Err.Error()})
	return true
}

func (c *Controller) applyCategories(m CategoriesLoaded) {
	if m.Err != nil {
		// Tabs fall back to the bare "all" view; not worth an error bar.
		c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindPageError, Comp: "feed", Err: m.Err.Error(), Msg: "categories"})
		return
	}
	c.categories = m.Categories
}

// ClearError dismisses a surfaced error message.
func (c *Controller) ClearError() {
	c.errText = ""
}

func (c *Controller) resetResults() {
	c.articles = nil
	c.page = 0
	c.hasMore = true
	c.totalCount = 0
	c.errText = ""
}

func (c *Controller) loadPage(token uint64, d Descriptor, page int) Cmd {
	client := c.client
	pageSize := c.pageSize
	sortBy, sortOrder := c.sortBy, c.sortOrder
	return func(ctx context.Context) Msg {
		var (
			p   *Page
			err error
		)
		switch d.Kind {
		case KindSearch:
			p, err = client.SearchArticles(ctx, d.Value, page, pageSize)
		default:
			p, err = client.ListArticles(ctx, ListQuery{
				Category:  d.Value,
				Page:      page,
				PageSize:  pageSize,
				SortBy:    sortBy,
				SortOrder: sortOrder,
			})
		}
		if err != nil {
			return PageLoaded{Token: token, Page: page, Err: fmt.Errorf("%s %q page %d: %w", d.Kind, d.Value, page, err)}
		}
		return PageLoaded{
			Token:      token,
			Page:       page,
			Articles:   p.Articles,
			TotalCount: p.TotalCount,
			TotalPages: p.TotalPages,
		}
	}
}

func (c *Controller) indexOf(id string) int {
	for i := range c.articles {
		if c.articles[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) emit(e otel.Event) {
	if c.log != nil {
		c.log.Emit(e)
	}
}

func dedupeByID(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

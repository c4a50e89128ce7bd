package feed

import "context"

// Msg is a completion event produced by running a Cmd. Concrete types are
// PageLoaded, SaveResult, and CategoriesLoaded. Consumers pass every Msg
// back through Controller.Apply.
type Msg interface{}

// Cmd is a deferred remote operation. The consumer decides when and where
// to run it (on a Bubble Tea command goroutine, in a test inline, in any
// order) and must deliver the returned Msg to Controller.Apply.
type Cmd func(ctx context.Context) Msg

// PageLoaded carries one page of results for the query generation that
// requested it. Applied only while Token is current.
type PageLoaded struct {
	Token      uint64
	Page       int
	Articles   []Article
	TotalCount int
	TotalPages int
	Err        error
}

// SaveResult confirms (or fails) one optimistic save toggle. Seq identifies
// which toggle this confirmation belongs to, so out-of-order arrivals
// resolve as last-write-wins. Saved is the exact boolean the request
// carried, never "toggle again".
type SaveResult struct {
	ID    string
	Seq   uint64
	Saved bool
	Err   error
}

// CategoriesLoaded carries the remote category list with counts.
type CategoriesLoaded struct {
	Categories []Category
	Err        error
}

// ListQuery is a paged article listing request.
type ListQuery struct {
	Category  string // empty means all categories
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Page is one page of remote results plus pagination metadata.
type Page struct {
	Articles   []Article
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

// Client is the remote article collection service as the core consumes it.
// Implemented by api.Client; tests substitute a scripted fake.
type Client interface {
	ListArticles(ctx context.Context, q ListQuery) (*Page, error)
	SearchArticles(ctx context.Context, query string, page, pageSize int) (*Page, error)
	ListCategories(ctx context.Context) ([]Category, error)
	SetSaved(ctx context.Context, id string, saved bool) error
}

// Package ui provides the Bubble Tea TUI for SmartBrief.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/smartbrief/internal/feed"
)

// Feed completion messages (feed.PageLoaded, feed.SaveResult,
// feed.CategoriesLoaded) travel through the Bubble Tea loop unchanged and
// are forwarded to the controller's Apply. The types below are UI-only.

// searchTickMsg is sent when a debounce timer fires. Seq identifies which
// schedule armed it; the SearchController decides whether it is still live.
type searchTickMsg struct {
	Seq uint64
}

// cacheLoadedMsg delivers locally cached articles for initial display.
type cacheLoadedMsg struct {
	Articles []feed.Article
	Err      error
}

// persistedMsg reports a background cache write. Failures are logged, never
// shown: the cache is best-effort.
type persistedMsg struct {
	Err error
}

// CacheLoaded wraps cached articles for delivery through the Bubble Tea
// loop. Used by the command functions injected via AppConfig.
func CacheLoaded(articles []feed.Article, err error) tea.Msg {
	return cacheLoadedMsg{Articles: articles, Err: err}
}

// Persisted wraps a cache write result.
func Persisted(err error) tea.Msg {
	return persistedMsg{Err: err}
}

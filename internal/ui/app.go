package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/smartbrief/internal/feed"
	"github.com/abelbrown/smartbrief/internal/otel"
)

// defaultBoundaryRows is how close to the bottom of the list the cursor
// must get before the next page is requested.
const defaultBoundaryRows = 5

// AppConfig wires the App to the feed core and its surroundings.
// IMPORTANT: App does NOT talk to the store or the HTTP client directly.
// Remote work arrives as feed messages; cache work goes through the
// injected command functions.
type AppConfig struct {
	Controller *feed.Controller
	Search     *feed.SearchController

	// InitialCategory is selected on startup; empty means all categories.
	InitialCategory string

	// LoadCache returns a Cmd producing cacheLoadedMsg with locally cached
	// articles. Optional.
	LoadCache func() tea.Cmd
	// PersistPage returns a Cmd that writes a fetched page to the cache.
	// Optional, best-effort.
	PersistPage func([]feed.Article) tea.Cmd
	// PersistSaved returns a Cmd that records a confirmed save toggle in
	// the cache. Optional, best-effort.
	PersistSaved func(id string, saved bool) tea.Cmd

	Ring   *otel.RingBuffer
	Logger *otel.Logger

	// BoundaryRows overrides defaultBoundaryRows; zero keeps the default.
	BoundaryRows int
}

// App is the root Bubble Tea model.
type App struct {
	ctrl     *feed.Controller
	search   *feed.SearchController
	trigger  *feed.Trigger
	boundary *cursorBoundary

	// queued collects commands produced by boundary callbacks during key
	// handling. Shared pointer so closures survive App value copies.
	queued *[]tea.Cmd

	initialCategory string
	loadCache       func() tea.Cmd
	persistPage     func([]feed.Article) tea.Cmd
	persistSaved    func(id string, saved bool) tea.Cmd

	ring *otel.RingBuffer
	log  *otel.Logger

	input     textinput.Model
	searching bool
	savedView bool
	showDebug bool

	cursor int
	width  int
	height int
	ready  bool
}

// NewApp creates the root model and attaches the load-more trigger.
func NewApp(cfg AppConfig) App {
	rows := cfg.BoundaryRows
	if rows <= 0 {
		rows = defaultBoundaryRows
	}

	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "search articles"
	input.CharLimit = 120

	queued := &[]tea.Cmd{}
	boundary := newCursorBoundary(rows)
	trigger := feed.NewTrigger()

	ctrl := cfg.Controller
	trigger.Attach(boundary, func() {
		if cmd := ctrl.LoadMore(); cmd != nil {
			*queued = append(*queued, runFeed(cmd))
		}
	})

	return App{
		ctrl:            ctrl,
		search:          cfg.Search,
		trigger:         trigger,
		boundary:        boundary,
		queued:          queued,
		initialCategory: cfg.InitialCategory,
		loadCache:       cfg.LoadCache,
		persistPage:     cfg.PersistPage,
		persistSaved:    cfg.PersistSaved,
		ring:            cfg.Ring,
		log:             cfg.Logger,
		input:           input,
	}
}

// runFeed adapts a feed.Cmd to a tea.Cmd. Nil stays nil.
func runFeed(cmd feed.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		return cmd(context.Background())
	}
}

// Init loads the cache (the first remote page is issued once the cache
// answer arrives, so cached articles can show first) and the category list.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{runFeed(a.ctrl.LoadCategories())}
	if a.loadCache != nil {
		cmds = append(cmds, a.loadCache())
	} else {
		cmds = append(cmds, runFeed(a.ctrl.SelectCategory(a.initialCategory)))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case cacheLoadedMsg:
		if msg.Err == nil {
			a.ctrl.Seed(msg.Articles)
		} else {
			a.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCacheError, Comp: "ui", Err: msg.Err.Error()})
		}
		return a, runFeed(a.ctrl.SelectCategory(a.initialCategory))

	case feed.PageLoaded:
		a.ctrl.Apply(msg)
		a = a.clampCursor()
		a.boundary.update(a.cursor, len(a.displayed()))
		var persist tea.Cmd
		if msg.Err == nil && a.persistPage != nil && len(msg.Articles) > 0 {
			persist = a.persistPage(msg.Articles)
		}
		return a, tea.Batch(persist, a.drainQueued())

	case feed.SaveResult:
		// A stale confirmation must never reach the cache: the controller
		// already holds the newer toggle's state, and mirroring the older
		// one would seed the wrong saved flag on the next startup.
		accepted := a.ctrl.ApplySave(msg)
		a = a.clampCursor()
		if accepted && msg.Err == nil && a.persistSaved != nil {
			return a, a.persistSaved(msg.ID, msg.Saved)
		}
		return a, nil

	case feed.CategoriesLoaded:
		a.ctrl.Apply(msg)
		return a, nil

	case searchTickMsg:
		if query, ok := a.search.TimerFired(msg.Seq); ok {
			return a, runFeed(a.ctrl.SearchNow(query))
		}
		return a, nil

	case persistedMsg:
		if msg.Err != nil {
			a.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCacheError, Comp: "ui", Err: msg.Err.Error()})
		}
		return a, nil
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		return a.handleSearchKey(msg)
	}

	// A surfaced error is dismissed by the next key press.
	if a.ctrl.Snapshot().Err != "" {
		a.ctrl.ClearError()
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "?":
		a.showDebug = !a.showDebug
		return a, nil

	case "j", "down":
		if a.cursor < len(a.displayed())-1 {
			a.cursor++
		}
		a.boundary.update(a.cursor, len(a.displayed()))
		return a, a.drainQueued()

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		a.boundary.update(a.cursor, len(a.displayed()))
		return a, nil

	case "g", "home":
		a.cursor = 0
		a.boundary.update(a.cursor, len(a.displayed()))
		return a, nil

	case "G", "end":
		if n := len(a.displayed()); n > 0 {
			a.cursor = n - 1
		}
		a.boundary.update(a.cursor, len(a.displayed()))
		return a, a.drainQueued()

	case "/":
		a.searching = true
		a.input.Focus()
		return a, textinput.Blink

	case "s":
		list := a.displayed()
		if a.cursor < len(list) {
			return a, runFeed(a.ctrl.ToggleSaved(list[a.cursor].ID))
		}
		return a, nil

	case "v":
		return a.toggleSavedView()

	case "r":
		return a, runFeed(a.ctrl.Refresh())

	case "tab":
		return a, a.cycleCategory(1)

	case "shift+tab":
		return a, a.cycleCategory(-1)

	case "esc":
		if a.savedView {
			return a.toggleSavedView()
		}
		return a, runFeed(a.ctrl.ClearSearch())
	}

	return a, nil
}

// handleSearchKey routes input while the search field is focused.
func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.searching = false
		a.input.Blur()
		a.input.Reset()
		a.search.Cancel()
		a.emit(otel.Event{Kind: otel.KindSearchCancel, Comp: "ui"})
		return a, runFeed(a.ctrl.ClearSearch())

	case "enter":
		text := a.search.OnSubmit(a.input.Value())
		a.searching = false
		a.input.Blur()
		if text == "" {
			a.input.Reset()
			return a, runFeed(a.ctrl.ClearSearch())
		}
		return a, runFeed(a.ctrl.SearchNow(text))

	case "ctrl+c":
		return a, tea.Quit
	}

	before := a.input.Value()
	var inputCmd tea.Cmd
	a.input, inputCmd = a.input.Update(msg)
	if a.input.Value() == before {
		// Cursor movement, not an edit. Rescheduling here would re-arm the
		// debounce forever and the search would never fire.
		return a, inputCmd
	}

	sched := a.search.OnQueryTextChanged(a.input.Value())
	if sched == nil {
		// Field emptied: results clear synchronously, nothing is scheduled.
		if strings.TrimSpace(a.input.Value()) == "" {
			return a, tea.Batch(inputCmd, runFeed(a.ctrl.ClearSearch()))
		}
		return a, inputCmd
	}

	seq := sched.Seq
	a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchSchedule, Comp: "ui", Query: a.input.Value()})
	timer := tea.Tick(sched.Delay, func(time.Time) tea.Msg {
		return searchTickMsg{Seq: seq}
	})
	return a, tea.Batch(inputCmd, timer)
}

// toggleSavedView flips between the feed and the saved subsequence. The
// load-more trigger is detached while the saved view is up - its boundary
// has no next page - and re-attached on return.
func (a App) toggleSavedView() (tea.Model, tea.Cmd) {
	a.savedView = !a.savedView
	a.cursor = 0
	if a.savedView {
		a.trigger.Detach()
		return a, nil
	}
	ctrl := a.ctrl
	queued := a.queued
	a.trigger.Attach(a.boundary, func() {
		if cmd := ctrl.LoadMore(); cmd != nil {
			*queued = append(*queued, runFeed(cmd))
		}
	})
	return a, nil
}

// cycleCategory moves the active category tab by delta and selects it.
func (a App) cycleCategory(delta int) tea.Cmd {
	snap := a.ctrl.Snapshot()
	names := []string{""}
	for _, c := range snap.Categories {
		names = append(names, c.Name)
	}

	active := 0
	if snap.Query.Kind == feed.KindCategory {
		for i, n := range names {
			if n == snap.Query.Value {
				active = i
				break
			}
		}
	}

	next := (active + delta + len(names)) % len(names)
	return runFeed(a.ctrl.SelectCategory(names[next]))
}

// displayed returns the article list currently on screen.
func (a App) displayed() []feed.Article {
	snap := a.ctrl.Snapshot()
	if a.savedView {
		return snap.Saved
	}
	return snap.Articles
}

func (a App) clampCursor() App {
	n := len(a.displayed())
	if n == 0 {
		a.cursor = 0
	} else if a.cursor >= n {
		a.cursor = n - 1
	}
	return a
}

// drainQueued collects commands pushed by boundary callbacks.
func (a App) drainQueued() tea.Cmd {
	if len(*a.queued) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, len(*a.queued))
	copy(cmds, *a.queued)
	*a.queued = (*a.queued)[:0]
	return tea.Batch(cmds...)
}

func (a App) emit(e otel.Event) {
	if a.log != nil {
		a.log.Emit(e)
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	snap := a.ctrl.Snapshot()
	list := a.displayed()

	if a.showDebug {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var sections []string

	if a.savedView {
		sections = append(sections, SavedHeader.Render("Saved Articles"))
	} else {
		sections = append(sections, RenderTabs(snap.Categories, categoryValue(snap.Query), a.width))
	}

	showSearch := a.searching || snap.Query.Kind == feed.KindSearch
	if showSearch && !a.savedView {
		pending := a.searching && strings.TrimSpace(a.input.Value()) != ""
		text := a.input.View()
		if !a.searching {
			text = snap.Query.Value
		}
		sections = append(sections, RenderSearchBar(text, len(list), snap.TotalCount, a.width, pending))
	}

	// Lines consumed by chrome: header(1) + search(0|1) + summary(2) +
	// error(0|1) + status(1).
	chrome := 2 + 2
	if showSearch && !a.savedView {
		chrome++
	}
	if snap.Err != "" {
		chrome++
	}
	listHeight := a.height - chrome
	if listHeight < 1 {
		listHeight = 1
	}

	loadingMore := snap.Loading && snap.Page > 0 && len(list) > 0 && !a.savedView
	sections = append(sections, strings.TrimRight(RenderList(list, a.cursor, a.width, listHeight, loadingMore), "\n"))

	sections = append(sections, a.renderSummary(list))

	if snap.Err != "" {
		sections = append(sections, ErrorStyle.Width(a.width).Render("Error: "+snap.Err+" (press any key to dismiss)"))
	}

	sections = append(sections, RenderStatusBar(a.cursor, len(list), snap.TotalCount, a.width, snap.Loading && len(list) == 0))

	return strings.Join(sections, "\n")
}

// renderSummary shows the machine summary of the selected article.
func (a App) renderSummary(list []feed.Article) string {
	if a.cursor >= len(list) {
		return "\n"
	}
	sel := list[a.cursor]
	summary := strings.ReplaceAll(sel.Summary, "\n", " ")
	maxLen := (a.width - 4) * 2
	if maxLen < 20 {
		maxLen = 20
	}
	summary = truncateRunes(summary, maxLen)
	return SummaryStyle.Width(a.width).Height(2).Render(summary)
}

func categoryValue(d feed.Descriptor) string {
	if d.Kind == feed.KindCategory {
		return d.Value
	}
	return ""
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// InSavedView reports whether the saved view is active (for testing).
func (a App) InSavedView() bool {
	return a.savedView
}

// LoadMoreAttached reports whether the scroll trigger is attached (for testing).
func (a App) LoadMoreAttached() bool {
	return a.trigger.Attached()
}

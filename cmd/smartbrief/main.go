package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/smartbrief/internal/api"
	"github.com/abelbrown/smartbrief/internal/config"
	"github.com/abelbrown/smartbrief/internal/feed"
	"github.com/abelbrown/smartbrief/internal/otel"
	"github.com/abelbrown/smartbrief/internal/store"
	"github.com/abelbrown/smartbrief/internal/ui"
)

// cacheSeedLimit bounds how many cached articles are shown before the
// first remote page arrives.
const cacheSeedLimit = 100

// cacheRetention is how long unsaved articles stay in the local cache.
const cacheRetention = 14 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Data directory: ~/.smartbrief/
	dataDir := config.Dir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Observability: JSONL event log plus in-memory ring for the debug overlay
	logFile, err := os.OpenFile(filepath.Join(dataDir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("Failed to open event log: %v", err)
	}
	defer logFile.Close()

	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	logger := otel.NewLogger(logFile, ring)
	defer logger.Close()
	logger.Info(otel.KindStartup, "main", cfg.Service.BaseURL)

	// Local article cache
	st, err := store.Open(filepath.Join(dataDir, "smartbrief.db"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	if n, err := st.Prune(time.Now().Add(-cacheRetention)); err != nil {
		logger.Error(otel.KindCacheError, "main", err)
	} else if n > 0 {
		logger.Emit(otel.Event{Kind: otel.KindCacheSave, Comp: "main", Count: n, Msg: "pruned"})
	}

	// Remote article service client
	client := api.New(api.Options{
		BaseURL:           cfg.Service.BaseURL,
		APIKey:            cfg.Service.APIKey,
		Timeout:           time.Duration(cfg.Service.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Service.RequestsPerSecond,
		Logger:            logger,
	})

	// Feed core
	ctrl := feed.New(feed.Options{
		Client:   client,
		Logger:   logger,
		PageSize: cfg.Feed.PageSize,
		SortBy:   cfg.Feed.SortBy,
		SortOrd:  cfg.Feed.SortOrder,
	})
	search := feed.NewSearchController(time.Duration(cfg.Feed.DebounceMs) * time.Millisecond)

	app := ui.NewApp(ui.AppConfig{
		Controller:      ctrl,
		Search:          search,
		InitialCategory: cfg.Feed.Category,
		Ring:            ring,
		Logger:          logger,

		LoadCache: func() tea.Cmd {
			return func() tea.Msg {
				articles, err := st.RecentByCategory(cfg.Feed.Category, cacheSeedLimit)
				if err == nil {
					logger.Emit(otel.Event{Kind: otel.KindCacheLoad, Comp: "main", Count: len(articles)})
				}
				return ui.CacheLoaded(articles, err)
			}
		},
		PersistPage: func(articles []feed.Article) tea.Cmd {
			return func() tea.Msg {
				err := st.SaveArticles(articles)
				if err == nil {
					logger.Emit(otel.Event{Kind: otel.KindCacheSave, Comp: "main", Count: len(articles)})
				}
				return ui.Persisted(err)
			}
		},
		PersistSaved: func(id string, saved bool) tea.Cmd {
			return func() tea.Msg {
				return ui.Persisted(st.MarkSaved(id, saved))
			}
		},
	})

	program := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		log.Printf("Error running program: %v", err)
	}

	logger.Info(otel.KindShutdown, "main", "")
}

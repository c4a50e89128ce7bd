// Package store provides the local SQLite article cache for SmartBrief.
// The cache backs offline startup: the last synced page is shown
// immediately while the first network fetch is in flight.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/smartbrief/internal/feed"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection to avoid issues
	// with multiple connections getting different databases
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Enable WAL mode for file-based databases (not :memory:)
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT,
		category TEXT,
		source TEXT,
		url TEXT,
		image_url TEXT,
		published_at DATETIME NOT NULL,
		saved INTEGER DEFAULT 0,
		view_count INTEGER DEFAULT 0,
		read_time INTEGER DEFAULT 0,
		cached_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveArticles upserts articles into the cache. Existing rows (by id) are
// replaced so saved flags and view counts track the service.
// Thread-safe: acquires write lock.
func (s *Store) SaveArticles(articles []feed.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(articles) == 0 {
		return nil
	}

	stmt, err := s.db.Prepare(`
		INSERT OR REPLACE INTO articles (
			id, title, summary, category, source, url, image_url,
			published_at, saved, view_count, read_time, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, a := range articles {
		_, err := stmt.Exec(
			a.ID,
			a.Title,
			a.Summary,
			a.Category,
			a.Source,
			a.URL,
			a.ImageURL,
			a.Published,
			boolToInt(a.Saved),
			a.ViewCount,
			a.ReadTimeMinutes,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// Recent returns up to limit cached articles, newest first.
// Thread-safe: acquires read lock.
func (s *Store) Recent(limit int) ([]feed.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, title, summary, category, source, url, image_url,
			published_at, saved, view_count, read_time
		FROM articles
		ORDER BY published_at DESC
		LIMIT ?
	`

	return s.queryArticles(query, limit)
}

// RecentByCategory returns up to limit cached articles in a category,
// newest first. Empty category means all.
// Thread-safe: acquires read lock.
func (s *Store) RecentByCategory(category string, limit int) ([]feed.Article, error) {
	if category == "" {
		return s.Recent(limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, title, summary, category, source, url, image_url,
			published_at, saved, view_count, read_time
		FROM articles
		WHERE category = ?
		ORDER BY published_at DESC
		LIMIT ?
	`

	return s.queryArticles(query, category, limit)
}

// MarkSaved updates the cached saved flag for an article.
// Thread-safe: acquires write lock.
func (s *Store) MarkSaved(id string, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE articles SET saved = ? WHERE id = ?", boolToInt(saved), id)
	return err
}

// Prune removes cached articles older than the cutoff, returning the
// number removed. Saved articles are kept regardless of age.
// Thread-safe: acquires write lock.
func (s *Store) Prune(olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(
		"DELETE FROM articles WHERE published_at < ? AND saved = 0",
		olderThan,
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// Count returns the number of cached articles.
// Thread-safe: acquires read lock.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&n)
	return n, err
}

// queryArticles is a helper that executes a query and scans results.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) queryArticles(query string, args ...any) ([]feed.Article, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []feed.Article
	for rows.Next() {
		var a feed.Article
		var savedInt int
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Summary,
			&a.Category,
			&a.Source,
			&a.URL,
			&a.ImageURL,
			&a.Published,
			&savedInt,
			&a.ViewCount,
			&a.ReadTimeMinutes,
		)
		if err != nil {
			return nil, err
		}
		a.Saved = savedInt != 0
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return articles, nil
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

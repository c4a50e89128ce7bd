// Package otel provides structured observability for SmartBrief.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously through a buffered channel and a background drain
// goroutine; an optional RingBuffer keeps recent events in memory for the
// in-app debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Feed synchronization events
	KindFeedSelect EventKind = "feed.select"
	KindPageLoad   EventKind = "feed.page"
	KindPageStale  EventKind = "feed.stale"
	KindPageError  EventKind = "feed.error"
	KindLoadMore   EventKind = "feed.load_more"

	// Optimistic save events
	KindSaveToggle   EventKind = "save.toggle"
	KindSaveRollback EventKind = "save.rollback"

	// Debounced search events
	KindSearchSchedule EventKind = "search.schedule"
	KindSearchCancel   EventKind = "search.cancel"
	KindSearchFire     EventKind = "search.fire"

	// Remote service events
	KindAPIRequest EventKind = "api.request"
	KindAPIRetry   EventKind = "api.retry"
	KindAPIError   EventKind = "api.error"

	// Local cache events
	KindCacheLoad  EventKind = "cache.load"
	KindCacheSave  EventKind = "cache.save"
	KindCacheError EventKind = "cache.error"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "feed", "api", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	Token     uint64         `json:"token,omitempty"`      // query generation token
	Page      int            `json:"page,omitempty"`
	Count     int            `json:"count,omitempty"`
	Category  string         `json:"category,omitempty"`
	Query     string         `json:"query,omitempty"`
	Dur       time.Duration  `json:"-"`                // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`   // free text
	Extra     map[string]any `json:"extra,omitempty"` // escape hatch for unusual fields
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}

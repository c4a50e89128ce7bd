package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/smartbrief/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing feed stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	// --- Stats section (keyed lookups, not map iteration) ---
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Feed Stats"))
	lines = append(lines, fmt.Sprintf("  Pages:      %d loaded, %d stale, %d errors",
		stats[otel.KindPageLoad], stats[otel.KindPageStale], stats[otel.KindPageError]))
	lines = append(lines, fmt.Sprintf("  Queries:    %d selects, %d load-more, %d search fires",
		stats[otel.KindFeedSelect], stats[otel.KindLoadMore], stats[otel.KindSearchFire]))
	lines = append(lines, fmt.Sprintf("  Saves:      %d toggles, %d rollbacks",
		stats[otel.KindSaveToggle], stats[otel.KindSaveRollback]))
	lines = append(lines, fmt.Sprintf("  API:        %d requests, %d retries, %d errors",
		stats[otel.KindAPIRequest], stats[otel.KindAPIRetry], stats[otel.KindAPIError]))
	lines = append(lines, fmt.Sprintf("  Cache:      %d loads, %d writes, %d errors",
		stats[otel.KindCacheLoad], stats[otel.KindCacheSave], stats[otel.KindCacheError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	// --- Recent events section ---
	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		age := time.Since(e.Time)
		ageStr := formatAge(age)

		line := fmt.Sprintf("  %6s  %-20s", ageStr, string(e.Kind))
		if e.Token > 0 {
			line += fmt.Sprintf("  tok:%d", e.Token)
		}
		if e.Page > 0 {
			line += fmt.Sprintf("  p%d", e.Page)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 36)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("?") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}

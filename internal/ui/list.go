package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/smartbrief/internal/feed"
)

// RenderList renders the article list with scroll handling. loadingMore
// appends a one-line indicator when a follow-up page is in flight.
func RenderList(articles []feed.Article, cursor int, width, height int, loadingMore bool) string {
	if len(articles) == 0 {
		return HelpStyle.Render("No articles. Press 'r' to refresh or '/' to search.")
	}

	availableHeight := height
	if loadingMore {
		availableHeight--
	}
	if availableHeight < 1 {
		availableHeight = 1
	}

	// Keep the cursor visible.
	scrollOffset := 0
	if cursor >= availableHeight {
		scrollOffset = cursor - availableHeight + 1
	}

	var b strings.Builder
	rendered := 0
	for i := scrollOffset; i < len(articles) && rendered < availableHeight; i++ {
		b.WriteString(renderArticleLine(articles[i], i == cursor, width))
		b.WriteString("\n")
		rendered++
	}

	if loadingMore {
		b.WriteString(MetaItem.Render("  loading more..."))
		b.WriteString("\n")
	}

	return b.String()
}

// renderArticleLine renders one article row:
//
//	SourceName..... Title ............................ ★ 4min  2h ago
func renderArticleLine(a feed.Article, selected bool, width int) string {
	sourceColWidth := 14
	source := a.Source
	if source == "" {
		source = a.Category
	}
	if utf8.RuneCountInString(source) > sourceColWidth {
		runes := []rune(source)
		source = string(runes[:sourceColWidth-1]) + "…"
	}
	sourcePad := sourceColWidth - utf8.RuneCountInString(source)
	if sourcePad < 0 {
		sourcePad = 0
	}

	star := " "
	if a.Saved {
		star = "★"
	}

	readTime := ""
	if a.ReadTimeMinutes > 0 {
		readTime = fmt.Sprintf("%dmin", a.ReadTimeMinutes)
	}

	age := formatAgeShort(a.Published)

	// Right side: "★ 4min  2h ago" padded to a fixed width so titles align.
	right := fmt.Sprintf("%s %5s %8s", star, readTime, age)
	rightWidth := utf8.RuneCountInString(right)

	titleWidth := width - sourceColWidth - rightWidth - 6
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := a.Title
	if utf8.RuneCountInString(title) > titleWidth {
		runes := []rune(title)
		title = string(runes[:titleWidth-3]) + "..."
	}

	if selected {
		plain := fmt.Sprintf("%s%s %s", source, strings.Repeat(".", sourcePad), title)
		dots := width - utf8.RuneCountInString(plain) - rightWidth - 3
		if dots < 0 {
			dots = 0
		}
		line := plain + strings.Repeat(".", dots) + " " + right
		return SelectedItem.Width(width).Render(line)
	}

	sourceStyle := lipgloss.NewStyle().Foreground(sourcePaletteColor(source))
	left := sourceStyle.Render(source) + MetaItem.Render(strings.Repeat(".", sourcePad)) + " " + NormalItem.Render(title)
	dots := width - lipgloss.Width(left) - rightWidth - 2
	if dots < 0 {
		dots = 0
	}
	var styledRight string
	if a.Saved {
		styledRight = SavedStar.Render("★") + MetaItem.Render(right[len("★"):])
	} else {
		styledRight = MetaItem.Render(right)
	}
	return left + MetaItem.Render(strings.Repeat(".", dots)) + " " + styledRight
}

func formatAgeShort(published time.Time) string {
	if published.IsZero() {
		return ""
	}
	age := time.Since(published)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

func sourcePaletteColor(name string) lipgloss.Color {
	palette := []lipgloss.Color{
		lipgloss.Color("62"),
		lipgloss.Color("69"),
		lipgloss.Color("39"),
		lipgloss.Color("141"),
		lipgloss.Color("208"),
		lipgloss.Color("75"),
		lipgloss.Color("99"),
		lipgloss.Color("212"),
	}
	sum := 0
	for i := 0; i < len(name); i++ {
		sum += int(name[i])
	}
	return palette[sum%len(palette)]
}

// RenderTabs renders the category tab row. categories carries remote counts;
// the leading "All" tab is synthetic.
func RenderTabs(categories []feed.Category, active string, width int) string {
	tabs := []string{renderTab("All", 0, active == "")}
	for _, c := range categories {
		tabs = append(tabs, renderTab(c.Name, c.Count, active == c.Name))
	}
	row := strings.Join(tabs, " ")
	if lipgloss.Width(row) > width {
		// Too many categories for the terminal; show the active one only.
		row = renderTab(activeLabel(active), 0, true)
	}
	return row
}

func activeLabel(active string) string {
	if active == "" {
		return "All"
	}
	return active
}

func renderTab(name string, count int, active bool) string {
	label := name
	if count > 0 {
		label = fmt.Sprintf("%s (%d)", name, count)
	}
	if active {
		return CategoryTabActive.Render(label)
	}
	return CategoryTab.Render(label)
}

// RenderStatusBar renders the bottom status bar with key hints and position.
func RenderStatusBar(cursor, shown, total int, width int, loading bool) string {
	var position string
	if loading {
		position = " Loading... "
	} else if total > shown {
		position = fmt.Sprintf(" %d/%d (%d total) ", cursor+1, shown, total)
	} else {
		position = fmt.Sprintf(" %d/%d ", cursor+1, shown)
	}

	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("s") + StatusBarText.Render(":save"),
		StatusBarKey.Render("v") + StatusBarText.Render(":saved"),
		StatusBarKey.Render("tab") + StatusBarText.Render(":category"),
		StatusBarKey.Render("r") + StatusBarText.Render(":refresh"),
		StatusBarKey.Render("?") + StatusBarText.Render(":debug"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	leftWidth := lipgloss.Width(position)
	rightWidth := lipgloss.Width(keyHints)
	padding := width - leftWidth - rightWidth
	if padding < 0 {
		padding = 0
	}

	bar := position + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}

// RenderSearchBar renders the search input line with the live result count.
func RenderSearchBar(text string, shown, total int, width int, pending bool) string {
	prompt := SearchBarPrompt.Render("/")
	body := text

	var indicator string
	if pending {
		indicator = SearchBarCount.Render(" ...")
	}
	count := SearchBarCount.Render(fmt.Sprintf(" %d/%d", shown, total))

	content := prompt + body + indicator + count
	contentWidth := lipgloss.Width(content)
	padding := width - contentWidth - 2
	if padding < 0 {
		padding = 0
	}

	return SearchBar.Width(width).Render(content + strings.Repeat(" ", padding))
}

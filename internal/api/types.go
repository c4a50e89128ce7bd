package api

import (
	"time"

	"github.com/abelbrown/smartbrief/internal/feed"
)

// Wire types for the article service. Field names follow the service's
// JSON contract exactly; conversion to feed types happens at this boundary
// and nowhere else.

type articleJSON struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	Category        string `json:"category"`
	Source          string `json:"source"`
	ImageURL        string `json:"imageUrl"`
	FullArticleURL  string `json:"fullArticleUrl"`
	PublishedAt     string `json:"publishedAt"`
	Saved           bool   `json:"saved"`
	ViewCount       int    `json:"viewCount"`
	ReadTimeMinutes int    `json:"readTimeMinutes"`
}

type articleListJSON struct {
	Articles   []articleJSON `json:"articles"`
	TotalCount int           `json:"totalCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// envelopeJSON wraps endpoints that return {"status": ..., "data": ...}.
type envelopeJSON struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type categoriesEnvelopeJSON struct {
	envelopeJSON
	Data []categoryJSON `json:"data"`
}

type categoryJSON struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type saveRequestJSON struct {
	Saved bool `json:"saved"`
}

type saveEnvelopeJSON struct {
	envelopeJSON
	Data struct {
		ID    string `json:"id"`
		Saved bool   `json:"saved"`
	} `json:"data"`
}

// publishedAtFormats are tried in order when parsing timestamps. The
// service emits ISO 8601, with and without fractional seconds or zone.
var publishedAtFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parsePublishedAt(s string) time.Time {
	for _, layout := range publishedAtFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (a articleJSON) toFeed() feed.Article {
	return feed.Article{
		ID:              a.ID,
		Title:           a.Title,
		Summary:         a.Summary,
		Category:        a.Category,
		Source:          a.Source,
		URL:             a.FullArticleURL,
		ImageURL:        a.ImageURL,
		Published:       parsePublishedAt(a.PublishedAt),
		Saved:           a.Saved,
		ViewCount:       a.ViewCount,
		ReadTimeMinutes: a.ReadTimeMinutes,
	}
}

func (l articleListJSON) toFeed() *feed.Page {
	articles := make([]feed.Article, 0, len(l.Articles))
	for _, a := range l.Articles {
		articles = append(articles, a.toFeed())
	}
	return &feed.Page{
		Articles:   articles,
		TotalCount: l.TotalCount,
		Page:       l.Page,
		PageSize:   l.PageSize,
		TotalPages: l.TotalPages,
	}
}

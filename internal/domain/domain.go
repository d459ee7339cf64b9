package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const articleIDHexLen = 16

// Article is a normalized unit of scraped news content.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description,omitempty"`
	Source      string     `json:"source"`
	Author      string     `json:"author,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
	Category    string     `json:"category,omitempty"`
	Relevance   float64    `json:"relevance,omitempty"`
	KeyPoints   []string   `json:"key_points,omitempty"`
}

// RankedArticle annotates an Article with a judge score and a short
// justification. It lives only for the duration of a single digest response.
type RankedArticle struct {
	Article
	Score  int
	Reason string
}

// FeedSource is a configured endpoint polled for new articles.
type FeedSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Kind     string `yaml:"kind,omitempty"`
	Enabled  bool   `yaml:"enabled"`
}

const (
	SourceKindRSS  = "rss"
	SourceKindHTML = "html"
)

// Summary is an LLM-generated digest of a single article, keyed by article ID.
type Summary struct {
	ArticleID   string    `json:"article_id"`
	Text        string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
	Model       string    `json:"model,omitempty"`
	WordCount   int       `json:"word_count,omitempty"`
}

// UserPreference holds per-user settings and counters. Records are created
// lazily with defaults and never deleted.
type UserPreference struct {
	PreferredCategory string    `json:"preferred_category"`
	MaxArticles       int       `json:"max_articles"`
	ArticlesRead      int       `json:"articles_read"`
	ArticlesSaved     int       `json:"articles_saved"`
	SavedArticles     []string  `json:"saved_articles"`
	LastActive        time.Time `json:"last_active"`
}

// ArticleID derives a deterministic identifier from the normalized link and
// title, so the same entry hashes to the same ID across re-fetches.
func ArticleID(link, title string) string {
	content := strings.TrimSpace(link) + "|" + strings.TrimSpace(title)
	sum := sha256.Sum256([]byte(content))

	return hex.EncodeToString(sum[:])[:articleIDHexLen]
}

// PublishedKey is the sort key used for published-descending ordering. A nil
// timestamp yields an empty string, which sorts below any real timestamp and
// therefore lands at the tail of a descending sort.
func (a Article) PublishedKey() string {
	if a.Published == nil {
		return ""
	}

	return a.Published.UTC().Format(time.RFC3339)
}

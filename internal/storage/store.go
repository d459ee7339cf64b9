package storage

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"newsdigest/internal/domain"
)

const (
	articlesFile  = "articles.json"
	summariesFile = "summaries.json"
	usersFile     = "users.json"

	// MaxStoredArticles bounds the active article window after a merge.
	MaxStoredArticles = 1000

	defaultCategory    = "technology"
	defaultMaxArticles = 5
)

// Store owns the persisted article, summary and user collections as whole-file
// JSON documents. Writers race last-writer-wins; the write cadence is minutes,
// so this is accepted rather than locked.
type Store struct {
	dataDir string
	log     *slog.Logger
}

func New(dataDir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return &Store{dataDir: dataDir, log: log}, nil
}

type articlesDocument struct {
	Articles    []domain.Article `json:"articles"`
	LastUpdated *time.Time       `json:"last_updated"`
	Total       int              `json:"total_articles"`
}

type summariesDocument struct {
	Summaries   map[string]domain.Summary `json:"summaries"`
	LastUpdated *time.Time                `json:"last_updated"`
	Total       int                       `json:"total_summaries"`
}

type usersDocument struct {
	Users       map[string]domain.UserPreference `json:"users"`
	LastUpdated *time.Time                       `json:"last_updated"`
	Total       int                              `json:"total_users"`
}

// LoadArticles returns the stored article list. A missing or unreadable file
// yields an empty list, never an error.
func (s *Store) LoadArticles() []domain.Article {
	var doc articlesDocument
	if !s.read(articlesFile, &doc) {
		return nil
	}

	return doc.Articles
}

// LastUpdated reports when the article collection was last written.
func (s *Store) LastUpdated() *time.Time {
	var doc articlesDocument
	if !s.read(articlesFile, &doc) {
		return nil
	}

	return doc.LastUpdated
}

func (s *Store) SaveArticles(articles []domain.Article) error {
	now := time.Now().UTC()
	doc := articlesDocument{
		Articles:    articles,
		LastUpdated: &now,
		Total:       len(articles),
	}

	return s.write(articlesFile, doc)
}

func (s *Store) LoadSummaries() map[string]domain.Summary {
	var doc summariesDocument
	if !s.read(summariesFile, &doc) || doc.Summaries == nil {
		return map[string]domain.Summary{}
	}

	return doc.Summaries
}

func (s *Store) SaveSummaries(summaries map[string]domain.Summary) error {
	now := time.Now().UTC()
	doc := summariesDocument{
		Summaries:   summaries,
		LastUpdated: &now,
		Total:       len(summaries),
	}

	return s.write(summariesFile, doc)
}

func (s *Store) LoadUsers() map[string]domain.UserPreference {
	var doc usersDocument
	if !s.read(usersFile, &doc) || doc.Users == nil {
		return map[string]domain.UserPreference{}
	}

	return doc.Users
}

func (s *Store) SaveUsers(users map[string]domain.UserPreference) error {
	now := time.Now().UTC()
	doc := usersDocument{
		Users:       users,
		LastUpdated: &now,
		Total:       len(users),
	}

	return s.write(usersFile, doc)
}

// UserPreference returns the stored record for the user, or a fresh default
// record if none exists yet. The default is not persisted until the first
// mutation.
func (s *Store) UserPreference(userID int64) domain.UserPreference {
	users := s.LoadUsers()
	if pref, ok := users[userKey(userID)]; ok {
		return pref
	}

	return domain.UserPreference{
		PreferredCategory: defaultCategory,
		MaxArticles:       defaultMaxArticles,
		LastActive:        time.Now().UTC(),
	}
}

func (s *Store) SaveUserPreference(userID int64, pref domain.UserPreference) error {
	users := s.LoadUsers()
	pref.LastActive = time.Now().UTC()
	users[userKey(userID)] = pref

	return s.SaveUsers(users)
}

// SaveArticleForUser records an article ID on the user's saved list. It
// reports whether the article was newly saved.
func (s *Store) SaveArticleForUser(userID int64, articleID string) (bool, error) {
	pref := s.UserPreference(userID)

	for _, saved := range pref.SavedArticles {
		if saved == articleID {
			return false, nil
		}
	}

	pref.SavedArticles = append(pref.SavedArticles, articleID)
	pref.ArticlesSaved++

	if err := s.SaveUserPreference(userID, pref); err != nil {
		return false, err
	}

	return true, nil
}

// MarkArticlesRead bumps the user's read counter.
func (s *Store) MarkArticlesRead(userID int64, count int) error {
	pref := s.UserPreference(userID)
	pref.ArticlesRead += count

	return s.SaveUserPreference(userID, pref)
}

func userKey(userID int64) string {
	return fmt.Sprintf("%d", userID)
}

func (s *Store) read(filename string, v any) bool {
	path := filepath.Join(s.dataDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("Failed to read collection, using empty default",
				"error", err,
				"path", path)
		}

		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("Failed to decode collection, using empty default",
			"error", err,
			"path", path)

		return false
	}

	return true
}

// write marshals the document and replaces the target file via a temp file and
// rename, so readers never observe a truncated document.
func (s *Store) write(filename string, v any) error {
	path := filepath.Join(s.dataDir, filename)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}

	tmp, err := os.CreateTemp(s.dataDir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Merge combines previously stored articles with freshly fetched ones. The
// first-seen copy wins on a duplicate ID, so a later fetch never overwrites
// category or score. The result is sorted published-descending — articles
// without a timestamp use an empty sort key and land at the tail — and is
// truncated to MaxStoredArticles.
func Merge(existing, incoming []domain.Article) []domain.Article {
	merged := make([]domain.Article, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing))

	for _, article := range existing {
		if _, ok := seen[article.ID]; ok {
			continue
		}

		seen[article.ID] = struct{}{}
		merged = append(merged, article)
	}

	for _, article := range incoming {
		if _, ok := seen[article.ID]; ok {
			continue
		}

		seen[article.ID] = struct{}{}
		merged = append(merged, article)
	}

	sortPublishedDesc(merged)

	if len(merged) > MaxStoredArticles {
		merged = merged[:MaxStoredArticles]
	}

	return merged
}

func sortPublishedDesc(articles []domain.Article) {
	// Stable so that equal keys keep first-seen order.
	slices.SortStableFunc(articles, func(a, b domain.Article) int {
		return cmp.Compare(b.PublishedKey(), a.PublishedKey())
	})
}

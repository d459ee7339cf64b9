package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/news"

	"github.com/mmcdole/gofeed"
)

const (
	sourceTimeout                   = 30 * time.Second
	fetchMaxConcurrencyGrowthFactor = 4

	userAgent = "newsdigest/1.0 (feed fetcher)"
)

// Fetcher retrieves configured sources and normalizes their entries into
// articles.
type Fetcher struct {
	parser *gofeed.Parser
	client *http.Client
	log    *slog.Logger
}

func NewFetcher(log *slog.Logger) *Fetcher {
	client := &http.Client{Timeout: sourceTimeout}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	return &Fetcher{
		parser: parser,
		client: client,
		log:    log,
	}
}

// FetchAll fetches every enabled source concurrently and returns the combined
// article list plus the joined per-source errors. A failing source is logged
// and skipped; it never aborts the batch. Output order is unspecified.
func (f *Fetcher) FetchAll(ctx context.Context, sources []domain.FeedSource) ([]domain.Article, error) {
	enabled := make([]domain.FeedSource, 0, len(sources))
	for _, source := range sources {
		if source.Enabled {
			enabled = append(enabled, source)
		}
	}

	if len(enabled) == 0 {
		return nil, nil
	}

	concurrency := min(runtime.NumCPU()*fetchMaxConcurrencyGrowthFactor, len(enabled))
	semCh := make(chan struct{}, concurrency)

	articleCh := make(chan []domain.Article, len(enabled))
	errCh := make(chan error, len(enabled))

	var wg sync.WaitGroup
	for _, source := range enabled {
		wg.Add(1)
		semCh <- struct{}{}

		go func(source domain.FeedSource) {
			defer wg.Done()
			defer func() { <-semCh }()

			articles, err := f.fetchSource(ctx, source)
			if err != nil {
				f.log.WarnContext(ctx, "Skipping source after fetch failure",
					"error", err,
					"source", source.Name,
					"url", source.URL)
				errCh <- fmt.Errorf("fetch %s: %w", source.Name, err)

				return
			}

			f.log.InfoContext(ctx, "Fetched source",
				"source", source.Name,
				"articleCount", len(articles))

			articleCh <- articles
		}(source)
	}

	go func() {
		wg.Wait()
		close(articleCh)
		close(errCh)
	}()

	var all []domain.Article
	seen := make(map[string]struct{})
	for articles := range articleCh {
		for _, article := range articles {
			if _, ok := seen[article.ID]; ok {
				continue
			}

			seen[article.ID] = struct{}{}
			all = append(all, article)
		}
	}

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	return all, errors.Join(errs...)
}

func (f *Fetcher) fetchSource(ctx context.Context, source domain.FeedSource) ([]domain.Article, error) {
	if source.Kind == domain.SourceKindHTML {
		return f.fetchHTML(ctx, source)
	}

	return f.fetchRSS(ctx, source)
}

func (f *Fetcher) fetchRSS(ctx context.Context, source domain.FeedSource) ([]domain.Article, error) {
	parsed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		article, ok := f.normalizeItem(ctx, source, item)
		if !ok {
			continue
		}

		articles = append(articles, article)
	}

	return articles, nil
}

// normalizeItem maps a feed entry onto an Article. Entries without a title or
// link are dropped; a missing date or author degrades to nil/empty.
func (f *Fetcher) normalizeItem(ctx context.Context, source domain.FeedSource, item *gofeed.Item) (domain.Article, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)

	if title == "" || link == "" {
		f.log.WarnContext(ctx, "Skipping entry without title or link",
			"source", source.Name,
			"title", title)

		return domain.Article{}, false
	}

	var published *time.Time
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		published = &t
	} else if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		published = &t
	}

	var author string
	if item.Author != nil {
		author = strings.TrimSpace(item.Author.Name)
	}

	return domain.Article{
		ID:          domain.ArticleID(link, title),
		Title:       title,
		Link:        link,
		Description: news.CleanHTML(item.Description),
		Source:      source.Name,
		Author:      author,
		Published:   published,
		Category:    source.Category,
	}, true
}

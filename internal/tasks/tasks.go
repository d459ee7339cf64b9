package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/feed"
	"newsdigest/internal/news"
	"newsdigest/internal/ranker"
	"newsdigest/internal/storage"
)

const (
	// PipelineTaskID and CleanupTaskID name the two default background jobs.
	PipelineTaskID = "news_pipeline"
	CleanupTaskID  = "cleanup"

	CleanupInterval = 24 * time.Hour

	retentionDays     = 30
	minRelevance      = 0.2
	summaryBatchSize  = 5
	summaryBatchPause = 2 * time.Second
)

// Tasks bundles the background jobs run by the scheduler: the
// fetch-process-persist pipeline and the storage cleanup.
type Tasks struct {
	fetcher   *feed.Fetcher
	processor *news.Processor
	ranker    *ranker.Ranker
	store     *storage.Store
	sources   []domain.FeedSource

	summaryMaxLen int
	model         string
	now           func() time.Time
	log           *slog.Logger
}

func New(
	fetcher *feed.Fetcher,
	processor *news.Processor,
	rk *ranker.Ranker,
	store *storage.Store,
	sources []domain.FeedSource,
	summaryMaxLen int,
	model string,
	log *slog.Logger,
) *Tasks {
	return &Tasks{
		fetcher:       fetcher,
		processor:     processor,
		ranker:        rk,
		store:         store,
		sources:       sources,
		summaryMaxLen: summaryMaxLen,
		model:         model,
		now:           time.Now,
		log:           log,
	}
}

// ScrapeAndProcess is the main pipeline: fetch all sources, validate and
// categorize, score relevance, summarize what is new, then merge into the
// stored collection. Fetch and model failures degrade; persistence failures
// propagate.
func (t *Tasks) ScrapeAndProcess(ctx context.Context) error {
	articles, fetchErr := t.fetcher.FetchAll(ctx, t.sources)
	if fetchErr != nil {
		t.log.WarnContext(ctx, "Some sources failed during fetch",
			"error", fetchErr,
			"fetchedCount", len(articles))
	}

	if len(articles) == 0 {
		t.log.WarnContext(ctx, "No articles fetched from any source",
			"sourceCount", len(t.sources))

		return nil
	}

	processed := t.processor.Process(ctx, articles)
	relevant := news.SortByRelevance(news.FilterByRelevance(processed, minRelevance))

	if len(relevant) == 0 {
		t.log.WarnContext(ctx, "No articles passed processing",
			"fetchedCount", len(articles))

		return nil
	}

	if err := t.generateSummaries(ctx, relevant); err != nil {
		t.log.ErrorContext(ctx, "Failed to generate summaries",
			"error", err,
			"articleCount", len(relevant))
	}

	merged := storage.Merge(t.store.LoadArticles(), relevant)
	if err := t.store.SaveArticles(merged); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}

	t.log.InfoContext(ctx, "Pipeline run completed",
		"fetchedCount", len(articles),
		"processedCount", len(relevant),
		"storedCount", len(merged))

	return nil
}

// generateSummaries produces model summaries and key points for articles that
// have none yet, in small batches with a pause between them to stay under
// provider rate limits. Key points are written back into the slice so they
// persist with the articles.
func (t *Tasks) generateSummaries(ctx context.Context, articles []domain.Article) error {
	existing := t.store.LoadSummaries()

	var pending []*domain.Article
	for i := range articles {
		if _, ok := existing[articles[i].ID]; !ok {
			pending = append(pending, &articles[i])
		}
	}

	if len(pending) == 0 {
		return nil
	}

	t.log.InfoContext(ctx, "Generating summaries",
		"pendingCount", len(pending))

	var errs []error
	generated := 0

batches:
	for start := 0; start < len(pending); start += summaryBatchSize {
		batch := pending[start:min(start+summaryBatchSize, len(pending))]

		for _, article := range batch {
			summary, err := t.ranker.SummarizeArticle(ctx, *article, t.summaryMaxLen, t.model)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			existing[summary.ArticleID] = summary
			article.KeyPoints = t.ranker.KeyPoints(ctx, *article)
			generated++
		}

		if start+summaryBatchSize >= len(pending) {
			break
		}

		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			break batches
		case <-time.After(summaryBatchPause):
		}
	}

	if generated > 0 {
		if err := t.store.SaveSummaries(existing); err != nil {
			errs = append(errs, fmt.Errorf("save summaries: %w", err))
		}
	}

	return errors.Join(errs...)
}

// CleanupOldData drops articles older than the retention window and the
// summaries orphaned by their removal. Articles without a parseable publish
// date are kept.
func (t *Tasks) CleanupOldData(ctx context.Context) error {
	articles := t.store.LoadArticles()
	summaries := t.store.LoadSummaries()

	cutoff := t.now().Add(-retentionDays * 24 * time.Hour)

	kept := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if article.Published != nil && article.Published.Before(cutoff) {
			continue
		}

		kept = append(kept, article)
	}

	keptIDs := make(map[string]struct{}, len(kept))
	for _, article := range kept {
		keptIDs[article.ID] = struct{}{}
	}

	keptSummaries := make(map[string]domain.Summary, len(summaries))
	for id, summary := range summaries {
		if _, ok := keptIDs[id]; ok {
			keptSummaries[id] = summary
		}
	}

	var errs []error
	if err := t.store.SaveArticles(kept); err != nil {
		errs = append(errs, fmt.Errorf("save articles: %w", err))
	}
	if err := t.store.SaveSummaries(keptSummaries); err != nil {
		errs = append(errs, fmt.Errorf("save summaries: %w", err))
	}

	t.log.InfoContext(ctx, "Cleanup completed",
		"removedArticles", len(articles)-len(kept),
		"removedSummaries", len(summaries)-len(keptSummaries))

	return errors.Join(errs...)
}

// ForceRefresh clears both collections and runs the pipeline from scratch.
func (t *Tasks) ForceRefresh(ctx context.Context) error {
	if err := t.store.SaveArticles(nil); err != nil {
		return fmt.Errorf("clear articles: %w", err)
	}

	if err := t.store.SaveSummaries(map[string]domain.Summary{}); err != nil {
		return fmt.Errorf("clear summaries: %w", err)
	}

	return t.ScrapeAndProcess(ctx)
}

// Stats aggregates store-wide counts for the admin surface.
type Stats struct {
	TotalArticles  int
	TotalSummaries int
	TotalUsers     int
	LastUpdated    *time.Time
	ByCategory     map[string]int
	BySource       map[string]int
}

func (t *Tasks) Stats() Stats {
	articles := t.store.LoadArticles()

	stats := Stats{
		TotalArticles:  len(articles),
		TotalSummaries: len(t.store.LoadSummaries()),
		TotalUsers:     len(t.store.LoadUsers()),
		LastUpdated:    t.store.LastUpdated(),
		ByCategory:     make(map[string]int),
		BySource:       make(map[string]int),
	}

	for _, article := range articles {
		category := article.Category
		if category == "" {
			category = "uncategorized"
		}

		stats.ByCategory[category]++
		stats.BySource[article.Source]++
	}

	return stats
}

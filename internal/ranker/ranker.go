package ranker

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/llm"
)

const (
	// defaultScore is assigned to any article the model omitted or renamed.
	// The model's ranking is advisory; it never controls set completeness.
	defaultScore  = 5
	defaultReason = "Not ranked by the model; included for completeness."

	minScore = 1
	maxScore = 10

	recencyHalfStepHours = 12
	richnessCapChars     = 300
	richnessDivisor      = 100
)

// Ranker orders article batches by expected reader impact and produces digest
// prose. It owns no persistent state; every invocation is a pure transform
// over its inputs.
type Ranker struct {
	completer llm.Completer
	now       func() time.Time
	log       *slog.Logger
}

func New(completer llm.Completer, log *slog.Logger) *Ranker {
	return &Ranker{
		completer: completer,
		now:       time.Now,
		log:       log,
	}
}

// Rank asks the model to judge the whole batch and returns every input
// article, ordered by score descending. Articles the model dropped or renamed
// are appended with a neutral default. Any model failure switches to the
// deterministic heuristic ordering. topN, when positive, truncates the final
// result — never the candidate set the model sees.
func (r *Ranker) Rank(ctx context.Context, articles []domain.Article, topN int) []domain.RankedArticle {
	if len(articles) == 0 {
		return nil
	}

	ranked, ok := r.modelRank(ctx, articles)
	if !ok {
		ranked = r.heuristicRank(articles)
	}

	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}

	return ranked
}

func (r *Ranker) modelRank(ctx context.Context, articles []domain.Article) ([]domain.RankedArticle, bool) {
	if r.completer == nil {
		return nil, false
	}

	response, err := r.completer.Complete(ctx, rankPrompt(articles))
	if err != nil {
		r.log.WarnContext(ctx, "Model ranking failed, using heuristic fallback",
			"error", err,
			"articleCount", len(articles))

		return nil, false
	}

	parsed := parseRanking(response)
	if !parsed.ok() {
		r.log.WarnContext(ctx, "Model ranking response is unparseable, using heuristic fallback",
			"articleCount", len(articles),
			"responseLen", len(parsed.raw))

		return nil, false
	}

	byTitle := make(map[string]rankEntry, len(parsed.entries))
	for _, entry := range parsed.entries {
		if _, ok := byTitle[entry.Title]; ok {
			continue
		}
		byTitle[entry.Title] = entry
	}

	var ranked, missing []domain.RankedArticle
	for _, article := range articles {
		entry, ok := byTitle[article.Title]
		if !ok {
			missing = append(missing, domain.RankedArticle{
				Article: article,
				Score:   defaultScore,
				Reason:  defaultReason,
			})

			continue
		}

		ranked = append(ranked, domain.RankedArticle{
			Article: article,
			Score:   clampScore(entry.Score),
			Reason:  strings.TrimSpace(entry.Reason),
		})
	}

	sortByScoreDesc(ranked)

	return append(ranked, missing...), true
}

// heuristicRank scores each article with a recency component (10 minus
// age-in-hours/12, floored at 0) plus a content-richness component (summary
// length capped at 300 chars, divided by 100). Fully deterministic for a
// fixed batch and clock.
func (r *Ranker) heuristicRank(articles []domain.Article) []domain.RankedArticle {
	now := r.now()

	type scored struct {
		ranked domain.RankedArticle
		value  float64
	}

	items := make([]scored, 0, len(articles))
	for _, article := range articles {
		value := r.heuristicScore(now, article)

		items = append(items, scored{
			ranked: domain.RankedArticle{
				Article: article,
				Score:   clampScore(int(math.Round(value))),
				Reason:  "Heuristic ranking by recency and content length.",
			},
			value: value,
		})
	}

	slices.SortStableFunc(items, func(a, b scored) int {
		return cmp.Compare(b.value, a.value)
	})

	ranked := make([]domain.RankedArticle, len(items))
	for i, item := range items {
		ranked[i] = item.ranked
	}

	return ranked
}

func (r *Ranker) heuristicScore(now time.Time, article domain.Article) float64 {
	recency := 0.0
	if article.Published != nil {
		ageHours := now.Sub(*article.Published).Hours()
		recency = math.Max(0, maxScore-ageHours/recencyHalfStepHours)
	}

	richness := float64(min(len(article.Description), richnessCapChars)) / richnessDivisor

	return recency + richness
}

func clampScore(score int) int {
	return min(max(score, minScore), maxScore)
}

func sortByScoreDesc(ranked []domain.RankedArticle) {
	slices.SortStableFunc(ranked, func(a, b domain.RankedArticle) int {
		return cmp.Compare(b.Score, a.Score)
	})
}

package ranker

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"newsdigest/internal/domain"
)

type stubCompleter struct {
	response string
	err      error
	calls    int
}

func (s *stubCompleter) Complete(_ context.Context, _ string) (string, error) {
	s.calls++

	return s.response, s.err
}

func testArticles(now time.Time) []domain.Article {
	fresh := now.Add(-time.Hour)
	stale := now.Add(-48 * time.Hour)
	old := now.Add(-120 * time.Hour)

	return []domain.Article{
		{ID: "a1", Title: "Fresh release", Description: "A very detailed description of the release.", Published: &fresh},
		{ID: "a2", Title: "Stale update", Description: "Short.", Published: &stale},
		{ID: "a3", Title: "Old story", Description: "", Published: &old},
	}
}

func rankedIDs(ranked []domain.RankedArticle) map[string]bool {
	ids := make(map[string]bool, len(ranked))
	for _, entry := range ranked {
		ids[entry.ID] = true
	}

	return ids
}

func TestRankKeepsEveryArticleOnPartialModelOutput(t *testing.T) {
	now := time.Now().UTC()
	articles := testArticles(now)

	stub := &stubCompleter{
		response: `{"ranked": [{"title": "Stale update", "score": 9, "reason": "big deal"}]}`,
	}

	r := New(stub, slog.Default())
	ranked := r.Rank(context.Background(), articles, 0)

	if len(ranked) != len(articles) {
		t.Fatalf("expected %d ranked articles, got %d", len(articles), len(ranked))
	}

	ids := rankedIDs(ranked)
	for _, article := range articles {
		if !ids[article.ID] {
			t.Fatalf("article %s is missing from ranking", article.ID)
		}
	}

	if ranked[0].ID != "a2" || ranked[0].Score != 9 {
		t.Fatalf("expected a2 with score 9 first, got %s with score %d", ranked[0].ID, ranked[0].Score)
	}

	for _, entry := range ranked[1:] {
		if entry.Score != defaultScore {
			t.Fatalf("expected default score %d for unranked article %s, got %d", defaultScore, entry.ID, entry.Score)
		}
		if entry.Reason != defaultReason {
			t.Fatalf("unexpected reason for unranked article %s: %q", entry.ID, entry.Reason)
		}
	}
}

func TestRankParsesFencedResponse(t *testing.T) {
	now := time.Now().UTC()
	articles := testArticles(now)

	stub := &stubCompleter{
		response: "```json\n" +
			`{"ranked": [` +
			`{"title": "Fresh release", "score": 3, "reason": "minor"},` +
			`{"title": "Stale update", "score": 8, "reason": "major"},` +
			`{"title": "Old story", "score": 15, "reason": "out of range"}` +
			"]}\n```",
	}

	r := New(stub, slog.Default())
	ranked := r.Rank(context.Background(), articles, 0)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked articles, got %d", len(ranked))
	}

	if ranked[0].ID != "a3" || ranked[0].Score != maxScore {
		t.Fatalf("expected a3 clamped to %d first, got %s with score %d", maxScore, ranked[0].ID, ranked[0].Score)
	}

	if ranked[1].ID != "a2" || ranked[2].ID != "a1" {
		t.Fatalf("unexpected order: %s, %s", ranked[1].ID, ranked[2].ID)
	}
}

func TestRankFallsBackOnGarbageResponse(t *testing.T) {
	now := time.Now().UTC()
	articles := testArticles(now)

	stub := &stubCompleter{response: "I cannot rank these articles, sorry!"}

	r := New(stub, slog.Default())
	r.now = func() time.Time { return now }

	ranked := r.Rank(context.Background(), articles, 0)

	if len(ranked) != len(articles) {
		t.Fatalf("expected %d ranked articles, got %d", len(articles), len(ranked))
	}

	if ranked[0].ID != "a1" {
		t.Fatalf("expected freshest article first in heuristic order, got %s", ranked[0].ID)
	}
}

func TestRankFallbackIsDeterministic(t *testing.T) {
	now := time.Now().UTC()
	articles := testArticles(now)

	stub := &stubCompleter{err: errors.New("model unreachable")}

	r := New(stub, slog.Default())
	r.now = func() time.Time { return now }

	first := r.Rank(context.Background(), articles, 0)
	second := r.Rank(context.Background(), articles, 0)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fallback ranking differs between identical runs:\n%v\n%v", first, second)
	}
}

func TestRankTopNTruncatesAfterRanking(t *testing.T) {
	now := time.Now().UTC()
	articles := testArticles(now)

	r := New(nil, slog.Default())
	r.now = func() time.Time { return now }

	ranked := r.Rank(context.Background(), articles, 2)

	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked articles, got %d", len(ranked))
	}

	if ranked[0].ID != "a1" {
		t.Fatalf("expected a1 first, got %s", ranked[0].ID)
	}
}

func TestRankEmptyInput(t *testing.T) {
	r := New(nil, slog.Default())

	if ranked := r.Rank(context.Background(), nil, 5); ranked != nil {
		t.Fatalf("expected nil for empty input, got %v", ranked)
	}
}

func TestHeuristicScoreComponents(t *testing.T) {
	now := time.Now().UTC()
	r := New(nil, slog.Default())

	fresh := now.Add(-time.Hour)
	article := domain.Article{Published: &fresh, Description: "12345"}

	got := r.heuristicScore(now, article)
	want := (10 - 1.0/12) + 0.05

	if diff := got - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("unexpected heuristic score: got %f, want %f", got, want)
	}

	if score := r.heuristicScore(now, domain.Article{}); score != 0 {
		t.Fatalf("expected zero score without date and description, got %f", score)
	}
}

func TestSummarizeFallsBackToTemplate(t *testing.T) {
	now := time.Now().UTC()
	articles := testArticles(now)

	stub := &stubCompleter{err: errors.New("model unreachable")}
	r := New(stub, slog.Default())

	digest := r.Summarize(context.Background(), articles)

	for _, article := range articles {
		if !strings.Contains(digest, article.Title) {
			t.Fatalf("fallback digest is missing title %q", article.Title)
		}
	}

	if stub.calls != 1 {
		t.Fatalf("expected exactly one model call, got %d", stub.calls)
	}
}

func TestSummarizeWithoutCompleterUsesTemplate(t *testing.T) {
	now := time.Now().UTC()
	articles := testArticles(now)

	r := New(nil, slog.Default())

	digest := r.Summarize(context.Background(), articles)
	if digest == "" {
		t.Fatal("expected non-empty fallback digest")
	}
}

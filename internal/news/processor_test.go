package news

import (
	"context"
	"errors"
	"log/slog"
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

func TestCategorizeConfidentKeywordsSkipModel(t *testing.T) {
	stub := &stubCompleter{response: "politics"}
	p := NewProcessor(stub, slog.Default())

	article := domain.Article{
		Title: "Football championship draws record crowd",
	}

	if got := p.Categorize(context.Background(), article); got != "sports" {
		t.Fatalf("expected sports, got %q", got)
	}

	if stub.calls != 0 {
		t.Fatalf("expected no model calls for a confident keyword match, got %d", stub.calls)
	}
}

func TestCategorizeLowConfidenceConsultsModel(t *testing.T) {
	stub := &stubCompleter{response: " Sports \n"}
	p := NewProcessor(stub, slog.Default())

	article := domain.Article{
		Title: "The basketball finals were thrilling",
	}

	if got := p.Categorize(context.Background(), article); got != "sports" {
		t.Fatalf("expected sports from the model, got %q", got)
	}

	if stub.calls != 1 {
		t.Fatalf("expected one model call, got %d", stub.calls)
	}
}

func TestCategorizeModelFailureFallsBackToKeywordWinner(t *testing.T) {
	stub := &stubCompleter{err: errors.New("model unreachable")}
	p := NewProcessor(stub, slog.Default())

	article := domain.Article{
		Title: "The basketball finals were thrilling",
	}

	if got := p.Categorize(context.Background(), article); got != "sports" {
		t.Fatalf("expected keyword fallback sports, got %q", got)
	}
}

func TestCategorizeNoSignalYieldsOther(t *testing.T) {
	stub := &stubCompleter{err: errors.New("model unreachable")}
	p := NewProcessor(stub, slog.Default())

	article := domain.Article{
		Title: "Untitled musings of the weekend",
	}

	if got := p.Categorize(context.Background(), article); got != CategoryOther {
		t.Fatalf("expected %q, got %q", CategoryOther, got)
	}
}

func TestProcessDropsInvalidArticles(t *testing.T) {
	p := NewProcessor(nil, slog.Default())

	now := time.Now().UTC()
	articles := []domain.Article{
		{ID: "short", Title: "Tiny"},
		{ID: "spam", Title: "Click here for a FREE offer on software"},
		{ID: "good", Title: "Football championship draws record crowd", Published: &now},
	}

	processed := p.Process(context.Background(), articles)

	if len(processed) != 1 || processed[0].ID != "good" {
		t.Fatalf("expected only the valid article, got %+v", processed)
	}

	if processed[0].Category != "sports" {
		t.Fatalf("expected assigned category, got %q", processed[0].Category)
	}

	if processed[0].Relevance <= 0 {
		t.Fatalf("expected positive relevance, got %f", processed[0].Relevance)
	}
}

func TestRelevanceScoreComponents(t *testing.T) {
	p := NewProcessor(nil, slog.Default())

	now := time.Now().UTC()
	p.now = func() time.Time { return now }

	published := now.Add(-2 * time.Hour)
	article := domain.Article{
		Title:       "A reasonably long headline about infrastructure",
		Description: strings.Repeat("detail ", 30),
		Source:      "TechCrunch",
		Published:   &published,
	}

	got := p.RelevanceScore(article)
	want := 0.3 + 0.2 + 0.2

	if diff := got - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("unexpected relevance: got %f, want %f", got, want)
	}

	if score := p.RelevanceScore(domain.Article{Title: "x"}); score != 0 {
		t.Fatalf("expected zero relevance for a bare article, got %f", score)
	}
}

func TestFilterByRelevance(t *testing.T) {
	articles := []domain.Article{
		{ID: "low", Relevance: 0.1},
		{ID: "high", Relevance: 0.5},
	}

	filtered := FilterByRelevance(articles, 0.2)

	if len(filtered) != 1 || filtered[0].ID != "high" {
		t.Fatalf("unexpected filter result: %+v", filtered)
	}
}

func TestSortByRelevanceIsStableAndDescending(t *testing.T) {
	articles := []domain.Article{
		{ID: "a", Relevance: 0.2},
		{ID: "b", Relevance: 0.9},
		{ID: "c", Relevance: 0.2},
	}

	sorted := SortByRelevance(articles)

	if sorted[0].ID != "b" || sorted[1].ID != "a" || sorted[2].ID != "c" {
		t.Fatalf("unexpected order: %s, %s, %s", sorted[0].ID, sorted[1].ID, sorted[2].ID)
	}

	if articles[0].ID != "a" {
		t.Fatal("expected the input slice to be left untouched")
	}
}

func TestCleanHTML(t *testing.T) {
	got := CleanHTML("<p>Hello &amp; welcome</p>\n  <b>world</b>")

	if got != "Hello & welcome world" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}

	if CleanHTML("") != "" {
		t.Fatal("expected empty input to stay empty")
	}
}

func TestTruncate(t *testing.T) {
	text := strings.Repeat("word ", 100)

	got := Truncate(text, 50)

	if len(got) > 50 {
		t.Fatalf("truncated text exceeds limit: %d", len(got))
	}

	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}

	if short := Truncate("short", 50); short != "short" {
		t.Fatalf("expected short text unchanged, got %q", short)
	}
}

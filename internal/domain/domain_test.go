package domain

import (
	"testing"
	"time"
)

func TestArticleIDIsStableAcrossWhitespace(t *testing.T) {
	a := ArticleID("https://example.com/post", "A headline")
	b := ArticleID("  https://example.com/post  ", "A headline\n")

	if a != b {
		t.Fatalf("expected identical IDs, got %q and %q", a, b)
	}

	if len(a) != articleIDHexLen {
		t.Fatalf("unexpected ID length: %d", len(a))
	}
}

func TestArticleIDDistinguishesContent(t *testing.T) {
	a := ArticleID("https://example.com/post", "A headline")
	b := ArticleID("https://example.com/post", "Another headline")

	if a == b {
		t.Fatal("expected different IDs for different titles")
	}
}

func TestPublishedKeyOrdering(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	a := Article{Published: &older}
	b := Article{Published: &newer}
	undated := Article{}

	if a.PublishedKey() >= b.PublishedKey() {
		t.Fatal("expected older timestamp to sort below newer")
	}

	if undated.PublishedKey() != "" {
		t.Fatalf("expected empty key for nil timestamp, got %q", undated.PublishedKey())
	}
}

package bot

import (
	"testing"
	"time"

	"newsdigest/internal/domain"
)

func articleFixture() domain.Article {
	return domain.Article{
		ID:       "big",
		Title:    "Big news",
		Link:     "https://example.com/big",
		Source:   "Example",
		Category: "technology",
	}
}

func TestCooldownRejectsSecondCallWithinWindow(t *testing.T) {
	now := time.Now()

	c := NewCooldowns()
	c.now = func() time.Time { return now }

	if _, ok := c.Try(42, "news", newsCooldown); !ok {
		t.Fatal("expected the first call to pass")
	}

	remaining, ok := c.Try(42, "news", newsCooldown)
	if ok {
		t.Fatal("expected the second call to be rejected")
	}

	if remaining <= 0 || remaining > newsCooldown {
		t.Fatalf("unexpected remaining window: %v", remaining)
	}
}

func TestCooldownExpires(t *testing.T) {
	now := time.Now()

	c := NewCooldowns()
	c.now = func() time.Time { return now }

	if _, ok := c.Try(42, "news", newsCooldown); !ok {
		t.Fatal("expected the first call to pass")
	}

	now = now.Add(newsCooldown)

	if _, ok := c.Try(42, "news", newsCooldown); !ok {
		t.Fatal("expected the call after the window to pass")
	}
}

func TestCooldownIsScopedPerUserAndCommand(t *testing.T) {
	now := time.Now()

	c := NewCooldowns()
	c.now = func() time.Time { return now }

	if _, ok := c.Try(42, "news", newsCooldown); !ok {
		t.Fatal("expected the first call to pass")
	}

	if _, ok := c.Try(43, "news", newsCooldown); !ok {
		t.Fatal("expected a different user to pass")
	}

	if _, ok := c.Try(42, "summary", summaryCooldown); !ok {
		t.Fatal("expected a different command to pass")
	}
}

func TestCooldownRejectionLeavesWindowIntact(t *testing.T) {
	start := time.Now()
	now := start

	c := NewCooldowns()
	c.now = func() time.Time { return now }

	if _, ok := c.Try(42, "news", newsCooldown); !ok {
		t.Fatal("expected the first call to pass")
	}

	// A rejected attempt must not extend the window.
	now = start.Add(newsCooldown - time.Second)
	if _, ok := c.Try(42, "news", newsCooldown); ok {
		t.Fatal("expected rejection inside the window")
	}

	now = start.Add(newsCooldown)
	if _, ok := c.Try(42, "news", newsCooldown); !ok {
		t.Fatal("expected the window to expire relative to the accepted call")
	}
}

package bot

import (
	"strings"
	"testing"
)

func TestChunkMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
	}{
		{"short text", "hello world", 100},
		{"two paragraphs", "first paragraph\n\nsecond paragraph", 20},
		{"oversize paragraph", strings.Repeat("x", 95), 10},
		{"mixed", "short\n\n" + strings.Repeat("y", 50) + "\n\ntail", 25},
		{"separator runs", "a\n\n\n\nb", 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			chunks := ChunkMessage(test.text, test.limit)

			for i, chunk := range chunks {
				if len(chunk) > test.limit {
					t.Fatalf("chunk %d exceeds limit: %d > %d", i, len(chunk), test.limit)
				}

				if chunk == "" {
					t.Fatalf("chunk %d is empty", i)
				}
			}

			if got := strings.Join(chunks, ""); got != test.text {
				t.Fatalf("round trip mismatch:\ngot  %q\nwant %q", got, test.text)
			}
		})
	}
}

func TestChunkMessagePrefersParagraphBoundaries(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph\n\nthird paragraph"

	chunks := ChunkMessage(text, 20)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %q", len(chunks), chunks)
	}

	if !strings.HasPrefix(chunks[1], "second") {
		t.Fatalf("expected the second chunk to start at a paragraph, got %q", chunks[1])
	}
}

func TestChunkMessageEmptyText(t *testing.T) {
	if chunks := ChunkMessage("", 10); chunks != nil {
		t.Fatalf("expected nil for empty text, got %q", chunks)
	}
}

func TestChunkMessageSingleChunkWhenUnderLimit(t *testing.T) {
	text := "fits easily"

	chunks := ChunkMessage(text, telegramMessageMaxLength)

	if len(chunks) != 1 || chunks[0] != text {
		t.Fatalf("expected a single chunk, got %q", chunks)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got := escapeMarkdownV2("a.b (c) [d] *e*")
	want := `a\.b \(c\) \[d\] \*e\*`

	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if plain := escapeMarkdownV2("no specials here"); plain != "no specials here" {
		t.Fatalf("expected unchanged text, got %q", plain)
	}
}

func TestFormatArticleFallbackIsPlain(t *testing.T) {
	got := formatArticleFallback(articleFixture(), 3)

	if !strings.Contains(got, "3. Big news") || !strings.Contains(got, "https://example.com/big") {
		t.Fatalf("unexpected fallback text: %q", got)
	}

	if strings.Contains(got, "*") || strings.Contains(got, "\\") {
		t.Fatalf("fallback text must not contain markup: %q", got)
	}
}

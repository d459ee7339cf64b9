package ranker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/news"
)

const (
	digestWordCap = 350

	fallbackArticleCap    = 10
	fallbackSummaryChars  = 150
	unknownDate           = "unknown"
	defaultArticleSummary = "No summary available"
)

// Summarize produces a prose digest for the batch: a neutral-tone overview
// followed by a bulleted top-5 with per-item reason and link. On any model
// failure it returns a deterministic templated roundup instead.
func (r *Ranker) Summarize(ctx context.Context, articles []domain.Article) string {
	if len(articles) == 0 {
		return "No articles to summarize."
	}

	if r.completer != nil {
		digest, err := r.completer.Complete(ctx, digestPrompt(articles))
		if err == nil && strings.TrimSpace(digest) != "" {
			return strings.TrimSpace(digest)
		}

		if err != nil {
			r.log.WarnContext(ctx, "Model digest failed, using templated fallback",
				"error", err,
				"articleCount", len(articles))
		}
	}

	return fallbackDigest(articles)
}

// SummarizeArticle generates a single-article summary capped at maxLen
// characters. Unlike Summarize there is no deterministic fallback; the
// pipeline simply skips summaries the model could not produce.
func (r *Ranker) SummarizeArticle(ctx context.Context, article domain.Article, maxLen int, model string) (domain.Summary, error) {
	if r.completer == nil {
		return domain.Summary{}, fmt.Errorf("no model configured")
	}

	if strings.TrimSpace(article.Title) == "" && strings.TrimSpace(article.Description) == "" {
		return domain.Summary{}, fmt.Errorf("article %s has no content", article.ID)
	}

	text, err := r.completer.Complete(ctx, articleSummaryPrompt(article, maxLen))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summarize article %s: %w", article.ID, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Summary{}, fmt.Errorf("empty summary for article %s", article.ID)
	}

	return domain.Summary{
		ArticleID:   article.ID,
		Text:        text,
		GeneratedAt: r.now().UTC(),
		Model:       model,
		WordCount:   len(strings.Fields(text)),
	}, nil
}

// KeyPoints extracts 3-5 short bullet points for an article. Failures yield
// nil; key points are optional decoration.
func (r *Ranker) KeyPoints(ctx context.Context, article domain.Article) []string {
	if r.completer == nil {
		return nil
	}

	response, err := r.completer.Complete(ctx, keyPointsPrompt(article))
	if err != nil {
		r.log.WarnContext(ctx, "Key point extraction failed",
			"error", err,
			"articleID", article.ID)

		return nil
	}

	var points []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•* "))
		if line != "" {
			points = append(points, line)
		}
	}

	return points
}

// rankPrompt serializes every article field deterministically so identical
// inputs always produce identical prompts.
func rankPrompt(articles []domain.Article) string {
	var b strings.Builder

	b.WriteString("Rank the following news articles by expected reader impact.\n")
	b.WriteString("Return a strict JSON object of the form:\n")
	b.WriteString(`{"ranked": [{"title": "<exact input title>", "score": <integer 1-10>, "reason": "<short justification>"}]}`)
	b.WriteString("\nInclude every article exactly once and copy titles verbatim.\n\nArticles:\n")

	for i, article := range articles {
		writeArticleBlock(&b, i+1, article)
	}

	return b.String()
}

func digestPrompt(articles []domain.Article) string {
	var b strings.Builder

	b.WriteString("Write a news digest with a neutral tone.\n")
	b.WriteString("Start with a short overview paragraph of today's themes, then a bulleted list of the top 5 articles.\n")
	b.WriteString("For each bullet give the title, one sentence on why it matters, and the link.\n")
	fmt.Fprintf(&b, "Keep the whole digest under %d words.\n\nArticles:\n", digestWordCap)

	for i, article := range articles {
		writeArticleBlock(&b, i+1, article)
	}

	return b.String()
}

func articleSummaryPrompt(article domain.Article, maxLen int) string {
	var b strings.Builder

	b.WriteString("Provide a concise summary of the following news article. ")
	fmt.Fprintf(&b, "Focus on the main points and keep the summary under %d characters.\n\n", maxLen)
	fmt.Fprintf(&b, "Title: %s\n\nDescription: %s\n\nSummary:", article.Title, article.Description)

	return b.String()
}

func keyPointsPrompt(article domain.Article) string {
	var b strings.Builder

	b.WriteString("Extract 3-5 key points from the following news article. ")
	b.WriteString("Present each point on a new line starting with a bullet.\n\n")
	fmt.Fprintf(&b, "Title: %s\n\nDescription: %s\n\nKey Points:", article.Title, article.Description)

	return b.String()
}

func writeArticleBlock(b *strings.Builder, index int, article domain.Article) {
	published := unknownDate
	if article.Published != nil {
		published = article.Published.UTC().Format(time.RFC3339)
	}

	fmt.Fprintf(b, "%d. Title: %s\n", index, article.Title)
	fmt.Fprintf(b, "   Summary: %s\n", article.Description)
	fmt.Fprintf(b, "   Source: %s\n", article.Source)
	fmt.Fprintf(b, "   Published: %s\n", published)
}

func fallbackDigest(articles []domain.Article) string {
	var b strings.Builder

	b.WriteString("Here are the articles for today:\n\n")

	count := min(len(articles), fallbackArticleCap)
	for _, article := range articles[:count] {
		summary := article.Description
		if strings.TrimSpace(summary) == "" {
			summary = defaultArticleSummary
		}

		fmt.Fprintf(&b, "*%s*\n", article.Title)
		fmt.Fprintf(&b, "Summary: %s\n", news.Truncate(summary, fallbackSummaryChars))
		fmt.Fprintf(&b, "Source: %s\n", article.Source)
		fmt.Fprintf(&b, "Link: %s\n\n", article.Link)
	}

	if len(articles) > fallbackArticleCap {
		fmt.Fprintf(&b, "... and %d more articles.\n", len(articles)-fallbackArticleCap)
	}

	return b.String()
}

package news

import (
	"cmp"
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/llm"
)

const (
	// confidentKeywordHits is the minimum number of keyword matches for the
	// winning category before the model is consulted.
	confidentKeywordHits = 2

	minTitleLen = 10
)

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(click here|read more|subscribe now)\b`),
	regexp.MustCompile(`\$\d+`),
	regexp.MustCompile(`(?i)\b(free|discount|sale|offer)\b`),
	regexp.MustCompile(`[A-Z]{5,}`),
}

var reputableSources = []string{
	"techcrunch", "ars technica", "the verge", "bbc", "reuters", "wired",
}

// Processor validates, categorizes and scores articles. Categorization is
// keyword-first with an LLM fallback for low-confidence cases, keeping the
// common case cheap and deterministic.
type Processor struct {
	completer llm.Completer
	now       func() time.Time
	log       *slog.Logger
}

func NewProcessor(completer llm.Completer, log *slog.Logger) *Processor {
	return &Processor{
		completer: completer,
		now:       time.Now,
		log:       log,
	}
}

// Process filters out invalid articles, then assigns a category and relevance
// score to each survivor. A failure on one article never drops the batch.
func (p *Processor) Process(ctx context.Context, articles []domain.Article) []domain.Article {
	processed := make([]domain.Article, 0, len(articles))

	for _, article := range articles {
		if !p.valid(article) {
			continue
		}

		article.Category = p.Categorize(ctx, article)
		article.Relevance = p.RelevanceScore(article)
		processed = append(processed, article)
	}

	p.log.InfoContext(ctx, "Processed articles",
		"inputCount", len(articles),
		"outputCount", len(processed))

	return processed
}

func (p *Processor) valid(article domain.Article) bool {
	title := strings.TrimSpace(article.Title)
	if len(title) < minTitleLen {
		return false
	}

	content := strings.ToLower(title + " " + strings.TrimSpace(article.Description))
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(content) {
			return false
		}
	}

	return true
}

// Categorize assigns a topic label. Keyword matching runs first; the model is
// consulted only when the winning category has fewer than two keyword hits,
// and any model failure falls back to the keyword winner or "other".
func (p *Processor) Categorize(ctx context.Context, article domain.Article) string {
	content := strings.ToLower(article.Title + " " + article.Description)

	winner, hits := keywordWinner(content)

	if winner != "" && hits >= confidentKeywordHits {
		return winner
	}

	if category, ok := p.llmCategorize(ctx, article); ok {
		return category
	}

	if winner != "" {
		return winner
	}

	return CategoryOther
}

func keywordWinner(content string) (string, int) {
	var winner string
	best := 0

	for _, category := range Categories() {
		score := 0
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(content, keyword) {
				score++
			}
		}

		if score > best {
			best = score
			winner = category
		}
	}

	return winner, best
}

func (p *Processor) llmCategorize(ctx context.Context, article domain.Article) (string, bool) {
	if p.completer == nil {
		return "", false
	}

	response, err := p.completer.Complete(ctx, categorizePrompt(article))
	if err != nil {
		p.log.WarnContext(ctx, "Model categorization failed, using keyword fallback",
			"error", err,
			"articleID", article.ID)

		return "", false
	}

	category := strings.ToLower(strings.TrimSpace(response))
	if category == "" {
		return "", false
	}

	return category, true
}

func categorizePrompt(article domain.Article) string {
	var b strings.Builder

	b.WriteString("Categorize the following news article into exactly one of these categories:\n")
	for _, category := range Categories() {
		b.WriteString("- ")
		b.WriteString(category)
		b.WriteString("\n")
	}
	b.WriteString("\nArticle:\nTitle: ")
	b.WriteString(article.Title)
	b.WriteString("\n\nDescription: ")
	b.WriteString(article.Description)
	b.WriteString("\n\nAnswer with the category name only.")

	return b.String()
}

// RelevanceScore is a 0..1 heuristic combining recency, content length and
// source reputation.
func (p *Processor) RelevanceScore(article domain.Article) float64 {
	score := 0.0

	if article.Published != nil {
		days := int(p.now().Sub(*article.Published).Hours() / 24)
		switch {
		case days <= 1:
			score += 0.3
		case days <= 3:
			score += 0.2
		case days <= 7:
			score += 0.1
		}
	}

	contentLen := len(article.Title) + len(article.Description)
	switch {
	case contentLen > 200:
		score += 0.2
	case contentLen > 100:
		score += 0.1
	}

	source := strings.ToLower(article.Source)
	for _, reputable := range reputableSources {
		if strings.Contains(source, reputable) {
			score += 0.2
			break
		}
	}

	return min(score, 1.0)
}

// FilterByCategory keeps articles whose assigned category matches.
func FilterByCategory(articles []domain.Article, category string) []domain.Article {
	var filtered []domain.Article
	for _, article := range articles {
		if article.Category == category {
			filtered = append(filtered, article)
		}
	}

	return filtered
}

// FilterByRelevance keeps articles at or above the minimum score.
func FilterByRelevance(articles []domain.Article, minScore float64) []domain.Article {
	var filtered []domain.Article
	for _, article := range articles {
		if article.Relevance >= minScore {
			filtered = append(filtered, article)
		}
	}

	return filtered
}

// SortByRelevance orders articles by relevance score, highest first.
func SortByRelevance(articles []domain.Article) []domain.Article {
	sorted := slices.Clone(articles)
	slices.SortStableFunc(sorted, func(a, b domain.Article) int {
		return cmp.Compare(b.Relevance, a.Relevance)
	})

	return sorted
}

// CleanHTML strips tags and decodes common entities from feed descriptions.
func CleanHTML(text string) string {
	if text == "" {
		return ""
	}

	clean := htmlTagRe.ReplaceAllString(text, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	clean = replacer.Replace(clean)

	return strings.Join(strings.Fields(clean), " ")
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// Truncate shortens text to maxLen, preferring a word boundary in the last
// fifth of the allowance.
func Truncate(text string, maxLen int) string {
	const suffix = "..."

	if len(text) <= maxLen {
		return text
	}

	cut := text[:maxLen-len(suffix)]
	if idx := strings.LastIndex(cut, " "); idx > maxLen*4/5 {
		cut = cut[:idx]
	}

	return cut + suffix
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"newsdigest/internal/domain"
	"newsdigest/internal/news"
)

const (
	telegramMessageMaxLength = 4096

	paragraphSeparator  = "\n\n"
	summaryPreviewChars = 300
)

// ChunkMessage splits text into chunks of at most limit bytes, preferring to
// break on paragraph boundaries and hard-splitting only paragraphs that are
// longer than the limit on their own. Chunks are consecutive substrings of
// the input, so concatenating them reproduces it exactly.
func ChunkMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}

	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, segment := range strings.SplitAfter(text, paragraphSeparator) {
		if segment == "" {
			continue
		}

		if current.Len()+len(segment) <= limit {
			current.WriteString(segment)
			continue
		}

		flush()

		for len(segment) > limit {
			chunks = append(chunks, segment[:limit])
			segment = segment[limit:]
		}

		current.WriteString(segment)
	}

	flush()

	return chunks
}

// sendDigest delivers a header followed by one message per article with
// inline read/save buttons.
func (b *Bot) sendDigest(ctx context.Context, chatID int64, articles []domain.Article) error {
	if len(articles) == 0 {
		return b.sendPlain(chatID, "📰 No articles available at the moment. Check back later!")
	}

	header := fmt.Sprintf(
		"📰 *Latest News Digest*\n\nHere are the top %d articles:",
		len(articles),
	)

	var errs []error
	if err := b.sendMarkdown(chatID, header); err != nil {
		errs = append(errs, fmt.Errorf("send digest header: %w", err))
	}

	summaries := b.store.LoadSummaries()

	for i, article := range articles {
		if err := b.sendArticle(ctx, chatID, article, summaries, i+1); err != nil {
			errs = append(errs, fmt.Errorf("send article %s: %w", article.ID, err))
		}
	}

	return errors.Join(errs...)
}

// sendArticle formats one digest entry. A MarkdownV2 rejection degrades to a
// plain-text rendition so a bad title never loses the article.
func (b *Bot) sendArticle(
	ctx context.Context,
	chatID int64,
	article domain.Article,
	summaries map[string]domain.Summary,
	index int,
) error {
	var summaryText string
	if summary, ok := summaries[article.ID]; ok {
		summaryText = news.Truncate(summary.Text, summaryPreviewChars)
	}

	text := formatArticleMessage(article, summaryText, index)

	err := b.sendMessageWithKeyboard(chatID, text, articleKeyboard(article))
	if err == nil {
		return nil
	}

	b.log.WarnContext(ctx, "Markdown send failed, retrying as plain text",
		"error", err,
		"articleID", article.ID,
		"chatID", chatID)

	return b.sendPlain(chatID, formatArticleFallback(article, index))
}

func formatArticleMessage(article domain.Article, summary string, index int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%d\\. %s*\n\n", index, escapeMarkdownV2(article.Title))
	fmt.Fprintf(&b, "📰 Source: %s\n", escapeMarkdownV2(article.Source))
	fmt.Fprintf(&b, "🏷️ Category: %s\n", escapeMarkdownV2(titleCase(displayCategory(article.Category))))

	if summary != "" {
		fmt.Fprintf(&b, "\n📝 Summary: %s\n", escapeMarkdownV2(summary))
	}

	if len(article.KeyPoints) > 0 {
		b.WriteString("\n🔑 Key Points:\n")
		for _, point := range article.KeyPoints {
			fmt.Fprintf(&b, "• %s\n", escapeMarkdownV2(point))
		}
	}

	fmt.Fprintf(&b, "\n🔗 [Read full article](%s)", article.Link)

	return b.String()
}

func formatArticleFallback(article domain.Article, index int) string {
	return fmt.Sprintf(
		"%d. %s\n\nSource: %s\nCategory: %s\n\nRead: %s",
		index,
		article.Title,
		article.Source,
		displayCategory(article.Category),
		article.Link,
	)
}

func displayCategory(category string) string {
	if category == "" {
		return "uncategorized"
	}

	return category
}

func titleCase(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

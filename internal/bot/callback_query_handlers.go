package bot

import (
	"context"
	"fmt"
	"strings"

	"newsdigest/internal/news"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	data := strings.TrimSpace(callback.Data)

	switch {
	case strings.HasPrefix(data, categoryCallbackPrefix):
		return b.handleCategorySelection(ctx, callback, strings.TrimPrefix(data, categoryCallbackPrefix))
	case strings.HasPrefix(data, saveCallbackPrefix):
		return b.handleSaveArticle(callback, strings.TrimPrefix(data, saveCallbackPrefix))
	case strings.HasPrefix(data, feedbackCallbackPrefix):
		return b.handleFeedback(callback, strings.TrimPrefix(data, feedbackCallbackPrefix))
	}

	return nil
}

// handleCategorySelection stores the chosen category as the user's preference
// and immediately serves a digest for it.
func (b *Bot) handleCategorySelection(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	category string,
) error {
	userID := callback.From.ID
	chatID := callbackChatID(callback)

	pref := b.store.UserPreference(userID)
	pref.PreferredCategory = category

	if err := b.store.SaveUserPreference(userID, pref); err != nil {
		return b.answerCallback(callback, "❌ Error loading category",
			fmt.Errorf("save user preference: %w", err))
	}

	articles := b.store.LoadArticles()
	filtered := news.SortByRelevance(news.FilterByCategory(articles, category))

	if len(filtered) == 0 {
		if err := b.sendPlain(chatID, fmt.Sprintf("📰 No articles found in the %s category.", category)); err != nil {
			return b.answerCallback(callback, "❌ Error loading category",
				fmt.Errorf("send empty category notice: %w", err))
		}

		return b.answerCallback(callback, fmt.Sprintf("Showing %s news", category), nil)
	}

	limit := b.maxArticlesFor(pref)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	if err := b.sendDigest(ctx, chatID, filtered); err != nil {
		return b.answerCallback(callback, "❌ Error loading category",
			fmt.Errorf("send digest: %w", err))
	}

	return b.answerCallback(callback, fmt.Sprintf("Showing %s news", category), nil)
}

func (b *Bot) handleSaveArticle(callback *tgbotapi.CallbackQuery, articleID string) error {
	saved, err := b.store.SaveArticleForUser(callback.From.ID, articleID)
	if err != nil {
		return b.answerCallback(callback, "❌ Error saving article",
			fmt.Errorf("save article for user: %w", err))
	}

	if !saved {
		return b.answerCallback(callback, "📝 Article already saved", nil)
	}

	return b.answerCallback(callback, "✅ Article saved!", nil)
}

func (b *Bot) handleFeedback(callback *tgbotapi.CallbackQuery, feedback string) error {
	switch feedback {
	case "good":
		return b.answerCallback(callback, "👍 Thanks for your feedback!", nil)
	case "bad":
		return b.answerCallback(callback, "👎 We'll work to improve!", nil)
	default:
		return b.answerCallback(callback, "📝 Feedback received", nil)
	}
}

// answerCallback acknowledges the query with a toast and joins the send
// failure, if any, onto cause.
func (b *Bot) answerCallback(callback *tgbotapi.CallbackQuery, text string, cause error) error {
	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, text)); err != nil {
		if cause != nil {
			return fmt.Errorf("answer callback after %w: %w", cause, err)
		}

		return fmt.Errorf("answer callback: %w", err)
	}

	return cause
}

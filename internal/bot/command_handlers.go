package bot

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/news"
)

const welcomeText = `🤖 *Welcome to AI News Bot, %s\!*

I'm your personal AI\-powered news assistant\. Here's what I can do:

📰 Get the latest news from top tech sources
🤖 AI\-generated summaries and key points
🏷️ Smart categorization of articles
⚙️ Personalized news preferences

*Commands:*
/start \- Show this welcome message
/news \- Get latest news digest
/summary \- Get an AI\-written digest of today's top stories
/categories \- Browse news by category
/settings \- Manage your preferences
/help \- Show help information

*Quick Start:*
Send /news to get the latest technology news with AI summaries\!`

const helpText = `📚 *AI News Bot Help*

*Available Commands:*
/start \- Welcome message and introduction
/news \- Get latest news digest \(default: technology\)
/summary \- AI\-written digest of the top stories
/categories \- Browse news by category
/settings \- Manage your preferences
/stats \- View your usage statistics
/help \- Show this help message

*Admin Commands:*
/admin\_stats \- View bot statistics \(admin only\)
/broadcast \- Send message to all users \(admin only\)
/refresh \- Re\-fetch all sources from scratch \(admin only\)

*Tips:*
• Use /news to get started
• Try different categories with /categories
• Save articles you like for later reference`

const settingsText = `⚙️ *Your Settings*

*Preferred Category:* %s
*Max Articles per Digest:* %d

*Available Categories:*
%s
Use /categories to change your preferred category\.`

const statsText = `📊 *Your Statistics*

*Articles Read:* %d
*Articles Saved:* %d
*Last Active:* %s
*Preferred Category:* %s

Keep reading to see your stats grow\! 📈`

func (b *Bot) handleStartCommand(chatID int64, firstName string) error {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}

	return b.sendMarkdown(chatID, fmt.Sprintf(welcomeText, escapeMarkdownV2(name)))
}

func (b *Bot) handleHelpCommand(chatID int64) error {
	return b.sendMarkdown(chatID, helpText)
}

func (b *Bot) handleNewsCommand(ctx context.Context, chatID, userID int64) error {
	if remaining, ok := b.cooldowns.Try(userID, "news", newsCooldown); !ok {
		return b.sendCooldownNotice(chatID, remaining)
	}

	articles := b.articlesForUser(userID)
	if len(articles) == 0 {
		return b.sendPlain(chatID, "📰 No articles available at the moment. Please try again later!")
	}

	var errs []error
	if err := b.sendDigest(ctx, chatID, articles); err != nil {
		errs = append(errs, fmt.Errorf("send digest: %w", err))
	}

	if err := b.store.MarkArticlesRead(userID, len(articles)); err != nil {
		errs = append(errs, fmt.Errorf("mark articles read: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) handleSummaryCommand(ctx context.Context, chatID, userID int64) error {
	if remaining, ok := b.cooldowns.Try(userID, "summary", summaryCooldown); !ok {
		return b.sendCooldownNotice(chatID, remaining)
	}

	articles := b.articlesForUser(userID)
	if len(articles) == 0 {
		return b.sendPlain(chatID, "📰 No articles available at the moment. Please try again later!")
	}

	ranked := b.ranker.Rank(ctx, articles, len(articles))

	ordered := make([]domain.Article, 0, len(ranked))
	for _, entry := range ranked {
		ordered = append(ordered, entry.Article)
	}

	digest := b.ranker.Summarize(ctx, ordered)

	chunks := ChunkMessage(digest, telegramMessageMaxLength)

	var errs []error
	for i, chunk := range chunks {
		var err error
		if i == len(chunks)-1 {
			err = b.send(chatID, chunk, "", feedbackKeyboard())
		} else {
			err = b.sendPlain(chatID, chunk)
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("send digest chunk %d: %w", i+1, err))
		}
	}

	return errors.Join(errs...)
}

func (b *Bot) handleSettingsCommand(chatID, userID int64) error {
	pref := b.store.UserPreference(userID)

	var categoryList strings.Builder
	for _, category := range news.Categories() {
		fmt.Fprintf(&categoryList, "• %s %s\n", news.CategoryEmoji(category), escapeMarkdownV2(titleCase(category)))
	}

	return b.sendMarkdown(chatID, fmt.Sprintf(
		settingsText,
		escapeMarkdownV2(titleCase(pref.PreferredCategory)),
		b.maxArticlesFor(pref),
		categoryList.String(),
	))
}

func (b *Bot) handleCategoriesCommand(chatID int64) error {
	return b.sendMessageWithKeyboard(
		chatID,
		"🏷️ *Select a news category:*\n\nChoose a category to browse articles:",
		b.categoryKeyboard,
	)
}

func (b *Bot) handleStatsCommand(chatID, userID int64) error {
	pref := b.store.UserPreference(userID)

	lastActive := "Never"
	if !pref.LastActive.IsZero() {
		lastActive = pref.LastActive.UTC().Format(time.RFC3339)
	}

	return b.sendMarkdown(chatID, fmt.Sprintf(
		statsText,
		pref.ArticlesRead,
		pref.ArticlesSaved,
		escapeMarkdownV2(lastActive),
		escapeMarkdownV2(titleCase(pref.PreferredCategory)),
	))
}

func (b *Bot) handleAdminStatsCommand(chatID, userID int64) error {
	if !b.isAdmin(userID) {
		return b.sendPlain(chatID, "❌ This command is only available to administrators.")
	}

	stats := b.tasks.Stats()

	var message strings.Builder

	message.WriteString("🔧 Admin Statistics\n\n")
	fmt.Fprintf(&message, "Total Articles: %d\n", stats.TotalArticles)
	fmt.Fprintf(&message, "Total Summaries: %d\n", stats.TotalSummaries)
	fmt.Fprintf(&message, "Total Users: %d\n", stats.TotalUsers)

	lastUpdated := "Unknown"
	if stats.LastUpdated != nil {
		lastUpdated = stats.LastUpdated.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(&message, "Last Update: %s\n", lastUpdated)

	message.WriteString("\nArticles by Category:\n")
	for _, category := range slices.Sorted(maps.Keys(stats.ByCategory)) {
		fmt.Fprintf(&message, "• %s: %d\n", titleCase(category), stats.ByCategory[category])
	}

	message.WriteString("\nScheduled Tasks:\n")
	for _, status := range b.sched.Status() {
		fmt.Fprintf(&message, "• %s: runs %d, next %s\n",
			status.ID,
			status.RunCount,
			status.NextRun.UTC().Format(time.RFC3339))
	}

	return b.sendPlain(chatID, message.String())
}

// handleBroadcastCommand sends the given text to every known user. Delivery
// failures are counted, not fatal; the admin gets a final tally.
func (b *Bot) handleBroadcastCommand(ctx context.Context, text string, chatID, userID int64) error {
	if !b.isAdmin(userID) {
		return b.sendPlain(chatID, "❌ This command is only available to administrators.")
	}

	broadcastText := strings.TrimSpace(strings.TrimPrefix(text, "/broadcast"))
	if broadcastText == "" {
		return b.sendPlain(chatID, "❌ Please provide a message to broadcast.\nUsage: /broadcast Your message here")
	}

	users := b.store.LoadUsers()
	if len(users) == 0 {
		return b.sendPlain(chatID, "📢 No known users to broadcast to.")
	}

	delivered := 0
	failed := 0

	for _, key := range slices.Sorted(maps.Keys(users)) {
		targetID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			b.log.WarnContext(ctx, "Skipping malformed user ID",
				"error", err,
				"userID", key)
			failed++

			continue
		}

		if err := b.sendPlain(targetID, "📢 Announcement\n\n"+broadcastText); err != nil {
			b.log.WarnContext(ctx, "Broadcast delivery failed",
				"error", err,
				"targetID", targetID)
			failed++

			continue
		}

		delivered++
	}

	return b.sendPlain(chatID, fmt.Sprintf(
		"📢 Broadcast finished: %d delivered, %d failed.",
		delivered,
		failed,
	))
}

// handleRefreshCommand queues a full re-fetch as a one-shot job so the heavy
// work stays off the chat-handling path.
func (b *Bot) handleRefreshCommand(chatID, userID int64) error {
	if !b.isAdmin(userID) {
		return b.sendPlain(chatID, "❌ This command is only available to administrators.")
	}

	b.sched.ScheduleOnce("force_refresh", b.tasks.ForceRefresh, 0)

	return b.sendPlain(chatID, "🔄 Full refresh is scheduled and will run within a minute.")
}

func (b *Bot) sendCooldownNotice(chatID int64, remaining time.Duration) error {
	seconds := int(remaining.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}

	return b.sendPlain(chatID, fmt.Sprintf(
		"⏳ Please wait %d seconds before using this command again.",
		seconds,
	))
}

// articlesForUser loads the stored articles filtered to the user's preferred
// category, falling back to the whole collection when the category is empty,
// sorted by relevance and capped at the user's digest size.
func (b *Bot) articlesForUser(userID int64) []domain.Article {
	pref := b.store.UserPreference(userID)

	articles := b.store.LoadArticles()

	filtered := news.FilterByCategory(articles, pref.PreferredCategory)
	if len(filtered) == 0 {
		filtered = articles
	}

	sorted := news.SortByRelevance(filtered)

	limit := b.maxArticlesFor(pref)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	return sorted
}

func (b *Bot) maxArticlesFor(pref domain.UserPreference) int {
	if pref.MaxArticles > 0 {
		return pref.MaxArticles
	}

	return b.maxArticles
}

package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"mvdan.cc/xurls/v2"
)

var urlFinder = xurls.Strict()

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	return b.withSpinner(ctx, message.Chat.ID, func() error {
		text := strings.TrimSpace(message.Text)
		chatID := message.Chat.ID
		userID := message.From.ID

		switch {
		case strings.HasPrefix(text, "/start"):
			return b.handleStartCommand(chatID, message.From.FirstName)
		case strings.HasPrefix(text, "/help"):
			return b.handleHelpCommand(chatID)
		case strings.HasPrefix(text, "/news"):
			return b.handleNewsCommand(ctx, chatID, userID)
		case strings.HasPrefix(text, "/summary"):
			return b.handleSummaryCommand(ctx, chatID, userID)
		case strings.HasPrefix(text, "/settings"):
			return b.handleSettingsCommand(chatID, userID)
		case strings.HasPrefix(text, "/categories"):
			return b.handleCategoriesCommand(chatID)
		case strings.HasPrefix(text, "/stats"):
			return b.handleStatsCommand(chatID, userID)
		case strings.HasPrefix(text, "/admin_stats"):
			return b.handleAdminStatsCommand(chatID, userID)
		case strings.HasPrefix(text, "/broadcast"):
			return b.handleBroadcastCommand(ctx, text, chatID, userID)
		case strings.HasPrefix(text, "/refresh"):
			return b.handleRefreshCommand(chatID, userID)
		default:
			return b.handleFreeText(ctx, text, chatID, userID)
		}
	})
}

// handleFreeText maps a few well-known words onto commands and recognizes
// pasted links. Anything else gets a pointer to /help.
func (b *Bot) handleFreeText(ctx context.Context, text string, chatID, userID int64) error {
	switch strings.ToLower(text) {
	case "news", "latest", "update":
		return b.handleNewsCommand(ctx, chatID, userID)
	case "help", "commands":
		return b.handleHelpCommand(chatID)
	case "categories", "category":
		return b.handleCategoriesCommand(chatID)
	case "settings", "preferences":
		return b.handleSettingsCommand(chatID, userID)
	case "stats", "statistics":
		return b.handleStatsCommand(chatID, userID)
	}

	if urls := urlFinder.FindAllString(text, -1); len(urls) > 0 {
		reply := fmt.Sprintf(
			"🔗 I noticed %d link(s), but I read from a fixed set of sources and cannot follow custom feeds.\nUse /news to get the latest digest!",
			len(urls),
		)

		return b.sendPlain(chatID, reply)
	}

	return b.sendPlain(chatID, "🤖 I didn't understand that. Try /help to see available commands!")
}

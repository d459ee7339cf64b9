package bot

import (
	"newsdigest/internal/domain"
	"newsdigest/internal/news"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	categoryKeyboardRowSize = 2

	categoryCallbackPrefix = "category_"
	saveCallbackPrefix     = "save_"
	feedbackCallbackPrefix = "feedback_"
)

func getCategoryKeyboard() [][]tgbotapi.InlineKeyboardButton {
	categories := news.Categories()

	var keyboard [][]tgbotapi.InlineKeyboardButton

	for i := 0; i < len(categories); i += categoryKeyboardRowSize {
		var row []tgbotapi.InlineKeyboardButton

		for j := i; j < i+categoryKeyboardRowSize && j < len(categories); j++ {
			category := categories[j]
			label := news.CategoryEmoji(category) + " " + titleCase(category)
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, categoryCallbackPrefix+category))
		}

		keyboard = append(keyboard, row)
	}

	return keyboard
}

func articleKeyboard(article domain.Article) [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonURL("📖 Read", article.Link),
			tgbotapi.NewInlineKeyboardButtonData("💾 Save", saveCallbackPrefix+article.ID),
		},
	}
}

func feedbackKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("👍 Good", feedbackCallbackPrefix+"good"),
			tgbotapi.NewInlineKeyboardButtonData("👎 Bad", feedbackCallbackPrefix+"bad"),
		},
	}
}

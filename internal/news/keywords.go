package news

// CategoryOther is assigned when neither keywords nor the model produce a
// category.
const CategoryOther = "other"

// Categories returns all assignable categories in canonical order.
func Categories() []string {
	return []string{
		"technology",
		"business",
		"science",
		"politics",
		"entertainment",
		"sports",
		"health",
		"environment",
		CategoryOther,
	}
}

var categoryKeywords = map[string][]string{
	"technology": {
		"ai", "artificial intelligence", "machine learning", "tech",
		"software", "hardware", "startup", "innovation",
	},
	"business": {
		"business", "finance", "economy", "market", "investment",
		"company", "corporate", "startup",
	},
	"science": {
		"science", "research", "study", "discovery", "scientific",
		"experiment", "laboratory",
	},
	"politics": {
		"politics", "government", "election", "policy", "political",
		"congress", "senate", "president",
	},
	"entertainment": {
		"movie", "film", "music", "celebrity", "entertainment",
		"hollywood", "streaming",
	},
	"sports": {
		"sports", "football", "basketball", "baseball", "soccer",
		"athlete", "game", "championship",
	},
	"health": {
		"health", "medical", "medicine", "disease", "treatment",
		"hospital", "doctor", "patient",
	},
	"environment": {
		"environment", "climate", "weather", "pollution",
		"sustainability", "green", "renewable",
	},
}

var categoryEmoji = map[string]string{
	"technology":    "🤖",
	"business":      "💼",
	"science":       "🔬",
	"politics":      "🏛️",
	"entertainment": "🎬",
	"sports":        "⚽",
	"health":        "🏥",
	"environment":   "🌍",
	CategoryOther:   "📰",
}

// CategoryEmoji returns a display emoji for a category.
func CategoryEmoji(category string) string {
	if emoji, ok := categoryEmoji[category]; ok {
		return emoji
	}

	return categoryEmoji[CategoryOther]
}

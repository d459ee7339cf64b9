package bot

import (
	"strings"
)

// Special characters per https://core.telegram.org/bots/api#markdownv2-style.
const mdV2Specials = "_*[]()~`>#+-=|{}.!"

func escapeMarkdownV2(input string) string {
	if !strings.ContainsAny(input, mdV2Specials) {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) * 2)

	for i := range len(input) {
		c := input[i]
		if strings.IndexByte(mdV2Specials, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

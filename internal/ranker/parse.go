package ranker

import (
	"encoding/json"
	"strings"
)

type rankEntry struct {
	Title  string `json:"title"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type rankDocument struct {
	Ranked []rankEntry `json:"ranked"`
}

// ranking is the tagged parse result: either entries were extracted, or the
// raw response is carried for logging. Callers branch on ok(), never on error
// values.
type ranking struct {
	entries []rankEntry
	raw     string
}

func (r ranking) ok() bool {
	return r.entries != nil
}

// parseRanking tolerates code-fence-wrapped JSON and prose around the object:
// it tries a direct parse first, then the fence-stripped text, then the first
// balanced JSON object found in the response.
func parseRanking(response string) ranking {
	for _, candidate := range []string{
		response,
		stripFences(response),
		firstBalancedObject(response),
	} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}

		var doc rankDocument
		if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
			continue
		}

		if doc.Ranked == nil {
			continue
		}

		return ranking{entries: doc.Ranked}
	}

	return ranking{raw: response}
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return ""
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// Drop the optional language tag line.
		text = text[idx+1:]
	}

	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	return text
}

// firstBalancedObject extracts the first top-level {...} span, respecting
// string literals and escapes.
func firstBalancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}

		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

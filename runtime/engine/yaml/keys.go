package yaml

import (
	"regexp"
	"strings"
)

// Keys are stored flat: "fetch-video.result.title" becomes "fetch_video_result_title".
// Expressions go through the same rewrite so that dotted paths resolve to those keys.

var hyphenBetweenWordsRe = regexp.MustCompile(`([^ ])-([^ ])`)

// FormatKey converts a dotted/hyphenated path into its flat storage key.
func FormatKey(key string) string {
	key = strings.ReplaceAll(key, ".", "_")
	// applied twice: the regex consumes the characters around a match, so "a-b-c" needs a second pass
	key = hyphenBetweenWordsRe.ReplaceAllString(key, "${1}_${2}")
	return hyphenBetweenWordsRe.ReplaceAllString(key, "${1}_${2}")
}

// FormatExpression rewrites path separators outside string literals.
//
// Preserved: "?." optional chaining, "#." lambda element access, decimal
// points, and "-" used as an operator (surrounded by spaces or inside calls).
func FormatExpression(e string) string {
	out := []rune(e)
	depth := 0
	var quote rune
	escaped := false

	for i, r := range out {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case r == '\\' && quote == '"':
				escaped = true
			case r == quote:
				quote = 0
			}
			continue
		}

		switch r {
		case '"', '`', '\'':
			quote = r
		case '(':
			depth++
		case ')':
			depth--
		case '.':
			if i == 0 || i == len(out)-1 {
				continue
			}
			prev, next := out[i-1], out[i+1]
			if prev == '?' || prev == '#' || (isDigit(prev) && isDigit(next)) {
				continue
			}
			out[i] = '_'
		case '-':
			if depth > 0 || i == 0 || i == len(out)-1 {
				continue
			}
			if isIdentRune(out[i-1]) && isIdentRune(out[i+1]) {
				out[i] = '_'
			}
		}
	}
	return string(out)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentRune(r rune) bool {
	return r == '_' || isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

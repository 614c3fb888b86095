package cleaner

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeCell renders a raw cell as text: absent cells become "", runs of
// whitespace (newlines included) collapse to one space, and the ends are
// trimmed.
func NormalizeCell(cell *string) string {
	if cell == nil {
		return ""
	}
	// \s in RE2 is ASCII-only; map Unicode spaces (U+3000 etc.) first.
	s := strings.Map(func(r rune) rune {
		if isSpace(r) {
			return ' '
		}
		return r
	}, *cell)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// isSpace also covers the ASCII file, group, record and unit separators,
// which unicode.IsSpace leaves out.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1C && r <= 0x1F)
}

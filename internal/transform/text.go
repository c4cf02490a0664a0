// internal/transform/text.go
package transform

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold reduces text to the printable ASCII the printer accepts. Accents are
// stripped and other runes outside the range become '?'.
func Fold(s string) string {
	// transformer chains keep state, so each call builds its own
	folder := xtransform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			switch {
			case unicode.IsControl(r) || unicode.IsSpace(r):
				return ' '
			case r < 0x20 || r > 0x7E:
				return '?'
			default:
				return r
			}
		}),
	)

	folded, _, err := xtransform.String(folder, s)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(folded)
}

// truncate cuts s to at most width bytes. Input is folded ASCII.
func truncate(s string, width int) string {
	if width > 0 && len(s) > width {
		return s[:width]
	}
	return s
}

// WrapWords splits text into lines of at most width characters on word
// boundaries. A word longer than width is split across lines when splitLong
// is set and cut to width otherwise. At most maxLines lines are returned
// (no limit when maxLines <= 0); words that do not fit are dropped.
func WrapWords(text string, width, maxLines int, splitLong bool) []string {
	if width < 1 {
		return nil
	}

	var (
		lines   []string
		current string
	)
	full := func() bool {
		return maxLines > 0 && len(lines) >= maxLines
	}
	flush := func() {
		if current != "" && !full() {
			lines = append(lines, current)
		}
		current = ""
	}

	words := strings.Fields(text)
	for i := 0; i < len(words) && !full(); i++ {
		word := words[i]

		if len(word) > width {
			flush()
			if !splitLong {
				current = word[:width]
				continue
			}
			for len(word) > width && !full() {
				lines = append(lines, word[:width])
				word = word[width:]
			}
			current = word
			continue
		}

		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			flush()
			current = word
		}
	}
	flush()

	return lines
}

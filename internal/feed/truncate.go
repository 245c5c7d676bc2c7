package feed

import (
	"strings"
	"unicode"
)

// DescriptionLimit is the platform description-length ceiling, in characters.
const DescriptionLimit = 4000

// breakWindow is how far back from the limit the truncation searches for a
// safe break point.
const breakWindow = 500

// Truncate cuts s down to at most limit characters without corrupting
// embedded markup. It never cuts inside an HTML tag or entity, never splits
// a trailing #tag token or URL, and appends an ellipsis when anything was
// removed. The break point is the best safe position found within the last
// breakWindow characters before the limit.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	// Leave room for the ellipsis.
	ceiling := limit - 1

	windowStart := ceiling - breakWindow
	if windowStart < 0 {
		windowStart = 0
	}

	best := -1
	for i := windowStart; i <= ceiling && i < len(runes); i++ {
		if safeBreak(runes, i) {
			best = i
		}
	}
	if best <= 0 {
		// No safe break in the window; fall back to the last position
		// outside any tag or entity.
		for i := ceiling; i > 0; i-- {
			if !insideTag(runes, i) && !insideEntity(runes, i) && !insideToken(runes, i) {
				best = i
				break
			}
		}
	}
	if best <= 0 {
		best = ceiling
	}

	return strings.TrimRightFunc(string(runes[:best]), unicode.IsSpace) + "…"
}

// safeBreak reports whether cutting s at position i (keeping runes[:i])
// produces well-formed output: immediately after a tag, or immediately
// before a hashtag or URL token.
func safeBreak(runes []rune, i int) bool {
	if i <= 0 || i >= len(runes) {
		return false
	}
	// End of a tag.
	if runes[i-1] == '>' {
		return true
	}
	// Start of a trailing #tag block or a URL: cut before the token so it
	// is dropped whole.
	if unicode.IsSpace(runes[i-1]) {
		if runes[i] == '#' {
			return true
		}
		if hasPrefix(runes[i:], "http://") || hasPrefix(runes[i:], "https://") {
			return true
		}
	}
	return false
}

// insideTag reports whether position i falls between '<' and its closing '>'.
func insideTag(runes []rune, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch runes[j] {
		case '<':
			return true
		case '>':
			return false
		}
	}
	return false
}

// insideEntity reports whether position i falls inside an HTML entity such
// as "&amp;". Entities are short; only a small lookbehind is needed.
func insideEntity(runes []rune, i int) bool {
	for j := i - 1; j >= 0 && i-j <= 10; j-- {
		switch {
		case runes[j] == '&':
			return true
		case runes[j] == ';' || unicode.IsSpace(runes[j]):
			return false
		}
	}
	return false
}

// insideToken reports whether position i splits a #tag or URL token.
func insideToken(runes []rune, i int) bool {
	start := i
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	if start == i {
		return false
	}
	if runes[start] == '#' {
		return true
	}
	rest := runes[start:]
	return hasPrefix(rest, "http://") || hasPrefix(rest, "https://")
}

func hasPrefix(runes []rune, prefix string) bool {
	return strings.HasPrefix(string(runes), prefix)
}

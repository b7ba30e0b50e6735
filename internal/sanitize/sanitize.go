// Package sanitize turns raw chat text into display-safe text for a
// terminal that cannot render emoji or control sequences.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Sentinel outputs. Media and Link are regular content; NonText and
// Filtered mean the message has nothing displayable.
const (
	Media    = "[Media content]"
	Link     = "[Link]"
	NonText  = "[Non-text content]"
	Filtered = "[Filtered content]"
)

// MaxRunes is the longest output Sanitize produces.
const MaxRunes = 200

const ellipsis = "..."

var mediaMarkers = []string{
	"image omitted", "video omitted", "audio omitted", "document omitted",
	"sticker omitted", "gif omitted", "location omitted", "contact omitted",
	"[image]", "[video]", "[audio]", "[document]", "[sticker]", "[gif]",
	"[location]", "[contact]",
	"\U0001F4F7", "\U0001F3A5", "\U0001F3B5", "\U0001F4C4", "\U0001F4CD",
}

var urlPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s]+`)

// Sanitize maps raw message text to display text. It never panics; an
// internal fault yields Filtered. Empty input returns empty.
func Sanitize(raw string) (out string) {
	if raw == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			out = Filtered
		}
	}()

	stripped := strip(raw)
	if hasMediaMarker(raw) || hasMediaMarker(stripped) {
		return Media
	}

	text := urlPattern.ReplaceAllString(stripped, Link)
	text = norm.NFC.String(text)
	text = strings.TrimSpace(text)
	if text == "" {
		return NonText
	}
	return truncate(text)
}

// IsSentinel reports whether s is one of the "nothing to show" markers.
func IsSentinel(s string) bool {
	return s == NonText || s == Filtered
}

// Displayable reports whether sanitized text should be kept in a
// conversation.
func Displayable(s string) bool {
	return s != "" && !IsSentinel(s)
}

func hasMediaMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range mediaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func strip(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			i++
			continue
		}
		if !blocked(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func blocked(r rune) bool {
	switch {
	case r == '\n' || r == '\r' || r == '\t':
		return false
	case r < 0x20, r >= 0x7F && r <= 0x9F:
		return true
	// Misc symbols and dingbats.
	case r >= 0x2600 && r <= 0x27BF:
		return true
	// Zero width joiner.
	case r == 0x200D:
		return true
	// Variation selectors.
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r == utf8.RuneError:
		return true
	// Everything outside the BMP: pictographs, emoticons, transport
	// symbols, regional indicators, skin tones.
	case r > 0xFFFF:
		return true
	default:
		return false
	}
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxRunes {
		return s
	}
	keep := MaxRunes - len(ellipsis)
	n := 0
	for i := range s {
		if n == keep {
			return s[:i] + ellipsis
		}
		n++
	}
	return s
}

// Preview shortens already-sanitized text to at most n runes for list
// rows.
func Preview(s string, n int) string {
	if n <= len(ellipsis) || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-len(ellipsis)]) + ellipsis
}

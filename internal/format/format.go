// Package format holds the display helpers shared by API responses.
package format

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006, 03:04 PM"

	PreviewLength = 100
)

// RelativeTime renders t relative to now: "Just now" under an hour,
// "Nh ago" under a day, and the calendar date after that.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Hour:
		return "Just now"
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return FormatDate(t)
	}
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func FormatDateTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}

// Initials returns the upper-cased first letter of every word in name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

var markdownStripper = strings.NewReplacer("#", "", "*", "", "`", "")

// ContentPreview strips inline markdown markers and truncates to PreviewLength
// runes. The ellipsis follows the raw length, markers included.
func ContentPreview(content string) string {
	plain := []rune(markdownStripper.Replace(content))
	if len(plain) > PreviewLength {
		plain = plain[:PreviewLength]
	}
	if utf8.RuneCountInString(content) > PreviewLength {
		return string(plain) + "..."
	}
	return string(plain)
}

package app

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/deusflow/headlines/internal/news"
)

const (
	digestRule        = "━━━━━━━━━━━━━━━━━━━━━━━━━━\n"
	maxDescriptionLen = 400
	maxListedSources  = 5

	// MaxDigestLength leaves headroom under Telegram's 4096 character limit.
	MaxDigestLength = 4000
)

// FormatDigest renders up to max merged articles as a Telegram HTML message.
func FormatDigest(list []news.MergedArticle, max int) string {
	if max <= 0 || max > len(list) {
		max = len(list)
	}

	var b strings.Builder
	b.WriteString("📰 <b>Top headlines</b>\n")
	b.WriteString(digestRule)
	b.WriteString("\n")

	for i, a := range list[:max] {
		b.WriteString(formatItem(a, i+1))
	}

	b.WriteString(digestRule)
	b.WriteString(fmt.Sprintf("%d of %d stories", max, len(list)))
	return b.String()
}

// FitDigest formats as many of the first max articles as fit in limit
// characters, dropping items from the end. A single item that is still too
// long is returned as is.
func FitDigest(list []news.MergedArticle, max, limit int) string {
	if max <= 0 || max > len(list) {
		max = len(list)
	}
	msg := FormatDigest(list, max)
	for n := max - 1; n >= 1 && utf8.RuneCountInString(msg) > limit; n-- {
		msg = FormatDigest(list, n)
	}
	return msg
}

func formatItem(a news.MergedArticle, number int) string {
	var b strings.Builder

	emoji := "📰"
	if len(a.Sources) > 1 {
		emoji = "🔥"
	}

	title := html.EscapeString(a.Title)
	if len(a.Sources) > 0 && a.Sources[0].URL != "" {
		b.WriteString(fmt.Sprintf("%s <b>%d.</b> <a href=\"%s\">%s</a>\n", emoji, number, html.EscapeString(a.Sources[0].URL), title))
	} else {
		b.WriteString(fmt.Sprintf("%s <b>%d.</b> %s\n", emoji, number, title))
	}

	if desc := strings.TrimSpace(a.Description); desc != "" {
		b.WriteString(html.EscapeString(truncateSentence(desc, maxDescriptionLen)))
		b.WriteString("\n")
	}

	if len(a.Sources) > 0 {
		listed := a.Sources
		if len(listed) > maxListedSources {
			listed = listed[:maxListedSources]
		}
		names := make([]string, 0, len(listed)+1)
		for _, s := range listed {
			name := html.EscapeString(s.Name)
			if s.URL != "" {
				name = fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(s.URL), name)
			}
			names = append(names, name)
		}
		if more := len(a.Sources) - len(listed); more > 0 {
			names = append(names, fmt.Sprintf("+%d more", more))
		}
		b.WriteString("<i>Sources:</i> " + strings.Join(names, ", ") + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

// truncateSentence cuts s to at most limit characters, preferring the last
// full sentence inside the limit.
func truncateSentence(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := string([]rune(s)[:limit])
	if i := strings.LastIndex(cut, "."); i > 0 {
		return cut[:i+1]
	}
	return cut + "..."
}

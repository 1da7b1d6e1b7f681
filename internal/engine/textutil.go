package engine

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/net/html"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// CleanHTML strips HTML tags and trims whitespace.
func CleanHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// Truncate returns the first n bytes of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// NormalizeCategory is the vocabulary matching key: trimmed,
// case-folded, inner whitespace collapsed. The model's label text is an
// untrusted answer; all vocabulary comparisons go through this one
// function instead of living implicitly in the prompt.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CleanCategory prepares a model-proposed label for display and
// storage: strip stray quotes and trailing punctuation, collapse
// whitespace, cap the length (long output means the model ignored the
// format instruction).
func CleanCategory(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `"'.`)
	s = strings.Join(strings.Fields(s), " ")
	return TruncateRunes(s, 50, "")
}

// DescriptionText renders an episode description for storage. HTML
// descriptions become markdown; if conversion fails, tags are walked
// with the HTML tokenizer and the text content is kept.
func DescriptionText(plain, htmlDesc string) string {
	if strings.TrimSpace(plain) != "" {
		return strings.TrimSpace(plain)
	}
	if strings.TrimSpace(htmlDesc) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(htmlDesc)
	if err == nil && strings.TrimSpace(md) != "" {
		return strings.TrimSpace(md)
	}
	return htmlToText(htmlDesc)
}

// htmlToText extracts the text nodes from an HTML fragment.
func htmlToText(s string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.WriteString(tokenizer.Token().Data)
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

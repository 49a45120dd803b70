package fetch

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// VisibleText extracts the human-visible text from markup: script, style,
// and comment nodes are dropped, entities decoded, whitespace collapsed,
// and the result NFC-normalized. Non-HTML input passes through mostly
// unchanged since the tokenizer treats it as text.
func VisibleText(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	var sb strings.Builder
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return normalizeWhitespace(sb.String())

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isInvisibleTag(string(name)) {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isInvisibleTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(html.UnescapeString(string(tokenizer.Text())))
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
	}
}

func isInvisibleTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "template", "iframe", "svg", "head":
		return true
	}
	return false
}

// normalizeWhitespace collapses runs of whitespace and applies NFC so
// visually identical text compares equal downstream.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return norm.NFC.String(strings.Join(fields, " "))
}

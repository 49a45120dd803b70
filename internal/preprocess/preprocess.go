// Package preprocess reduces oversized markup so it fits the inference
// input budget while preserving every visible text string.
package preprocess

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/sells-group/vetting-cli/internal/resilience"
)

// Reducer applies size-adaptive content reduction.
type Reducer struct {
	triggerChars int
	ceilingChars int
}

// New creates a Reducer. Content of exactly triggerChars passes untouched;
// one character over triggers reduction.
func New(triggerChars, ceilingChars int) *Reducer {
	if triggerChars <= 0 {
		triggerChars = 240_000
	}
	if ceilingChars < triggerChars {
		ceilingChars = triggerChars
	}
	return &Reducer{triggerChars: triggerChars, ceilingChars: ceilingChars}
}

// Result reports what reduction, if any, was applied so callers can
// distinguish "analyzed on reduced content" from "analyzed as-is".
type Result struct {
	Content string
	Reduced bool
	// Tier is "" (untouched), "regex", or "structural".
	Tier string
	OriginalChars int
}

// Reduce returns content fit for the prompt budget. Oversized content goes
// through a cheap regex strip first and a structural parse-and-rebuild if
// that is not enough; if it is still over the trigger the pipeline fails
// closed with a typed size error rather than truncating semantic content.
func (r *Reducer) Reduce(content string) (*Result, error) {
	original := len(content)
	if original <= r.triggerChars {
		return &Result{Content: content, OriginalChars: original}, nil
	}

	regexReduced := regexStrip(content)
	if len(regexReduced) <= r.triggerChars {
		zap.L().Info("preprocess: regex strip sufficient",
			zap.Int("original_chars", original),
			zap.Int("reduced_chars", len(regexReduced)),
		)
		return &Result{Content: regexReduced, Reduced: true, Tier: "regex", OriginalChars: original}, nil
	}

	structural, err := structuralRebuild(regexReduced)
	if err != nil {
		return nil, resilience.NewError(resilience.ClassFormat, "preprocess/structural", err)
	}
	if len(structural) <= r.triggerChars {
		zap.L().Info("preprocess: structural rebuild sufficient",
			zap.Int("original_chars", original),
			zap.Int("reduced_chars", len(structural)),
		)
		return &Result{Content: structural, Reduced: true, Tier: "structural", OriginalChars: original}, nil
	}

	return nil, resilience.NewError(resilience.ClassSize, "preprocess",
		eris.Errorf("content still %d chars after structural reduction (budget %d); requires specialized handling",
			len(structural), r.triggerChars))
}

var (
	// Non-content attributes that bloat markup without carrying meaning.
	attrPattern = regexp.MustCompile(`\s+(?:class|id|style|data-[a-z0-9-]+|aria-[a-z-]+|role|tabindex|loading|srcset|sizes|integrity|crossorigin|nonce)="[^"]*"`)
	// Tracking query strings on URLs.
	trackingPattern = regexp.MustCompile(`[?&](?:utm_[a-z]+|fbclid|gclid|ref|mc_[a-z]+)=[^"&\s]*`)
	// Asset URLs on known CDN hosts carry no text content.
	cdnURLPattern = regexp.MustCompile(`https?://[a-z0-9.-]*(?:cloudfront\.net|cloudflare\.com|akamaized\.net|fastly\.net|googleapis\.com|gstatic\.com|jsdelivr\.net|unpkg\.com)[^"'\s>]*`)
	// Runs of blank lines and trailing spaces.
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern = regexp.MustCompile(`[ \t]{2,}`)
)

// regexStrip is the cheap first-tier reduction: drop presentation and
// tracking noise without parsing.
func regexStrip(content string) string {
	content = attrPattern.ReplaceAllString(content, "")
	content = trackingPattern.ReplaceAllString(content, "")
	content = cdnURLPattern.ReplaceAllString(content, "")
	content = spaceRunPattern.ReplaceAllString(content, " ")
	content = blankRunPattern.ReplaceAllString(content, "\n\n")
	return content
}

// invisibleElements are dropped entirely during the structural rebuild.
var invisibleElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"svg":      true,
	"canvas":   true,
	"video":    true,
	"audio":    true,
	"img":      true,
	"picture":  true,
	"source":   true,
	"link":     true,
	"meta":     true,
}

// structuralRebuild parses the markup and re-emits it keeping only visible
// elements and their text; the only attribute that survives is href.
func structuralRebuild(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", eris.Wrap(err, "preprocess: parse markup")
	}

	var sb strings.Builder
	emit(&sb, doc)
	out := sb.String()
	out = spaceRunPattern.ReplaceAllString(out, " ")
	out = blankRunPattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), nil
}

func emit(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.ElementNode:
		if invisibleElements[n.Data] {
			return
		}
		if n.Data == "a" {
			if href := attrValue(n, "href"); href != "" {
				sb.WriteString(`<a href="` + href + `">`)
				emitChildren(sb, n)
				sb.WriteString("</a>")
				return
			}
		}
		if isBlockElement(n.Data) {
			emitChildren(sb, n)
			sb.WriteString("\n")
			return
		}
		emitChildren(sb, n)
		return
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
		return
	}
	emitChildren(sb, n)
}

func emitChildren(sb *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		emit(sb, c)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isBlockElement(name string) bool {
	switch name {
	case "p", "div", "section", "article", "li", "tr", "br",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "table", "blockquote":
		return true
	}
	return false
}

package preprocess

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/resilience"
)

func TestReduce_ExactThresholdUntouched(t *testing.T) {
	r := New(1000, 1100)
	content := strings.Repeat("a", 1000)

	result, err := r.Reduce(content)

	require.NoError(t, err)
	assert.False(t, result.Reduced)
	assert.Equal(t, content, result.Content)
}

func TestReduce_OneOverThresholdReduces(t *testing.T) {
	r := New(1000, 1100)
	// 1001 chars of markup noise that the regex tier can shrink.
	content := `<div class="` + strings.Repeat("x", 1000) + `">short text</div>`
	require.Greater(t, len(content), 1000)

	result, err := r.Reduce(content)

	require.NoError(t, err)
	assert.True(t, result.Reduced)
	assert.Equal(t, "regex", result.Tier)
	assert.Contains(t, result.Content, "short text")
}

func TestReduce_StructuralTierKeepsVisibleText(t *testing.T) {
	// Build a page where attribute stripping alone is not enough: the bulk
	// is scripts and styles that only the structural tier removes.
	var sb strings.Builder
	sb.WriteString("<html><head><script>")
	sb.WriteString(strings.Repeat("var filler = 'x'; ", 500))
	sb.WriteString("</script><style>")
	sb.WriteString(strings.Repeat(".c { margin: 0 } ", 300))
	sb.WriteString("</style></head><body>")
	var sentences []string
	for i := 0; i < 40; i++ {
		s := fmt.Sprintf("Visible sentence number %d about the protocol.", i)
		sentences = append(sentences, s)
		sb.WriteString("<p>" + s + "</p>")
	}
	sb.WriteString(`<a href="/whitepaper.pdf" class="btn">Read the whitepaper</a>`)
	sb.WriteString("</body></html>")
	content := sb.String()

	r := New(3000, 3100)
	require.Greater(t, len(content), 3000)

	result, err := r.Reduce(content)

	require.NoError(t, err)
	assert.True(t, result.Reduced)
	assert.Equal(t, "structural", result.Tier)
	assert.LessOrEqual(t, len(result.Content), 3000)

	// Every visible string from the original survives.
	for _, s := range sentences {
		assert.Contains(t, result.Content, s)
	}
	assert.Contains(t, result.Content, "Read the whitepaper")
	// Hyperlink targets survive; nothing else does.
	assert.Contains(t, result.Content, `href="/whitepaper.pdf"`)
	assert.NotContains(t, result.Content, "var filler")
	assert.NotContains(t, result.Content, "margin: 0")
	assert.NotContains(t, result.Content, `class="btn"`)
}

func TestReduce_FailsClosedWhenStillOversized(t *testing.T) {
	// Pure visible text cannot be reduced without losing content.
	r := New(500, 600)
	content := "<p>" + strings.Repeat("All of this is visible prose. ", 100) + "</p>"

	_, err := r.Reduce(content)

	require.Error(t, err)
	assert.True(t, resilience.IsClass(err, resilience.ClassSize))
	assert.Contains(t, err.Error(), "specialized handling")
}

func TestRegexStrip(t *testing.T) {
	in := `<div class="hero" id="main" data-track="abc" aria-label="x">` +
		`<a href="https://acme.io/page?utm_source=tw&utm_campaign=q3">link</a>` +
		`<img src="https://d1abc.cloudfront.net/big.png">` +
		"text   with    runs\n\n\n\n\nmore</div>"

	out := regexStrip(in)

	assert.NotContains(t, out, `class="hero"`)
	assert.NotContains(t, out, "data-track")
	assert.NotContains(t, out, "utm_source")
	assert.NotContains(t, out, "cloudfront.net")
	assert.NotContains(t, out, "\n\n\n")
	assert.Contains(t, out, "text with runs")
}

package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

type fakeAI struct {
	resp    *anthropic.MessageResponse
	err     error
	lastReq anthropic.MessageRequest
	calls   int
}

func (f *fakeAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.calls++
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeAI) CreateBatch(context.Context, anthropic.BatchRequest) (*anthropic.BatchResponse, error) {
	panic("not used")
}
func (f *fakeAI) GetBatch(context.Context, string) (*anthropic.BatchResponse, error) {
	panic("not used")
}
func (f *fakeAI) GetBatchResults(context.Context, string) (anthropic.BatchResultIterator, error) {
	panic("not used")
}

func newExtractor(ai anthropic.Client) *Extractor {
	return New(ai,
		config.AnthropicConfig{SonnetModel: "test-sonnet"},
		config.AnalysisConfig{PromptCeilingChars: 250_000},
	)
}

const activeBundleJSON = `{
	"website_status": "active",
	"project_type": "defi",
	"signals": [
		{"description": "Partnership with Visa", "category": "partnership", "location": "hero section", "source_text": "We partner with Visa", "similar_to": ""},
		{"description": "Partnership with Stripe", "category": "partnership", "location": "partners page", "source_text": "Stripe integration live", "similar_to": ""},
		{"description": "Partnership with Shopify", "category": "partnership", "location": "footer", "source_text": "Powering Shopify checkouts", "similar_to": ""},
		{"description": "Team of ex-Google engineers", "category": "team", "location": "about", "source_text": "founded by ex-Google staff", "similar_to": ""}
	],
	"red_flags": [],
	"follow_ups": [
		{"url": "https://acme.io/audit.pdf", "reason": "audit report", "priority": 1}
	]
}`

func TestExtract_ActivePage(t *testing.T) {
	ai := &fakeAI{resp: &anthropic.MessageResponse{Text: activeBundleJSON}}
	e := newExtractor(ai)

	bundle, err := e.Extract(context.Background(), Input{
		ProjectID: "p-1",
		Symbol:    "ACME",
		SourceURL: "https://acme.io",
		Content:   "page text with three partnership mentions",
	})

	require.NoError(t, err)
	assert.Equal(t, model.WebsiteActive, bundle.WebsiteStatus)
	assert.Equal(t, model.TypeDeFi, bundle.ProjectType)
	assert.GreaterOrEqual(t, len(bundle.Signals), 3)
	assert.Empty(t, bundle.RedFlags)
	assert.False(t, bundle.ShortCircuited())

	// Traceability: every signal carries its verbatim quote and location.
	for _, s := range bundle.Signals {
		assert.NotEmpty(t, s.SourceText)
		assert.NotEmpty(t, s.Location)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "p-1", s.ProjectID)
	}

	require.Len(t, bundle.FollowUps, 1)
	assert.Equal(t, 1, bundle.FollowUps[0].Priority)
}

func TestExtract_ParkingPageShortCircuits(t *testing.T) {
	ai := &fakeAI{resp: &anthropic.MessageResponse{Text: `{
		"website_status": "dead",
		"project_type": "unknown",
		"signals": [],
		"red_flags": [],
		"follow_ups": []
	}`}}
	e := newExtractor(ai)

	bundle, err := e.Extract(context.Background(), Input{
		ProjectID: "p-2",
		Symbol:    "GONE",
		SourceURL: "https://gone.example",
		Content:   "This domain is for sale.",
	})

	require.NoError(t, err)
	assert.Equal(t, model.WebsiteDead, bundle.WebsiteStatus)
	assert.Empty(t, bundle.Signals)
	assert.True(t, bundle.ShortCircuited())
}

func TestExtract_RepairParsesFencedResponse(t *testing.T) {
	fenced := "Here is the extraction:\n```json\n" + activeBundleJSON + "\n```"
	ai := &fakeAI{resp: &anthropic.MessageResponse{Text: fenced}}
	e := newExtractor(ai)

	bundle, err := e.Extract(context.Background(), Input{ProjectID: "p-3", Symbol: "ACME", Content: "x"})

	require.NoError(t, err)
	assert.Len(t, bundle.Signals, 4)
}

func TestExtract_UnparseableIsHardInferenceFailure(t *testing.T) {
	ai := &fakeAI{resp: &anthropic.MessageResponse{Text: "I cannot analyze this page."}}
	e := newExtractor(ai)

	_, err := e.Extract(context.Background(), Input{ProjectID: "p-4", Symbol: "ACME", Content: "x"})

	require.Error(t, err)
	assert.True(t, resilience.IsClass(err, resilience.ClassInference))
}

func TestExtract_APIErrorIsInferenceClass(t *testing.T) {
	ai := &fakeAI{err: eris.New("overloaded")}
	e := newExtractor(ai)

	_, err := e.Extract(context.Background(), Input{ProjectID: "p-5", Symbol: "ACME", Content: "x"})

	require.Error(t, err)
	assert.True(t, resilience.IsClass(err, resilience.ClassInference))
}

func TestExtract_OversizedContentRejected(t *testing.T) {
	ai := &fakeAI{}
	e := newExtractor(ai)

	_, err := e.Extract(context.Background(), Input{
		ProjectID: "p-6",
		Symbol:    "BIG",
		Content:   strings.Repeat("x", 250_001),
	})

	require.Error(t, err)
	assert.True(t, resilience.IsClass(err, resilience.ClassSize))
	assert.Equal(t, 0, ai.calls)
}

func TestExtract_DocumentVariantParsesClaims(t *testing.T) {
	ai := &fakeAI{resp: &anthropic.MessageResponse{Text: `{
		"website_status": "active",
		"project_type": "infrastructure",
		"main_claim": {"text": "Settles 100k tx/s on commodity hardware", "location": "abstract", "source_text": "our protocol settles 100,000 transactions per second"},
		"evidence_claims": [
			{"text": "Benchmark on 64-node testnet", "location": "section 5", "source_text": "we measured 94,000 tps on a 64 node deployment"}
		],
		"signals": [],
		"red_flags": []
	}`}}
	e := newExtractor(ai)

	bundle, err := e.Extract(context.Background(), Input{
		ProjectID: "p-7",
		Symbol:    "ACME",
		Document:  true,
		Content:   "whitepaper text",
	})

	require.NoError(t, err)
	require.NotNil(t, bundle.MainClaim)
	assert.Contains(t, bundle.MainClaim.Text, "100k tx/s")
	require.Len(t, bundle.EvidenceClaims, 1)
	assert.Contains(t, ai.lastReq.System, "whitepaper")
}

func TestExtract_InvalidCategoriesFallBackToOther(t *testing.T) {
	ai := &fakeAI{resp: &anthropic.MessageResponse{Text: `{
		"website_status": "active",
		"project_type": "defi",
		"signals": [
			{"description": "Something odd", "category": "blockchain_magic", "location": "x", "source_text": "y"}
		],
		"red_flags": [
			{"severity": "catastrophic", "description": "bad", "evidence": "z"}
		]
	}`}}
	e := newExtractor(ai)

	bundle, err := e.Extract(context.Background(), Input{ProjectID: "p-8", Symbol: "ACME", Content: "x"})

	require.NoError(t, err)
	require.Len(t, bundle.Signals, 1)
	assert.Equal(t, model.CategoryOther, bundle.Signals[0].Category)
	require.Len(t, bundle.RedFlags, 1)
	assert.Equal(t, model.SeverityMedium, bundle.RedFlags[0].Severity)
}

func TestExtract_VerificationTargetInPrompt(t *testing.T) {
	ai := &fakeAI{resp: &anthropic.MessageResponse{Text: activeBundleJSON}}
	e := newExtractor(ai)

	_, err := e.Extract(context.Background(), Input{
		ProjectID:          "p-9",
		Symbol:             "ACME",
		VerificationTarget: "0xdeadbeef",
		Content:            "x",
	})

	require.NoError(t, err)
	assert.Contains(t, ai.lastReq.Prompt, "0xdeadbeef")
}

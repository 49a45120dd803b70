// Package extract drives Phase 1: prompting the model to pull structured
// signals, red flags, and classification metadata out of acquired content.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

const extractSystemPrompt = `You are a due-diligence analyst extracting verifiable claims from a crypto project's public materials.

First decide the page status. If the content is a parking page, domain-for-sale notice, placeholder, error page, or bot challenge, short-circuit: set website_status to "dead" (or "blocked" for bot challenges), leave every list empty, and stop.

Otherwise extract every concrete, verifiable claim as a signal. Categories: partnership, team, technology, funding, adoption, audit, endorsement, community, roadmap, other. Every signal and red flag must quote the verbatim source text it came from and note where on the page it appears, so a reviewer can verify it without re-fetching.

Treat named public-figure endorsements with suspicion: still record them under the "endorsement" category, but they are verified later, not taken at face value.

Respond with a single valid JSON object:
{
  "website_status": "active|dead|blocked",
  "project_type": "defi|infrastructure|gaming|nft|dao|meme|unknown",
  "signals": [
    {"description": "<claim>", "category": "<category>", "location": "<where on page>", "source_text": "<verbatim quote>", "similar_to": "<known comparable project or empty>"}
  ],
  "red_flags": [
    {"severity": "high|medium|low", "description": "<concern>", "evidence": "<verbatim quote>", "location": "<where>"}
  ],
  "follow_ups": [
    {"url": "<link worth deeper inspection>", "reason": "<why>", "priority": <1-3>}
  ]
}`

const documentSystemPrompt = `You are a due-diligence analyst evaluating a project whitepaper.

Identify the document's single main claim (the central ambition it stakes out) and the distinct evidence claims offered in support. Each claim must quote its verbatim source text and location. Also extract signals and red flags as for a website.

Respond with a single valid JSON object:
{
  "website_status": "active|dead|blocked",
  "project_type": "defi|infrastructure|gaming|nft|dao|meme|unknown",
  "main_claim": {"text": "<the central claim>", "location": "<section>", "source_text": "<verbatim quote>"},
  "evidence_claims": [
    {"text": "<supporting claim>", "location": "<section>", "source_text": "<verbatim quote>"}
  ],
  "signals": [
    {"description": "<claim>", "category": "<category>", "location": "<where>", "source_text": "<verbatim quote>", "similar_to": ""}
  ],
  "red_flags": [
    {"severity": "high|medium|low", "description": "<concern>", "evidence": "<verbatim quote>", "location": "<where>"}
  ]
}`

const extractUserPrompt = `Project symbol: %s
Source URL: %s
%sContent:
%s`

// Extractor runs Phase 1 signal extraction.
type Extractor struct {
	client       anthropic.Client
	model        string
	ceilingChars int
}

// New creates an Extractor using the capable model; extraction quality
// drives everything downstream.
func New(client anthropic.Client, aiCfg config.AnthropicConfig, analysisCfg config.AnalysisConfig) *Extractor {
	ceiling := analysisCfg.PromptCeilingChars
	if ceiling <= 0 {
		ceiling = 250_000
	}
	return &Extractor{
		client:       client,
		model:        aiCfg.SonnetModel,
		ceilingChars: ceiling,
	}
}

// Input carries everything Phase 1 needs beyond the content itself.
type Input struct {
	ProjectID string
	Symbol    string
	SourceURL string
	// VerificationTarget is an optional contract identifier the model should
	// look for on the page.
	VerificationTarget string
	// Document selects the whitepaper variant (main claim + evidence claims).
	Document bool
	Content  string
}

// Extract runs the extraction prompt and repair-parses the response into a
// bundle. A response that cannot be repaired is a hard inference failure.
func (e *Extractor) Extract(ctx context.Context, in Input) (*model.SignalBundle, error) {
	content := in.Content
	if len(content) > e.ceilingChars {
		// The reducer should have handled this; reject rather than silently
		// sending an oversized request.
		return nil, resilience.NewError(resilience.ClassSize, "extract",
			fmt.Errorf("content %d chars exceeds prompt ceiling %d", len(content), e.ceilingChars))
	}

	system := extractSystemPrompt
	if in.Document {
		system = documentSystemPrompt
	}

	var target string
	if in.VerificationTarget != "" {
		target = fmt.Sprintf("Verification target (contract identifier to look for): %s\n", in.VerificationTarget)
	}

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 8192,
		System:    system,
		Prompt:    fmt.Sprintf(extractUserPrompt, in.Symbol, in.SourceURL, target, content),
	})
	if err != nil {
		return nil, resilience.NewError(resilience.ClassInference, "extract", err)
	}
	resp.Usage.LogCost(e.model, "extract")

	bundle, err := parseBundle(resp.Text, in.ProjectID)
	if err != nil {
		return nil, resilience.NewError(resilience.ClassInference, "extract/parse", err)
	}

	if bundle.ShortCircuited() {
		zap.L().Info("extract: short-circuited on non-content page",
			zap.String("project_id", in.ProjectID),
			zap.String("website_status", string(bundle.WebsiteStatus)),
		)
	} else {
		zap.L().Info("extract: bundle produced",
			zap.String("project_id", in.ProjectID),
			zap.Int("signals", len(bundle.Signals)),
			zap.Int("red_flags", len(bundle.RedFlags)),
		)
	}

	return bundle, nil
}

// rawBundle mirrors the prompt's JSON shape before domain validation.
type rawBundle struct {
	WebsiteStatus string `json:"website_status"`
	ProjectType   string `json:"project_type"`
	Signals       []struct {
		Description string `json:"description"`
		Category    string `json:"category"`
		Location    string `json:"location"`
		SourceText  string `json:"source_text"`
		SimilarTo   string `json:"similar_to"`
	} `json:"signals"`
	RedFlags []struct {
		Severity    string `json:"severity"`
		Description string `json:"description"`
		Evidence    string `json:"evidence"`
		Location    string `json:"location"`
	} `json:"red_flags"`
	FollowUps []struct {
		URL      string `json:"url"`
		Reason   string `json:"reason"`
		Priority int    `json:"priority"`
	} `json:"follow_ups"`
	MainClaim      *model.Claim  `json:"main_claim"`
	EvidenceClaims []model.Claim `json:"evidence_claims"`
}

func parseBundle(text, projectID string) (*model.SignalBundle, error) {
	var raw rawBundle
	if err := anthropic.RepairParse(text, &raw); err != nil {
		return nil, err
	}

	bundle := &model.SignalBundle{
		WebsiteStatus:  parseWebsiteStatus(raw.WebsiteStatus),
		ProjectType:    parseProjectType(raw.ProjectType),
		MainClaim:      raw.MainClaim,
		EvidenceClaims: raw.EvidenceClaims,
	}

	now := time.Now().UTC()
	for _, s := range raw.Signals {
		if strings.TrimSpace(s.Description) == "" {
			continue
		}
		category := model.SignalCategory(strings.ToLower(s.Category))
		if !model.ValidCategory(category) {
			category = model.CategoryOther
		}
		bundle.Signals = append(bundle.Signals, model.Signal{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			Description: s.Description,
			Category:    category,
			Location:    s.Location,
			SourceText:  s.SourceText,
			SimilarTo:   s.SimilarTo,
			CreatedAt:   now,
		})
	}

	for _, f := range raw.RedFlags {
		if strings.TrimSpace(f.Description) == "" {
			continue
		}
		bundle.RedFlags = append(bundle.RedFlags, model.RedFlag{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			Severity:    parseSeverity(f.Severity),
			Description: f.Description,
			Evidence:    f.Evidence,
			Location:    f.Location,
			CreatedAt:   now,
		})
	}

	for _, f := range raw.FollowUps {
		if f.URL == "" {
			continue
		}
		priority := f.Priority
		if priority < 1 || priority > 3 {
			priority = 3
		}
		bundle.FollowUps = append(bundle.FollowUps, model.FollowUpResource{
			URL:      f.URL,
			Reason:   f.Reason,
			Priority: priority,
		})
	}

	return bundle, nil
}

func parseWebsiteStatus(s string) model.WebsiteStatus {
	switch model.WebsiteStatus(strings.ToLower(s)) {
	case model.WebsiteDead:
		return model.WebsiteDead
	case model.WebsiteBlocked:
		return model.WebsiteBlocked
	default:
		return model.WebsiteActive
	}
}

func parseProjectType(s string) model.ProjectType {
	switch t := model.ProjectType(strings.ToLower(s)); t {
	case model.TypeDeFi, model.TypeInfrastructure, model.TypeGaming,
		model.TypeNFT, model.TypeDAO, model.TypeMeme:
		return t
	default:
		return model.TypeUnknown
	}
}

func parseSeverity(s string) model.RedFlagSeverity {
	switch model.RedFlagSeverity(strings.ToLower(s)) {
	case model.SeverityHigh:
		return model.SeverityHigh
	case model.SeverityLow:
		return model.SeverityLow
	default:
		return model.SeverityMedium
	}
}

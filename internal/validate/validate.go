// Package validate decides whether fetched content is complete enough to
// analyze, escalating from a cheap length heuristic to an LLM judgment that
// also proposes concrete recovery actions for the fetch chain.
package validate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

const judgmentSystemPrompt = `You assess whether scraped web content is complete enough to analyze a project from, or whether the scrape captured a shell (empty page, bot challenge, loading screen, truncated document).

Respond with a single valid JSON object:
{
  "complete": <true|false>,
  "reason": "<one sentence>",
  "actions": [
    {"kind": "use_headless_render", "wait_for_selector": "<css selector or empty>", "reason": "<why>"},
    {"kind": "try_alternate_url", "alternate_url": "<url>", "reason": "<why>"},
    {"kind": "probe_path_pattern", "path_patterns": ["/whitepaper.pdf"], "reason": "<why>"}
  ]
}

When complete is false, propose 2-3 actions of different kinds, ordered most promising first. Valid kinds are exactly: use_headless_render, try_alternate_url, probe_path_pattern. When complete is true, actions must be empty.`

const judgmentUserPrompt = `Source URL: %s

Content preview (first %d chars of %d total):
%s`

const previewChars = 2000

// Validator decides content completeness.
type Validator struct {
	client        anthropic.Client
	model         string
	completeChars int
}

// New creates a Validator. The LLM judgment uses the cheap model; the fast
// path never calls it.
func New(client anthropic.Client, aiCfg config.AnthropicConfig, analysisCfg config.AnalysisConfig) *Validator {
	completeChars := analysisCfg.CompleteChars
	if completeChars <= 0 {
		completeChars = 3000
	}
	return &Validator{
		client:        client,
		model:         aiCfg.HaikuModel,
		completeChars: completeChars,
	}
}

// Check returns a completeness verdict for fetched content. Content at or
// above the length threshold is accepted without an inference call. Below
// it, an LLM judgment inspects a preview and proposes recovery actions; if
// that call fails the verdict degrades to the bare length heuristic.
func (v *Validator) Check(ctx context.Context, content, sourceURL string) model.ValidationVerdict {
	visible := strings.TrimSpace(content)
	if len(visible) >= v.completeChars {
		return model.ValidationVerdict{Complete: true, Reason: "length above threshold"}
	}

	verdict, err := v.judge(ctx, visible, sourceURL)
	if err != nil {
		zap.L().Warn("validate: judgment call failed, degrading to length heuristic",
			zap.String("url", sourceURL),
			zap.Error(err),
		)
		return model.ValidationVerdict{
			Complete:  false,
			Reason:    fmt.Sprintf("content below %d chars and judgment unavailable", v.completeChars),
			Heuristic: true,
		}
	}
	return verdict
}

func (v *Validator) judge(ctx context.Context, content, sourceURL string) (model.ValidationVerdict, error) {
	preview := content
	if len(preview) > previewChars {
		preview = preview[:previewChars]
	}

	resp, err := v.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     v.model,
		MaxTokens: 1024,
		System:    judgmentSystemPrompt,
		Prompt:    fmt.Sprintf(judgmentUserPrompt, sourceURL, len(preview), len(content), preview),
	})
	if err != nil {
		return model.ValidationVerdict{}, err
	}
	resp.Usage.LogCost(v.model, "validate")

	var parsed struct {
		Complete bool   `json:"complete"`
		Reason   string `json:"reason"`
		Actions  []struct {
			Kind            string   `json:"kind"`
			WaitForSelector string   `json:"wait_for_selector"`
			AlternateURL    string   `json:"alternate_url"`
			PathPatterns    []string `json:"path_patterns"`
			Reason          string   `json:"reason"`
		} `json:"actions"`
	}
	if err := anthropic.RepairParse(resp.Text, &parsed); err != nil {
		return model.ValidationVerdict{}, err
	}

	verdict := model.ValidationVerdict{Complete: parsed.Complete, Reason: parsed.Reason}
	for _, a := range parsed.Actions {
		kind, ok := model.ParseRecoveryKind(a.Kind)
		if !ok {
			zap.L().Debug("validate: dropping unknown action kind", zap.String("kind", a.Kind))
			continue
		}
		verdict.Actions = append(verdict.Actions, model.RecoveryAction{
			Kind:            kind,
			WaitForSelector: a.WaitForSelector,
			AlternateURL:    a.AlternateURL,
			PathPatterns:    a.PathPatterns,
			Reason:          a.Reason,
		})
	}
	return verdict, nil
}

package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
)

// ClassifyDocument runs the two-stage whitepaper evaluation: the claim
// ceiling is the best tier the stated ambition could justify, evidence
// quality is judged independently, and the final tier is the weaker of the
// two. Ambition never outscores unsupported evidence; strong evidence cannot
// exceed what the claim itself would justify.
func (c *Classifier) ClassifyDocument(ctx context.Context, projectID string, mainClaim *model.Claim, evidence []model.Claim, benchmarks []model.Benchmark) (*model.TierComparison, error) {
	if mainClaim == nil {
		return model.FailedClosed(projectID, "document has no main claim"),
			resilience.NewError(resilience.ClassComparison, "classify/document",
				eris.New("document has no main claim"))
	}

	ambitionByTier := model.BenchmarksByTier(activeSet(benchmarks, model.SetAmbition))
	evidenceByTier := model.BenchmarksByTier(activeSet(benchmarks, model.SetEvidence))
	if len(ambitionByTier) == 0 || len(evidenceByTier) == 0 {
		err := resilience.NewError(resilience.ClassComparison, "classify/document",
			eris.New("ambition or evidence benchmark set is empty"))
		return model.FailedClosed(projectID, "benchmark set empty"), err
	}

	ceilingAssignments, err := c.assignTiers(ctx, claimsToSignals(projectID, []model.Claim{*mainClaim}), ambitionByTier)
	if err != nil {
		return model.FailedClosed(projectID, err.Error()),
			resilience.NewError(resilience.ClassComparison, "classify/document", err)
	}
	ceiling := ceilingAssignments[0]

	evidenceAssignments, err := c.assignTiers(ctx, claimsToSignals(projectID, evidence), evidenceByTier)
	if err != nil {
		return model.FailedClosed(projectID, err.Error()),
			resilience.NewError(resilience.ClassComparison, "classify/document", err)
	}

	// Evidence tier is set by the strongest evidence claim; no evidence at
	// all means the lowest tier.
	evidenceTier := model.TierLowest
	var strongestEvidence *model.SignalAssignment
	for i := range evidenceAssignments {
		a := &evidenceAssignments[i]
		if strongestEvidence == nil ||
			a.Tier < strongestEvidence.Tier ||
			(a.Tier == strongestEvidence.Tier && a.Strength > strongestEvidence.Strength) {
			strongestEvidence = a
			evidenceTier = a.Tier
		}
	}

	// Minimum quality wins, which is the numeric maximum of the two tiers.
	finalTier := ceiling.Tier
	strength := ceiling.Strength
	if evidenceTier > finalTier {
		finalTier = evidenceTier
		if strongestEvidence != nil {
			strength = strongestEvidence.Strength
		}
	}

	result := &model.TierComparison{
		ProjectID:    projectID,
		Assignments:  append(ceilingAssignments, evidenceAssignments...),
		Strongest:    strongestEvidence,
		FinalTier:    finalTier,
		FinalScore:   model.ScoreForTier(finalTier, strength),
		ClaimCeiling: ceiling.Tier,
		EvidenceTier: evidenceTier,
		Explanation: fmt.Sprintf("claim ceiling tier %d, evidence tier %d; final tier is the weaker of the two",
			ceiling.Tier, evidenceTier),
		ComparedAt: time.Now().UTC(),
	}

	zap.L().Info("classify: document evaluated",
		zap.String("project_id", projectID),
		zap.Int("claim_ceiling", ceiling.Tier),
		zap.Int("evidence_tier", evidenceTier),
		zap.Int("final_tier", finalTier),
	)
	return result, nil
}

// claimsToSignals adapts document claims to the signal comparison walk.
func claimsToSignals(projectID string, claims []model.Claim) []model.Signal {
	signals := make([]model.Signal, len(claims))
	for i, cl := range claims {
		signals[i] = model.Signal{
			ID:          fmt.Sprintf("%s-claim-%d", projectID, i),
			ProjectID:   projectID,
			Description: cl.Text,
			Category:    model.CategoryOther,
			Location:    cl.Location,
			SourceText:  cl.SourceText,
		}
	}
	return signals
}

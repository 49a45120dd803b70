package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
)

// RunClassification executes Phase 2. When the extraction bundle is still in
// hand (the background chain) it is used directly; otherwise signals are
// loaded from the store. Classification always persists a usable tier/score
// result, including the fail-closed one, and its failure never touches the
// completed extraction.
func (o *Orchestrator) RunClassification(ctx context.Context, req Request, bundle *model.SignalBundle) (*model.TierComparison, error) {
	p, err := o.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("project_id", p.ID), zap.String("symbol", p.Symbol))

	if !p.ExtractionDone() {
		return nil, eris.Errorf("pipeline: extraction not completed for %s", p.ID)
	}
	if !req.ForceReanalysis && p.ClassificationStatus == model.PhaseCompleted {
		log.Info("pipeline: classification already completed, reusing stored result")
		return o.store.GetComparison(ctx, p.ID)
	}
	if req.ForceReanalysis && p.ClassificationStatus == model.PhaseCompleted {
		if err := o.store.SetPhaseStatus(ctx, p.ID, model.PhaseClassification, model.PhaseNotStarted); err != nil {
			return nil, err
		}
	}

	claimed, err := o.store.ClaimPhase(ctx, p.ID, model.PhaseClassification)
	if err != nil {
		return nil, err
	}
	if !claimed {
		log.Info("pipeline: classification already in progress, skipping")
		return o.store.GetComparison(ctx, p.ID)
	}

	phaseCtx, cancel := context.WithTimeout(ctx, o.phaseTimeout())
	defer cancel()

	started := time.Now()
	result, classifyErr := o.classifyOnce(phaseCtx, p, bundle)

	// The result is persisted even when classification failed: fail closed
	// means the lowest tier with an explicit explanation, not no answer.
	if err := o.store.SaveClassification(phaseCtx, result); err != nil {
		return nil, o.failPhase(p.ID, model.PhaseClassification, err)
	}

	if classifyErr != nil {
		return result, o.failPhase(p.ID, model.PhaseClassification, classifyErr)
	}

	log.Info("pipeline: classification completed",
		zap.Int("final_tier", result.FinalTier),
		zap.Float64("final_score", result.FinalScore),
		zap.Duration("elapsed", time.Since(started)),
	)
	o.notifier.PhaseComplete(phaseCtx, p.ID, model.PhaseClassification)
	o.notifier.ProjectScored(phaseCtx, p.ID, result.FinalTier, result.FinalScore)
	return result, nil
}

// classifyOnce loads benchmarks and dispatches to the website or document
// variant. Standalone runs reload the persisted claims first so a document
// project stays on the two-stage evaluation. It always returns a non-nil
// result.
func (o *Orchestrator) classifyOnce(ctx context.Context, p *model.Project, bundle *model.SignalBundle) (*model.TierComparison, error) {
	benchmarks, err := o.store.ListBenchmarks(ctx)
	if err != nil {
		return model.FailedClosed(p.ID, "benchmark set unavailable"),
			resilience.NewError(resilience.ClassComparison, "pipeline/classification", err)
	}

	var mainClaim *model.Claim
	var evidenceClaims []model.Claim
	var signals []model.Signal
	if bundle != nil {
		mainClaim = bundle.MainClaim
		evidenceClaims = bundle.EvidenceClaims
		signals = bundle.Signals
	} else {
		mainClaim, evidenceClaims, err = o.store.GetClaims(ctx, p.ID)
		if err != nil {
			return model.FailedClosed(p.ID, "stored claims unavailable"),
				resilience.NewError(resilience.ClassComparison, "pipeline/classification", err)
		}
		if mainClaim == nil {
			signals, err = o.store.GetSignals(ctx, p.ID)
			if err != nil {
				return model.FailedClosed(p.ID, "stored signals unavailable"),
					resilience.NewError(resilience.ClassComparison, "pipeline/classification", err)
			}
		}
	}

	if mainClaim != nil {
		return o.classifier.ClassifyDocument(ctx, p.ID, mainClaim, evidenceClaims, benchmarks)
	}
	return o.classifier.Classify(ctx, p.ID, signals, benchmarks)
}

// chainClassification schedules the fire-and-forget Phase 2 run. The settle
// delay gives the extraction write time to become visible to other readers
// before classification starts.
func (o *Orchestrator) chainClassification(req Request, bundle *model.SignalBundle) {
	settle := o.settleDelay()
	o.bg.Go(func() error {
		time.Sleep(settle)

		ctx, cancel := context.WithTimeout(context.Background(), o.phaseTimeout())
		defer cancel()

		if _, err := o.RunClassification(ctx, req, bundle); err != nil {
			// Already recorded and notified inside RunClassification; the
			// extraction result stands regardless.
			zap.L().Error("pipeline: background classification failed",
				zap.String("project_id", req.ProjectID),
				zap.Error(err),
			)
		}
		return nil
	})
}

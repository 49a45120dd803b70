package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/extract"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/preprocess"
	"github.com/sells-group/vetting-cli/internal/store"
)

// RunExtraction executes Phase 1 for a request. A completed extraction is
// returned as-is unless the request forces reanalysis; an in-progress one is
// left alone. On success the background classification chain is scheduled,
// except for dead or parking sites, which short-circuit straight to the
// lowest tier without any comparison inference.
func (o *Orchestrator) RunExtraction(ctx context.Context, req Request) (*model.Project, error) {
	p, err := o.ensureProject(ctx, req)
	if err != nil {
		return nil, err
	}
	req.ProjectID = p.ID

	log := zap.L().With(zap.String("project_id", p.ID), zap.String("symbol", p.Symbol))

	if req.ForceReanalysis {
		// A forced run supersedes both phases; prior results are replaced,
		// never merged.
		if err := o.store.SetPhaseStatus(ctx, p.ID, model.PhaseExtraction, model.PhaseNotStarted); err != nil {
			return nil, err
		}
		if err := o.store.SetPhaseStatus(ctx, p.ID, model.PhaseClassification, model.PhaseNotStarted); err != nil {
			return nil, err
		}
	} else if p.ExtractionDone() {
		log.Info("pipeline: extraction already completed, reusing stored results")
		return p, nil
	}

	claimed, err := o.store.ClaimPhase(ctx, p.ID, model.PhaseExtraction)
	if err != nil {
		return nil, err
	}
	if !claimed {
		log.Info("pipeline: extraction already in progress, skipping")
		return p, nil
	}

	phaseCtx, cancel := context.WithTimeout(ctx, o.phaseTimeout())
	defer cancel()

	started := time.Now()
	bundle, fetched, reduced, err := o.extractOnce(phaseCtx, req)
	if err != nil {
		return nil, o.failPhase(p.ID, model.PhaseExtraction, err)
	}

	result := store.ExtractionResult{
		WebsiteStatus:   bundle.WebsiteStatus,
		ProjectType:     bundle.ProjectType,
		Content:         o.capContent(reduced.Content),
		ContentStrategy: fetched.Strategy,
		ContentReduced:  reduced.Reduced,
		Signals:         bundle.Signals,
		RedFlags:        bundle.RedFlags,
		MainClaim:       bundle.MainClaim,
		EvidenceClaims:  bundle.EvidenceClaims,
	}
	if err := o.store.SaveExtraction(phaseCtx, p.ID, result); err != nil {
		return nil, o.failPhase(p.ID, model.PhaseExtraction, err)
	}

	log.Info("pipeline: extraction completed",
		zap.String("website_status", string(bundle.WebsiteStatus)),
		zap.Int("signals", len(bundle.Signals)),
		zap.Int("red_flags", len(bundle.RedFlags)),
		zap.Duration("elapsed", time.Since(started)),
	)
	o.notifier.PhaseComplete(phaseCtx, p.ID, model.PhaseExtraction)

	if bundle.ShortCircuited() {
		// Nothing worth comparing: the site is dead, parked, or blocked.
		// Record the floor result directly so tier and score are still set.
		tc := &model.TierComparison{
			ProjectID:   p.ID,
			FinalTier:   model.TierLowest,
			FinalScore:  model.RangeForTier(model.TierLowest).Min,
			Explanation: fmt.Sprintf("website %s; classification skipped", bundle.WebsiteStatus),
			ComparedAt:  time.Now().UTC(),
		}
		if err := o.store.SaveClassification(phaseCtx, tc); err != nil {
			log.Warn("pipeline: failed to record short-circuit tier", zap.Error(err))
		}
	} else {
		o.chainClassification(req, bundle)
	}

	return o.store.GetProject(ctx, p.ID)
}

// extractOnce runs the acquisition, validation, preprocessing and extraction
// stages. Every error it returns carries a failure class from the stage that
// produced it.
func (o *Orchestrator) extractOnce(ctx context.Context, req Request) (*model.SignalBundle, *model.FetchResult, *preprocess.Result, error) {
	fetched, fetchErr := o.acquire(ctx, req)
	if fetchErr != nil {
		fetched = o.recoverFromFailedFetch(ctx, req)
		if fetched == nil {
			return nil, nil, nil, fetchErr
		}
	} else {
		// Validation is advisory: an incomplete verdict triggers recovery
		// attempts, and the best available content proceeds either way.
		verdict := o.validator.Check(ctx, fetched.Content, req.SourceURL)
		if !verdict.Complete && len(verdict.Actions) > 0 {
			zap.L().Info("pipeline: content judged incomplete, attempting recovery",
				zap.String("project_id", req.ProjectID),
				zap.String("reason", verdict.Reason),
				zap.Int("actions", len(verdict.Actions)),
			)
			if recovered := o.fetcher.Recover(ctx, req.SourceURL, verdict.Actions); recovered != nil &&
				len(recovered.Content) > len(fetched.Content) {
				fetched = recovered
			}
		}
	}

	reduced, err := o.reducer.Reduce(fetched.Content)
	if err != nil {
		return nil, nil, nil, err
	}
	if reduced.Reduced {
		zap.L().Info("pipeline: content reduced before extraction",
			zap.String("project_id", req.ProjectID),
			zap.String("tier", reduced.Tier),
			zap.Int("original_chars", reduced.OriginalChars),
			zap.Int("reduced_chars", len(reduced.Content)),
		)
	}

	bundle, err := o.extractor.Extract(ctx, extract.Input{
		ProjectID:          req.ProjectID,
		Symbol:             req.Symbol,
		SourceURL:          req.SourceURL,
		VerificationTarget: req.VerificationTarget,
		Document:           req.Document,
		Content:            reduced.Content,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return bundle, fetched, reduced, nil
}

// recoverFromFailedFetch is the last resort after the strategy chain came up
// empty: the validator judges the total failure and proposes recovery
// actions, and only content those actions produce keeps the phase alive.
func (o *Orchestrator) recoverFromFailedFetch(ctx context.Context, req Request) *model.FetchResult {
	verdict := o.validator.Check(ctx, "", req.SourceURL)
	if len(verdict.Actions) == 0 {
		return nil
	}

	zap.L().Info("pipeline: fetch chain exhausted, attempting recovery",
		zap.String("project_id", req.ProjectID),
		zap.String("reason", verdict.Reason),
		zap.Int("actions", len(verdict.Actions)),
	)
	recovered := o.fetcher.Recover(ctx, req.SourceURL, verdict.Actions)
	if recovered == nil || recovered.Content == "" {
		return nil
	}

	if err := o.store.SetCachedContent(ctx, req.SourceURL, recovered, contentCacheTTL); err != nil {
		zap.L().Warn("pipeline: content cache write failed", zap.Error(err))
	}
	return recovered
}

// acquire fetches content, preferring the cache for non-forced runs.
func (o *Orchestrator) acquire(ctx context.Context, req Request) (*model.FetchResult, error) {
	if !req.ForceReanalysis {
		cached, err := o.store.GetCachedContent(ctx, req.SourceURL)
		if err != nil {
			zap.L().Warn("pipeline: content cache read failed", zap.Error(err))
		} else if cached != nil {
			zap.L().Info("pipeline: using cached content",
				zap.String("project_id", req.ProjectID),
				zap.String("url", req.SourceURL),
			)
			return cached, nil
		}
	}

	fetched, err := o.fetcher.Fetch(ctx, req.SourceURL)
	if err != nil {
		return nil, err
	}

	if err := o.store.SetCachedContent(ctx, req.SourceURL, fetched, contentCacheTTL); err != nil {
		zap.L().Warn("pipeline: content cache write failed", zap.Error(err))
	}
	return fetched, nil
}

// capContent truncates persisted content to the store limit.
func (o *Orchestrator) capContent(content string) string {
	limit := o.cfg.Store.ContentCapChars
	if limit <= 0 {
		limit = 250_000
	}
	if len(content) > limit {
		return content[:limit]
	}
	return content
}

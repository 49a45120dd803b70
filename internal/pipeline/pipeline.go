// Package pipeline orchestrates the two analysis phases: signal extraction
// (acquire, validate, preprocess, extract) and benchmark-relative tier
// classification. Phase state lives in the store; every transition goes
// through optimistic status claims so concurrent triggers and re-entries
// never duplicate inference.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/extract"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/preprocess"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/internal/store"
)

// maxBackgroundWorkers bounds concurrent background classification runs.
const maxBackgroundWorkers = 4

// contentCacheTTL is how long a successful fetch stays reusable.
const contentCacheTTL = 24 * time.Hour

// Request.Phase values. Extraction is the default for requests that leave
// the field unset.
const (
	RequestPhaseExtraction     = 1
	RequestPhaseClassification = 2
)

// Request describes one analysis trigger.
type Request struct {
	ProjectID          string `json:"projectId,omitempty"`
	Symbol             string `json:"symbol"`
	SourceURL          string `json:"sourceUrl"`
	VerificationTarget string `json:"verificationTarget,omitempty"`
	// Phase selects the entry point: 2 re-runs classification against the
	// stored extraction output, anything else starts from extraction.
	Phase int `json:"phase,omitempty"`
	// Document switches to the two-stage whitepaper evaluation.
	Document        bool `json:"document,omitempty"`
	ForceReanalysis bool `json:"forceReanalysis,omitempty"`
}

// Fetcher acquires content through the strategy fallback chain.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*model.FetchResult, error)
	Recover(ctx context.Context, originalURL string, actions []model.RecoveryAction) *model.FetchResult
}

// Validator judges whether fetched content is complete enough to analyze.
type Validator interface {
	Check(ctx context.Context, content, sourceURL string) model.ValidationVerdict
}

// Reducer shrinks oversized content before it reaches the prompt.
type Reducer interface {
	Reduce(content string) (*preprocess.Result, error)
}

// Extractor runs Phase 1 signal extraction.
type Extractor interface {
	Extract(ctx context.Context, in extract.Input) (*model.SignalBundle, error)
}

// Classifier runs Phase 2 tier assignment.
type Classifier interface {
	Classify(ctx context.Context, projectID string, signals []model.Signal, benchmarks []model.Benchmark) (*model.TierComparison, error)
	ClassifyDocument(ctx context.Context, projectID string, mainClaim *model.Claim, evidence []model.Claim, benchmarks []model.Benchmark) (*model.TierComparison, error)
}

// Notifier reports phase outcomes; implementations must be best effort.
type Notifier interface {
	PhaseFailure(ctx context.Context, projectID string, phase model.Phase, err error)
	PhaseComplete(ctx context.Context, projectID string, phase model.Phase)
	ProjectScored(ctx context.Context, projectID string, tier int, score float64)
}

// Orchestrator drives both phases against the store.
type Orchestrator struct {
	cfg        *config.Config
	store      store.Store
	fetcher    Fetcher
	validator  Validator
	reducer    Reducer
	extractor  Extractor
	classifier Classifier
	notifier   Notifier

	bg *errgroup.Group
}

// New creates an Orchestrator with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	fetcher Fetcher,
	validator Validator,
	reducer Reducer,
	extractor Extractor,
	classifier Classifier,
	notifier Notifier,
) *Orchestrator {
	bg := &errgroup.Group{}
	bg.SetLimit(maxBackgroundWorkers)
	return &Orchestrator{
		cfg:        cfg,
		store:      st,
		fetcher:    fetcher,
		validator:  validator,
		reducer:    reducer,
		extractor:  extractor,
		classifier: classifier,
		notifier:   notifier,
		bg:         bg,
	}
}

// Wait blocks until all background classification runs finish. Used at
// shutdown so fire-and-forget work still drains cleanly.
func (o *Orchestrator) Wait() {
	o.bg.Wait() //nolint:errcheck
}

// Run dispatches a request to the phase it selects. Classification-only
// requests reuse the completed extraction, which is how projects get
// re-scored after a benchmark sync without re-fetching anything.
func (o *Orchestrator) Run(ctx context.Context, req Request) error {
	if req.Phase == RequestPhaseClassification {
		_, err := o.RunClassification(ctx, req, nil)
		return err
	}
	_, err := o.RunExtraction(ctx, req)
	return err
}

// ensureProject resolves the request's project, creating it on first contact.
func (o *Orchestrator) ensureProject(ctx context.Context, req Request) (*model.Project, error) {
	if req.ProjectID != "" {
		if p, err := o.store.GetProject(ctx, req.ProjectID); err == nil {
			return p, nil
		}
	}
	p := model.Project{
		ID:              req.ProjectID,
		Symbol:          req.Symbol,
		WebsiteURL:      req.SourceURL,
		ContractAddress: req.VerificationTarget,
	}
	if req.Document {
		p.WhitepaperURL = req.SourceURL
	}
	return o.store.CreateProject(ctx, p)
}

func (o *Orchestrator) phaseTimeout() time.Duration {
	secs := o.cfg.Analysis.PhaseTimeoutSecs
	if secs <= 0 {
		secs = 600
	}
	return time.Duration(secs) * time.Second
}

func (o *Orchestrator) settleDelay() time.Duration {
	secs := o.cfg.Analysis.ChainSettleSecs
	if secs <= 0 {
		secs = 2
	}
	return time.Duration(secs) * time.Second
}

// failPhase records a phase failure and returns the (possibly reclassified)
// error. The status write uses a fresh context because the phase context may
// already be dead.
func (o *Orchestrator) failPhase(projectID string, phase model.Phase, err error) error {
	if resilience.ClassOf(err) == "" && errors.Is(err, context.DeadlineExceeded) {
		err = resilience.NewError(resilience.ClassTimeout, "pipeline/"+string(phase), err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if statusErr := o.store.SetPhaseStatus(sctx, projectID, phase, model.PhaseFailed); statusErr != nil {
		zap.L().Warn("pipeline: failed to record phase failure",
			zap.String("project_id", projectID),
			zap.String("phase", string(phase)),
			zap.Error(statusErr),
		)
	}
	o.notifier.PhaseFailure(sctx, projectID, phase, err)

	zap.L().Error("pipeline: phase failed",
		zap.String("project_id", projectID),
		zap.String("phase", string(phase)),
		zap.String("failure_class", string(resilience.ClassOf(err))),
		zap.Error(err),
	)
	return err
}

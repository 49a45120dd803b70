// Package store persists projects, their extracted signals, benchmark sets
// and tier comparisons. Postgres backs production; SQLite backs dev and tests.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/model"
)

// ProjectFilter specifies criteria for listing projects.
type ProjectFilter struct {
	ExtractionStatus     model.PhaseStatus `json:"extraction_status,omitempty"`
	ClassificationStatus model.PhaseStatus `json:"classification_status,omitempty"`
	Symbol               string            `json:"symbol,omitempty"`
	Tier                 int               `json:"tier,omitempty"`
	Limit                int               `json:"limit,omitempty"`
	Offset               int               `json:"offset,omitempty"`
}

// ExtractionResult is everything Phase 1 persists in one durable write:
// the project row updates plus the superseding signal and red flag sets.
type ExtractionResult struct {
	WebsiteStatus   model.WebsiteStatus
	ProjectType     model.ProjectType
	Content         string
	ContentStrategy model.FetchStrategy
	ContentReduced  bool
	Signals         []model.Signal
	RedFlags        []model.RedFlag
	// MainClaim and EvidenceClaims carry the document evaluation output so a
	// standalone classification re-run stays on the two-stage variant.
	MainClaim      *model.Claim
	EvidenceClaims []model.Claim
}

// Store defines the persistence interface for the vetting pipeline.
// Benchmarks are read-only to the pipeline; UpsertBenchmarks exists for the
// curation commands only.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p model.Project) (*model.Project, error)
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	// ClaimPhase atomically moves a phase from not_started/failed to
	// in_progress. A false return means another run holds the phase or it
	// already completed, which is how re-entry stays idempotent.
	ClaimPhase(ctx context.Context, projectID string, phase model.Phase) (bool, error)
	SetPhaseStatus(ctx context.Context, projectID string, phase model.Phase, status model.PhaseStatus) error
	// SaveExtraction replaces any prior signal and red flag sets in the same
	// transaction that marks extraction completed. Supersede, never merge.
	SaveExtraction(ctx context.Context, projectID string, res ExtractionResult) error
	SaveClassification(ctx context.Context, tc *model.TierComparison) error

	// Phase outputs
	GetSignals(ctx context.Context, projectID string) ([]model.Signal, error)
	GetRedFlags(ctx context.Context, projectID string) ([]model.RedFlag, error)
	// GetClaims returns the persisted document claims. Both values are empty
	// for website projects.
	GetClaims(ctx context.Context, projectID string) (*model.Claim, []model.Claim, error)
	GetComparison(ctx context.Context, projectID string) (*model.TierComparison, error)

	// Benchmarks
	ListBenchmarks(ctx context.Context) ([]model.Benchmark, error)
	UpsertBenchmarks(ctx context.Context, benchmarks []model.Benchmark) (int, error)

	// Content cache
	GetCachedContent(ctx context.Context, url string) (*model.FetchResult, error)
	SetCachedContent(ctx context.Context, url string, res *model.FetchResult, ttl time.Duration) error
	DeleteExpiredContent(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// HashURL derives the content cache key for a URL.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// marshalClaims encodes the document claims for persistence. Website results
// carry none and both columns stay NULL.
func marshalClaims(res ExtractionResult) (mainClaim, evidenceClaims []byte, err error) {
	if res.MainClaim != nil {
		mainClaim, err = json.Marshal(res.MainClaim)
		if err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal main claim")
		}
	}
	if len(res.EvidenceClaims) > 0 {
		evidenceClaims, err = json.Marshal(res.EvidenceClaims)
		if err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal evidence claims")
		}
	}
	return mainClaim, evidenceClaims, nil
}

// phaseColumn maps a phase to its status column. Unknown phases collapse to
// extraction so the SQL is always well formed.
func phaseColumn(phase model.Phase) string {
	if phase == model.PhaseClassification {
		return "classification_status"
	}
	return "extraction_status"
}

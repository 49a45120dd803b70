package model

import "time"

// BenchmarkSet names which comparison set a benchmark belongs to.
type BenchmarkSet string

const (
	// SetSignal is the general benchmark set for website signal comparison.
	SetSignal BenchmarkSet = "signal"
	// SetAmbition benchmarks what a stated claim could justify at best.
	SetAmbition BenchmarkSet = "ambition"
	// SetEvidence benchmarks the quality of supporting evidence.
	SetEvidence BenchmarkSet = "evidence"
)

// Tier bounds. Tier 1 is the highest quality bucket, tier 4 the lowest.
const (
	TierHighest = 1
	TierLowest  = 4
)

// Benchmark is a curated exemplar claim pinned to a tier. Benchmarks are
// ground truth for the classifier and read-only to the pipeline; the
// curation commands are the only writers.
type Benchmark struct {
	ID       string         `json:"id"`
	Tier     int            `json:"tier"` // 1 (highest) .. 4 (lowest)
	Category SignalCategory `json:"category"`
	Set      BenchmarkSet   `json:"set"`
	// Claim is the exemplar text a candidate signal is compared against.
	Claim string `json:"claim"`
	// Rationale documents why the curator pinned this claim to this tier.
	Rationale string    `json:"rationale,omitempty"`
	Active    bool      `json:"active"`
	Source    string    `json:"source,omitempty"` // yaml | xlsx | notion
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidTier reports whether t is inside the tier range.
func ValidTier(t int) bool {
	return t >= TierHighest && t <= TierLowest
}

// BenchmarksByTier groups an active benchmark set by tier for the bottom-up
// comparison walk.
func BenchmarksByTier(benchmarks []Benchmark) map[int][]Benchmark {
	byTier := make(map[int][]Benchmark)
	for _, b := range benchmarks {
		if !b.Active || !ValidTier(b.Tier) {
			continue
		}
		byTier[b.Tier] = append(byTier[b.Tier], b)
	}
	return byTier
}

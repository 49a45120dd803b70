package model

import "time"

// TierRange is the fixed score band for a tier.
type TierRange struct {
	Min float64
	Max float64
}

// tierRanges maps tiers to non-overlapping 0-100 score bands.
var tierRanges = map[int]TierRange{
	1: {Min: 85, Max: 100},
	2: {Min: 60, Max: 84},
	3: {Min: 30, Max: 59},
	4: {Min: 0, Max: 29},
}

// RangeForTier returns the score band for a tier. Unknown tiers collapse to
// the lowest band so a score can always be produced.
func RangeForTier(tier int) TierRange {
	if r, ok := tierRanges[tier]; ok {
		return r
	}
	return tierRanges[TierLowest]
}

// ScoreForTier derives a score inside the tier's band from a relative
// strength in [0,1] (how the signal ranked among same-tier comparisons).
func ScoreForTier(tier int, strength float64) float64 {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	r := RangeForTier(tier)
	return r.Min + strength*(r.Max-r.Min)
}

// SignalAssignment records one signal's tier placement with the benchmark it
// was last compared against and the justification for stopping there.
type SignalAssignment struct {
	SignalID    string  `json:"signal_id,omitempty"`
	Description string  `json:"description"`
	Tier        int     `json:"tier"`
	BenchmarkID string  `json:"benchmark_id"`
	Benchmark   string  `json:"benchmark"`
	Reasoning   string  `json:"reasoning"`
	Comparable  bool    `json:"comparable"`
	Strength    float64 `json:"strength"` // relative strength within the tier, 0-1
}

// TierComparison is the Phase 2 output. Exactly one exists per completed run;
// reanalysis overwrites it.
type TierComparison struct {
	ProjectID   string             `json:"project_id"`
	Assignments []SignalAssignment `json:"assignments"`
	// Strongest is the single signal whose tier became the project tier.
	Strongest   *SignalAssignment `json:"strongest,omitempty"`
	FinalTier   int               `json:"final_tier"`
	FinalScore  float64           `json:"final_score"`
	Explanation string            `json:"explanation"`
	// ClaimCeiling and EvidenceTier are set only by the two-stage document
	// evaluation; FinalTier is their minimum quality (numeric maximum).
	ClaimCeiling int       `json:"claim_ceiling,omitempty"`
	EvidenceTier int       `json:"evidence_tier,omitempty"`
	ComparedAt   time.Time `json:"compared_at"`
}

// FailedClosed builds the deliberate lowest-tier result used when the
// comparison itself failed. Downstream consumers always get a tier/score pair.
func FailedClosed(projectID, reason string) *TierComparison {
	return &TierComparison{
		ProjectID:   projectID,
		FinalTier:   TierLowest,
		FinalScore:  RangeForTier(TierLowest).Min,
		Explanation: "evaluation failed: " + reason,
		ComparedAt:  time.Now().UTC(),
	}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreForTier_WithinRange(t *testing.T) {
	for tier := TierHighest; tier <= TierLowest; tier++ {
		r := RangeForTier(tier)
		for _, strength := range []float64{0, 0.25, 0.5, 0.99, 1} {
			score := ScoreForTier(tier, strength)
			assert.GreaterOrEqual(t, score, r.Min, "tier %d strength %f", tier, strength)
			assert.LessOrEqual(t, score, r.Max, "tier %d strength %f", tier, strength)
		}
	}
}

func TestScoreForTier_ClampsStrength(t *testing.T) {
	assert.Equal(t, RangeForTier(2).Min, ScoreForTier(2, -0.5))
	assert.Equal(t, RangeForTier(2).Max, ScoreForTier(2, 1.5))
}

func TestRangeForTier_NonOverlapping(t *testing.T) {
	for tier := TierHighest; tier < TierLowest; tier++ {
		higher := RangeForTier(tier)
		lower := RangeForTier(tier + 1)
		assert.Greater(t, higher.Min, lower.Max, "tier %d must sit above tier %d", tier, tier+1)
	}
}

func TestRangeForTier_UnknownCollapsesToLowest(t *testing.T) {
	assert.Equal(t, RangeForTier(TierLowest), RangeForTier(0))
	assert.Equal(t, RangeForTier(TierLowest), RangeForTier(9))
}

func TestFailedClosed(t *testing.T) {
	tc := FailedClosed("proj-1", "benchmark set unavailable")
	assert.Equal(t, TierLowest, tc.FinalTier)
	assert.Equal(t, RangeForTier(TierLowest).Min, tc.FinalScore)
	assert.Contains(t, tc.Explanation, "evaluation failed")
	assert.Contains(t, tc.Explanation, "benchmark set unavailable")
}

func TestBenchmarksByTier_FiltersInactiveAndInvalid(t *testing.T) {
	bs := []Benchmark{
		{ID: "a", Tier: 1, Active: true},
		{ID: "b", Tier: 2, Active: false},
		{ID: "c", Tier: 7, Active: true},
		{ID: "d", Tier: 4, Active: true},
	}
	byTier := BenchmarksByTier(bs)
	assert.Len(t, byTier[1], 1)
	assert.Empty(t, byTier[2])
	assert.Len(t, byTier[4], 1)
	assert.Len(t, byTier, 2)
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryPartnership))
	assert.False(t, ValidCategory(SignalCategory("vibes")))
}

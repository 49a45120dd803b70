// Package classify drives Phase 2: bottom-up benchmark-relative tier
// assignment converting a project's extracted signals into a final tier and
// 0-100 score.
package classify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

// Classifier performs benchmark-relative tier assignment.
type Classifier struct {
	client              anthropic.Client
	model               string
	noBatch             bool
	smallBatchThreshold int
	retry               resilience.RetryConfig
}

// New creates a Classifier. Comparisons run on the cheap model; the prompt
// does the heavy lifting and each call is a single pairwise judgment.
func New(client anthropic.Client, aiCfg config.AnthropicConfig) *Classifier {
	threshold := aiCfg.SmallBatchThreshold
	if threshold <= 0 {
		threshold = 5
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "compare")
	return &Classifier{
		client:              client,
		model:               aiCfg.HaikuModel,
		noBatch:             aiCfg.NoBatch,
		smallBatchThreshold: threshold,
		retry:               retry,
	}
}

// Classify assigns a tier and score from a project's signals against the
// active benchmark set. A failed comparison run fails closed to the lowest
// tier with an explicit explanation; the error is returned alongside so the
// orchestrator can record the phase failure, but the result is always usable.
func (c *Classifier) Classify(ctx context.Context, projectID string, signals []model.Signal, benchmarks []model.Benchmark) (*model.TierComparison, error) {
	if len(signals) == 0 {
		return &model.TierComparison{
			ProjectID:   projectID,
			FinalTier:   model.TierLowest,
			FinalScore:  model.RangeForTier(model.TierLowest).Min,
			Explanation: "no signals extracted",
			ComparedAt:  time.Now().UTC(),
		}, nil
	}

	byTier := model.BenchmarksByTier(activeSet(benchmarks, model.SetSignal))
	if len(byTier) == 0 {
		err := resilience.NewError(resilience.ClassComparison, "classify",
			eris.New("active benchmark set is empty"))
		return model.FailedClosed(projectID, "benchmark set empty"), err
	}

	assignments, err := c.assignTiers(ctx, signals, byTier)
	if err != nil {
		return model.FailedClosed(projectID, err.Error()),
			resilience.NewError(resilience.ClassComparison, "classify", err)
	}

	// Standing override: named-endorsement claims are a priori suspect and
	// cannot set the project tier unless independently verified.
	overridden := make(map[string]bool)
	for _, s := range signals {
		if s.Category == model.CategoryEndorsement {
			overridden[s.ID] = true
		}
	}

	result := buildResult(projectID, assignments, overridden)
	zap.L().Info("classify: final tier assigned",
		zap.String("project_id", projectID),
		zap.Int("final_tier", result.FinalTier),
		zap.Float64("final_score", result.FinalScore),
		zap.Int("signals", len(signals)),
	)
	return result, nil
}

// assignTiers walks the bottom-up promotion one tier level at a time. Every
// signal starts at the lowest tier; at each level, signals still in the
// running are compared against that level's benchmarks, and only the ones
// judged strictly stronger than their closest benchmark promote upward.
func (c *Classifier) assignTiers(ctx context.Context, signals []model.Signal, byTier map[int][]model.Benchmark) ([]model.SignalAssignment, error) {
	assignments := make([]model.SignalAssignment, len(signals))
	promotable := make([]bool, len(signals))
	for i, s := range signals {
		assignments[i] = model.SignalAssignment{
			SignalID:    s.ID,
			Description: s.Description,
			Tier:        model.TierLowest,
		}
		promotable[i] = true
	}

	for level := model.TierLowest; level >= model.TierHighest; level-- {
		levelBenchmarks := byTier[level]
		var pending []int
		for i := range signals {
			if promotable[i] && assignments[i].Tier == level {
				pending = append(pending, i)
			}
		}
		if len(pending) == 0 {
			break
		}
		if len(levelBenchmarks) == 0 {
			// No exemplars at this level; nothing to beat, promotion stops.
			for _, i := range pending {
				assignments[i].Reasoning = "no benchmark available at this tier"
				promotable[i] = false
			}
			continue
		}

		verdicts, err := c.compareLevel(ctx, signals, pending, levelBenchmarks)
		if err != nil {
			return nil, err
		}

		for _, i := range pending {
			v, ok := verdicts[i]
			if !ok {
				// A missing verdict stops promotion for that signal only.
				assignments[i].Reasoning = "comparison unavailable; kept at current tier"
				promotable[i] = false
				continue
			}
			assignments[i].BenchmarkID = v.benchmark.ID
			assignments[i].Benchmark = v.benchmark.Claim
			assignments[i].Reasoning = v.reasoning
			assignments[i].Comparable = v.comparable
			assignments[i].Strength = v.strength

			if v.stronger && level > model.TierHighest {
				assignments[i].Tier = level - 1
			} else {
				promotable[i] = false
			}
		}
	}

	return assignments, nil
}

// activeSet filters benchmarks to the active members of one set.
func activeSet(benchmarks []model.Benchmark, set model.BenchmarkSet) []model.Benchmark {
	var out []model.Benchmark
	for _, b := range benchmarks {
		if b.Active && b.Set == set {
			out = append(out, b)
		}
	}
	return out
}

// buildResult picks the single strongest signal: the project's tier is the
// tier of its best signal, so one exceptional signal outweighs many weak
// ones. Unverified endorsements never set the project tier.
func buildResult(projectID string, assignments []model.SignalAssignment, endorsementOverride map[string]bool) *model.TierComparison {
	result := &model.TierComparison{
		ProjectID:   projectID,
		Assignments: assignments,
		FinalTier:   model.TierLowest,
		ComparedAt:  time.Now().UTC(),
	}

	overridden := 0
	for i := range assignments {
		a := &assignments[i]
		if endorsementOverride[a.SignalID] {
			overridden++
			continue
		}
		if result.Strongest == nil ||
			a.Tier < result.Strongest.Tier ||
			(a.Tier == result.Strongest.Tier && a.Strength > result.Strongest.Strength) {
			result.Strongest = a
		}
	}

	if result.Strongest != nil {
		result.FinalTier = result.Strongest.Tier
		result.FinalScore = model.ScoreForTier(result.FinalTier, result.Strongest.Strength)
		result.Explanation = "final tier set by strongest signal: " + result.Strongest.Description
	} else {
		result.FinalScore = model.RangeForTier(model.TierLowest).Min
		result.Explanation = "no signal eligible to set the tier"
	}
	if overridden > 0 {
		result.Explanation += "; unverified endorsement signals excluded from tier selection"
	}

	return result
}

package classify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

// maxDirectConcurrency limits concurrent CreateMessage calls when comparisons
// go direct instead of through the Batch API.
const maxDirectConcurrency = 10

const compareSystemPrompt = `You judge one candidate signal about a crypto project against curated benchmark claims pinned to a quality tier.

Pick the single closest benchmark, even when no benchmark shares the candidate's domain; a cross-category comparison is fine but must be called out in the reasoning. Then judge whether the candidate is STRICTLY STRONGER evidence of project quality than that benchmark. Equal is not stronger. If the candidate genuinely cannot be compared to any listed benchmark, say so, but still name the benchmark you checked it against.

Respond with a single valid JSON object:
{
  "benchmark_index": <0-based index of the closest benchmark>,
  "verdict": "stronger|equal|weaker|not_comparable",
  "strength": <0.0-1.0 relative strength among claims of this tier>,
  "reasoning": "<2-3 sentences justifying the choice of benchmark and the verdict; note any cross-category comparison>"
}`

const compareUserPrompt = `Candidate signal (category: %s):
%s
Source text: %s

Tier %d benchmarks:
%s`

// levelVerdict is one comparison outcome at a single tier level.
type levelVerdict struct {
	benchmark  model.Benchmark
	stronger   bool
	comparable bool
	strength   float64
	reasoning  string
}

// compareLevel judges every pending signal against one tier's benchmarks.
// Few comparisons go direct with bounded concurrency; larger sets go through
// the Batch API.
func (c *Classifier) compareLevel(ctx context.Context, signals []model.Signal, pending []int, benchmarks []model.Benchmark) (map[int]levelVerdict, error) {
	items := make([]anthropic.BatchRequestItem, 0, len(pending))
	for _, i := range pending {
		items = append(items, anthropic.BatchRequestItem{
			CustomID: fmt.Sprintf("compare-%d", i),
			Params: anthropic.MessageRequest{
				Model:       c.model,
				MaxTokens:   512,
				System:      compareSystemPrompt,
				Prompt:      buildComparePrompt(signals[i], benchmarks),
				CacheSystem: true,
			},
		})
	}

	if c.noBatch || len(items) <= c.smallBatchThreshold {
		return c.compareDirect(ctx, items, benchmarks)
	}
	return c.compareBatch(ctx, items, benchmarks)
}

func buildComparePrompt(signal model.Signal, benchmarks []model.Benchmark) string {
	var sb strings.Builder
	for i, b := range benchmarks {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i, b.Category, b.Claim)
	}
	return fmt.Sprintf(compareUserPrompt,
		signal.Category, signal.Description, signal.SourceText,
		benchmarks[0].Tier, sb.String())
}

func (c *Classifier) compareDirect(ctx context.Context, items []anthropic.BatchRequestItem, benchmarks []model.Benchmark) (map[int]levelVerdict, error) {
	verdicts := make(map[int]levelVerdict)
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxDirectConcurrency)

	for _, item := range items {
		g.Go(func() error {
			resp, err := resilience.DoVal(gCtx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
				return c.client.CreateMessage(ctx, item.Params)
			})
			if err != nil {
				return eris.Wrapf(err, "classify: compare %s", item.CustomID)
			}
			resp.Usage.LogCost(c.model, "classify")

			v, err := parseVerdict(resp.Text, benchmarks)
			if err != nil {
				return eris.Wrapf(err, "classify: parse %s", item.CustomID)
			}

			idx, err := signalIndex(item.CustomID)
			if err != nil {
				return err
			}
			mu.Lock()
			verdicts[idx] = v
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

func (c *Classifier) compareBatch(ctx context.Context, items []anthropic.BatchRequestItem, benchmarks []model.Benchmark) (map[int]levelVerdict, error) {
	batch, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.BatchResponse, error) {
		return c.client.CreateBatch(ctx, anthropic.BatchRequest{Requests: items})
	})
	if err != nil {
		return nil, eris.Wrap(err, "classify: create batch")
	}

	batch, err = anthropic.PollBatch(ctx, c.client, batch.ID)
	if err != nil {
		return nil, eris.Wrap(err, "classify: poll batch")
	}

	iter, err := c.client.GetBatchResults(ctx, batch.ID)
	if err != nil {
		return nil, eris.Wrap(err, "classify: get batch results")
	}

	results, err := anthropic.CollectBatchResults(iter)
	if err != nil {
		return nil, eris.Wrap(err, "classify: collect batch results")
	}

	verdicts := make(map[int]levelVerdict)
	for customID, resp := range results {
		idx, err := signalIndex(customID)
		if err != nil {
			zap.L().Warn("classify: unexpected batch custom id", zap.String("custom_id", customID))
			continue
		}
		v, err := parseVerdict(resp.Text, benchmarks)
		if err != nil {
			// One unparseable verdict stops that signal's promotion, not the run.
			zap.L().Warn("classify: unparseable batch verdict",
				zap.String("custom_id", customID),
				zap.Error(err),
			)
			continue
		}
		verdicts[idx] = v
	}
	return verdicts, nil
}

func signalIndex(customID string) (int, error) {
	raw, ok := strings.CutPrefix(customID, "compare-")
	if !ok {
		return 0, eris.Errorf("classify: malformed custom id %q", customID)
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "classify: malformed custom id %q", customID)
	}
	return idx, nil
}

func parseVerdict(text string, benchmarks []model.Benchmark) (levelVerdict, error) {
	var raw struct {
		BenchmarkIndex int     `json:"benchmark_index"`
		Verdict        string  `json:"verdict"`
		Strength       float64 `json:"strength"`
		Reasoning      string  `json:"reasoning"`
	}
	if err := anthropic.RepairParse(text, &raw); err != nil {
		return levelVerdict{}, err
	}

	if raw.BenchmarkIndex < 0 || raw.BenchmarkIndex >= len(benchmarks) {
		raw.BenchmarkIndex = 0
	}
	if raw.Strength < 0 {
		raw.Strength = 0
	}
	if raw.Strength > 1 {
		raw.Strength = 1
	}
	if strings.TrimSpace(raw.Reasoning) == "" {
		return levelVerdict{}, eris.New("verdict missing reasoning")
	}

	verdict := strings.ToLower(strings.TrimSpace(raw.Verdict))
	switch verdict {
	case "stronger", "equal", "weaker", "not_comparable":
	default:
		return levelVerdict{}, eris.Errorf("unknown verdict %q", raw.Verdict)
	}

	return levelVerdict{
		benchmark:  benchmarks[raw.BenchmarkIndex],
		stronger:   verdict == "stronger",
		comparable: verdict != "not_comparable",
		strength:   raw.Strength,
		reasoning:  raw.Reasoning,
	}, nil
}

package fetch

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/pkg/firecrawl"
)

// RenderStrategy captures client-rendered pages through Firecrawl. The first
// attempt waits the configured settle time; if the output is still
// low-signal it retries once with the longer settle.
type RenderStrategy struct {
	client            firecrawl.Client
	settleMillis      int
	retrySettleMillis int
	timeout           time.Duration
	minUsableChars    int
	retry             resilience.RetryConfig
}

// NewRenderStrategy creates the rendering step of the fetch chain.
func NewRenderStrategy(client firecrawl.Client, fcCfg config.FirecrawlConfig, fetchCfg config.FetchConfig) *RenderStrategy {
	settle := fcCfg.SettleMillis
	if settle <= 0 {
		settle = 3000
	}
	retrySettle := fcCfg.RetrySettleMillis
	if retrySettle <= settle {
		retrySettle = settle * 3
	}
	timeout := time.Duration(fetchCfg.RenderTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	minUsable := fetchCfg.MinUsableChars
	if minUsable <= 0 {
		minUsable = 200
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("firecrawl", "render")
	return &RenderStrategy{
		client:            client,
		settleMillis:      settle,
		retrySettleMillis: retrySettle,
		timeout:           timeout,
		minUsableChars:    minUsable,
		retry:             retry,
	}
}

func (r *RenderStrategy) Name() string { return "render" }

func (r *RenderStrategy) Supports(_ string) bool { return r.client != nil }

// Fetch renders the page, retrying once with a longer settle when the first
// capture is low-signal.
func (r *RenderStrategy) Fetch(ctx context.Context, targetURL string) (*model.FetchResult, error) {
	result, err := r.render(ctx, targetURL, r.settleMillis, "")
	if err == nil && len(result.Content) >= r.minUsableChars {
		return result, nil
	}

	zap.L().Debug("render: first capture low-signal, retrying with longer settle",
		zap.String("url", targetURL),
		zap.Int("settle_ms", r.retrySettleMillis),
	)
	return r.render(ctx, targetURL, r.retrySettleMillis, "")
}

// RenderWithSelector renders the page waiting for a specific CSS selector,
// as proposed by a validator recovery action.
func (r *RenderStrategy) RenderWithSelector(ctx context.Context, targetURL, selector string) (*model.FetchResult, error) {
	return r.render(ctx, targetURL, r.retrySettleMillis, selector)
}

func (r *RenderStrategy) render(ctx context.Context, targetURL string, settleMillis int, selector string) (*model.FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req := firecrawl.RenderRequest{
		URL:     targetURL,
		Formats: []string{"markdown"},
		WaitFor: settleMillis,
		Timeout: int(r.timeout / time.Millisecond),
	}
	if selector != "" {
		req.Actions = []firecrawl.Action{firecrawl.WaitForSelector(selector)}
	}

	resp, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*firecrawl.RenderResponse, error) {
		return r.client.Render(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "render: %s", targetURL)
	}
	if !resp.Success {
		return nil, eris.Errorf("render: capture not successful for %s", targetURL)
	}

	finalURL := resp.Data.URL
	if finalURL == "" {
		finalURL = targetURL
	}
	return &model.FetchResult{
		Content:       resp.Data.Markdown,
		Strategy:      model.StrategyRendered,
		OriginalBytes: len(resp.Data.Markdown),
		FinalURL:      finalURL,
	}, nil
}

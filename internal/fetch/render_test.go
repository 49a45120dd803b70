package fetch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/pkg/firecrawl"
)

type fakeFirecrawl struct {
	responses []*firecrawl.RenderResponse
	requests  []firecrawl.RenderRequest
}

func (f *fakeFirecrawl) Render(_ context.Context, req firecrawl.RenderRequest) (*firecrawl.RenderResponse, error) {
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func renderConfigs() (config.FirecrawlConfig, config.FetchConfig) {
	return config.FirecrawlConfig{SettleMillis: 3000, RetrySettleMillis: 10000},
		config.FetchConfig{RenderTimeoutSecs: 60, MinUsableChars: 50}
}

func TestRender_FirstCaptureSucceeds(t *testing.T) {
	fc := &fakeFirecrawl{responses: []*firecrawl.RenderResponse{
		{Success: true, Data: firecrawl.PageData{
			URL:      "https://acme.io",
			Markdown: strings.Repeat("# Acme\nRendered content. ", 10),
		}},
	}}
	fcCfg, fetchCfg := renderConfigs()
	s := NewRenderStrategy(fc, fcCfg, fetchCfg)

	result, err := s.Fetch(context.Background(), "https://acme.io")

	require.NoError(t, err)
	assert.Equal(t, model.StrategyRendered, result.Strategy)
	require.Len(t, fc.requests, 1)
	assert.Equal(t, 3000, fc.requests[0].WaitFor)
}

func TestRender_RetriesWithLongerSettle(t *testing.T) {
	fc := &fakeFirecrawl{responses: []*firecrawl.RenderResponse{
		{Success: true, Data: firecrawl.PageData{Markdown: "thin"}},
		{Success: true, Data: firecrawl.PageData{
			Markdown: strings.Repeat("Full content after settle. ", 10),
		}},
	}}
	fcCfg, fetchCfg := renderConfigs()
	s := NewRenderStrategy(fc, fcCfg, fetchCfg)

	result, err := s.Fetch(context.Background(), "https://acme.io")

	require.NoError(t, err)
	assert.Contains(t, result.Content, "Full content after settle")
	require.Len(t, fc.requests, 2)
	assert.Equal(t, 3000, fc.requests[0].WaitFor)
	assert.Equal(t, 10000, fc.requests[1].WaitFor)
}

func TestRender_WithSelector(t *testing.T) {
	fc := &fakeFirecrawl{responses: []*firecrawl.RenderResponse{
		{Success: true, Data: firecrawl.PageData{Markdown: strings.Repeat("App content. ", 10)}},
	}}
	fcCfg, fetchCfg := renderConfigs()
	s := NewRenderStrategy(fc, fcCfg, fetchCfg)

	_, err := s.RenderWithSelector(context.Background(), "https://acme.io", "#app")

	require.NoError(t, err)
	require.Len(t, fc.requests, 1)
	require.Len(t, fc.requests[0].Actions, 1)
	assert.Equal(t, "#app", fc.requests[0].Actions[0].Selector)
	assert.Equal(t, 10000, fc.requests[0].WaitFor)
}

type flakyFirecrawl struct {
	failures int
	calls    int
	resp     *firecrawl.RenderResponse
}

func (f *flakyFirecrawl) Render(_ context.Context, _ firecrawl.RenderRequest) (*firecrawl.RenderResponse, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, resilience.NewTransientError(eris.New("bad gateway"), 502)
	}
	return f.resp, nil
}

func TestRender_RetriesTransientFailure(t *testing.T) {
	fc := &flakyFirecrawl{
		failures: 1,
		resp: &firecrawl.RenderResponse{Success: true, Data: firecrawl.PageData{
			Markdown: strings.Repeat("Rendered content. ", 10),
		}},
	}
	fcCfg, fetchCfg := renderConfigs()
	s := NewRenderStrategy(fc, fcCfg, fetchCfg)
	s.retry.InitialBackoff = time.Millisecond

	result, err := s.Fetch(context.Background(), "https://acme.io")

	require.NoError(t, err)
	assert.Contains(t, result.Content, "Rendered content")
	assert.Equal(t, 2, fc.calls)
}

func TestRender_NoRetryOnPermanentFailure(t *testing.T) {
	fc := &flakyFirecrawl{failures: 5}
	fcCfg, fetchCfg := renderConfigs()
	s := NewRenderStrategy(fc, fcCfg, fetchCfg)
	s.retry.InitialBackoff = time.Millisecond
	s.retry.ShouldRetry = func(error) bool { return false }

	_, err := s.Fetch(context.Background(), "https://acme.io")

	require.Error(t, err)
	assert.Equal(t, 2, fc.calls, "one call per settle attempt, no retries")
}

func TestRender_UnsuccessfulCapture(t *testing.T) {
	fc := &fakeFirecrawl{responses: []*firecrawl.RenderResponse{{Success: false}}}
	fcCfg, fetchCfg := renderConfigs()
	s := NewRenderStrategy(fc, fcCfg, fetchCfg)

	_, err := s.Fetch(context.Background(), "https://acme.io")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not successful")
}

func TestRender_NilClientNotSupported(t *testing.T) {
	fcCfg, fetchCfg := renderConfigs()
	s := NewRenderStrategy(nil, fcCfg, fetchCfg)
	assert.False(t, s.Supports("https://acme.io"))
}

package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/pkg/jina"
)

// JinaStrategy wraps the Jina Reader as a chain step with a circuit breaker.
// Three consecutive failures within 30s open the circuit for 60s, causing
// immediate fallthrough to the renderer.
type JinaStrategy struct {
	client  jina.Client
	breaker *resilience.CircuitBreaker
}

// NewJinaStrategy creates the reader step of the fetch chain.
func NewJinaStrategy(client jina.Client) *JinaStrategy {
	return &JinaStrategy{
		client:  client,
		breaker: resilience.NewCircuitBreaker("jina", 3, 30*time.Second, 60*time.Second),
	}
}

func (j *JinaStrategy) Name() string { return "jina" }

// Supports returns false while the circuit breaker is open.
func (j *JinaStrategy) Supports(_ string) bool {
	return !j.breaker.IsOpen()
}

// Fetch reads a URL via Jina Reader and validates the response content.
func (j *JinaStrategy) Fetch(ctx context.Context, targetURL string) (*model.FetchResult, error) {
	if j.breaker.IsOpen() {
		return nil, eris.New("jina: circuit breaker open")
	}

	resp, err := j.client.Read(ctx, targetURL)
	if err != nil {
		j.breaker.RecordFailure()
		return nil, err
	}

	if needsFallback(resp) {
		j.breaker.RecordFailure()
		return nil, eris.New("jina: response needs fallback")
	}

	j.breaker.RecordSuccess()
	finalURL := resp.Data.URL
	if finalURL == "" {
		finalURL = targetURL
	}
	return &model.FetchResult{
		Content:       resp.Data.Content,
		Strategy:      model.StrategyDirect,
		OriginalBytes: len(resp.Data.Content),
		FinalURL:      finalURL,
	}, nil
}

// needsFallback checks whether a Jina response contains usable content or
// indicates the page is blocked/empty. Returns true if the chain should
// continue to the renderer.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}

	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Content)

	if len(content) < 100 {
		return true
	}

	lower := strings.ToLower(content)

	challengeSignatures := []string{
		"checking your browser",
		"enable javascript",
		"please enable cookies",
		"access denied",
		"403 forbidden",
		"just a moment",
		"cloudflare",
		"attention required",
	}

	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) && len(content) < 1000 {
			return true
		}
	}

	return false
}

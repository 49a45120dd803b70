package fetch

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/pkg/jina"
)

type fakeJina struct {
	resp  *jina.ReadResponse
	err   error
	calls int
}

func (f *fakeJina) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	f.calls++
	return f.resp, f.err
}

func goodJinaResponse() *jina.ReadResponse {
	return &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			Title:   "Acme",
			URL:     "https://acme.io",
			Content: strings.Repeat("Acme builds settlement infrastructure. ", 10),
		},
	}
}

func TestJina_Success(t *testing.T) {
	s := NewJinaStrategy(&fakeJina{resp: goodJinaResponse()})
	result, err := s.Fetch(context.Background(), "https://acme.io")

	require.NoError(t, err)
	assert.Equal(t, model.StrategyDirect, result.Strategy)
	assert.Contains(t, result.Content, "settlement infrastructure")
	assert.Equal(t, "https://acme.io", result.FinalURL)
}

func TestJina_CircuitBreakerOpensAfterFailures(t *testing.T) {
	client := &fakeJina{err: eris.New("upstream down")}
	s := NewJinaStrategy(client)

	for i := 0; i < 3; i++ {
		_, err := s.Fetch(context.Background(), "https://acme.io")
		require.Error(t, err)
	}

	// Circuit now open: the chain skips jina via Supports.
	assert.False(t, s.Supports("https://acme.io"))

	_, err := s.Fetch(context.Background(), "https://acme.io")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, 3, client.calls)
}

func TestNeedsFallback(t *testing.T) {
	assert.True(t, needsFallback(nil))
	assert.True(t, needsFallback(&jina.ReadResponse{Code: 451}))
	assert.True(t, needsFallback(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: "tiny"},
	}))
	assert.True(t, needsFallback(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: "Just a moment... " + strings.Repeat("x", 120)},
	}))
	assert.False(t, needsFallback(goodJinaResponse()))

	// Challenge signature inside a long legitimate page does not trip it.
	long := strings.Repeat("Real content about the Cloudflare partnership. ", 100)
	assert.False(t, needsFallback(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: long},
	}))
}

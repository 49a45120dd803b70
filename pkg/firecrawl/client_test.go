package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Success(t *testing.T) {
	var captured RenderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(RenderResponse{
			Success: true,
			Data: PageData{
				URL:        captured.URL,
				Markdown:   "# Rendered page",
				Title:      "Acme Protocol",
				StatusCode: 200,
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Render(context.Background(), RenderRequest{
		URL:     "https://acme.io",
		Formats: []string{"markdown"},
		WaitFor: 3000,
		Actions: []Action{WaitForSelector("#app")},
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "# Rendered page", resp.Data.Markdown)
	assert.Equal(t, 3000, captured.WaitFor)
	require.Len(t, captured.Actions, 1)
	assert.Equal(t, "wait", captured.Actions[0].Type)
	assert.Equal(t, "#app", captured.Actions[0].Selector)
}

func TestRender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"out of credits"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Render(context.Background(), RenderRequest{URL: "https://acme.io"})

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "out of credits")
}

func TestRender_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Render(context.Background(), RenderRequest{URL: "https://acme.io"})
	assert.ErrorContains(t, err, "decode response")
}

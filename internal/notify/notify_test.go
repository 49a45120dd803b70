package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
)

func TestNotifier_PhaseFailure_PostsEvent(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{WebhookURL: srv.URL})
	cause := resilience.NewError(resilience.ClassAcquisition, "fetch/chain", eris.New("all strategies exhausted"))
	n.PhaseFailure(context.Background(), "p-1", model.PhaseExtraction, cause)

	assert.Equal(t, EventPhaseFailure, received.Type)
	assert.Equal(t, "p-1", received.ProjectID)
	assert.Equal(t, model.PhaseExtraction, received.Phase)
	assert.Equal(t, "acquisition", received.Details["failure_class"])
	assert.Contains(t, received.Message, "extraction failed")
}

func TestNotifier_ProjectScored_PostsEvent(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{WebhookURL: srv.URL})
	n.ProjectScored(context.Background(), "p-2", 2, 71.5)

	assert.Equal(t, EventProjectScored, received.Type)
	assert.InDelta(t, 71.5, received.Details["final_score"], 0.001)
}

func TestNotifier_WebhookErrorIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{WebhookURL: srv.URL})
	// Must not panic or propagate; failure notifications are best effort.
	n.PhaseFailure(context.Background(), "p-3", model.PhaseClassification, eris.New("boom"))
}

func TestNotifier_DisabledWithoutURL(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{})
	n.PhaseComplete(context.Background(), "p-4", model.PhaseExtraction)

	assert.Equal(t, int32(0), calls.Load())
}

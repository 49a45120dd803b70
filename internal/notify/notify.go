// Package notify delivers best-effort webhook notifications about pipeline
// outcomes. Delivery problems are logged and swallowed; a notification must
// never fail the operation it reports on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
)

// EventType identifies the kind of notification.
type EventType string

const (
	EventPhaseFailure  EventType = "phase_failure"
	EventPhaseComplete EventType = "phase_complete"
	EventProjectScored EventType = "project_scored"
)

// Event is a single notification payload.
type Event struct {
	Type      EventType      `json:"type"`
	ProjectID string         `json:"project_id"`
	Phase     model.Phase    `json:"phase,omitempty"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier posts events to a configured webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a Notifier. An empty webhook URL disables delivery entirely.
func New(cfg config.NotifyConfig) *Notifier {
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// PhaseFailure reports a failed phase with its failure class so the receiving
// side can triage without digging through logs.
func (n *Notifier) PhaseFailure(ctx context.Context, projectID string, phase model.Phase, err error) {
	n.send(ctx, Event{
		Type:      EventPhaseFailure,
		ProjectID: projectID,
		Phase:     phase,
		Severity:  "high",
		Message:   fmt.Sprintf("%s failed for project %s: %v", phase, projectID, err),
		Details: map[string]any{
			"failure_class": string(resilience.ClassOf(err)),
		},
		Timestamp: time.Now().UTC(),
	})
}

// PhaseComplete reports a completed phase.
func (n *Notifier) PhaseComplete(ctx context.Context, projectID string, phase model.Phase) {
	n.send(ctx, Event{
		Type:      EventPhaseComplete,
		ProjectID: projectID,
		Phase:     phase,
		Severity:  "info",
		Message:   fmt.Sprintf("%s completed for project %s", phase, projectID),
		Timestamp: time.Now().UTC(),
	})
}

// ProjectScored reports the final tier and score after classification.
func (n *Notifier) ProjectScored(ctx context.Context, projectID string, tier int, score float64) {
	n.send(ctx, Event{
		Type:      EventProjectScored,
		ProjectID: projectID,
		Severity:  "info",
		Message:   fmt.Sprintf("project %s scored: tier %d, score %.1f", projectID, tier, score),
		Details: map[string]any{
			"final_tier":  tier,
			"final_score": score,
		},
		Timestamp: time.Now().UTC(),
	})
}

func (n *Notifier) send(ctx context.Context, event Event) {
	if n.webhookURL == "" {
		return
	}
	if err := n.post(ctx, event); err != nil {
		zap.L().Warn("notify: webhook delivery failed",
			zap.String("type", string(event.Type)),
			zap.String("project_id", event.ProjectID),
			zap.Error(err),
		)
		return
	}
	zap.L().Debug("notify: event sent",
		zap.String("type", string(event.Type)),
		zap.String("project_id", event.ProjectID),
	)
}

func (n *Notifier) post(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

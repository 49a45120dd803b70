package model

import "strings"

// RecoveryKind tags a recovery action proposed by the content validator.
// Dispatch validates the tag before acting so model output never drives
// unbounded code paths.
type RecoveryKind string

const (
	// RecoverHeadlessRender renders the page with client scripts, optionally
	// waiting for a specific CSS selector.
	RecoverHeadlessRender RecoveryKind = "use_headless_render"
	// RecoverAlternateURL fetches a specific alternate URL instead.
	RecoverAlternateURL RecoveryKind = "try_alternate_url"
	// RecoverPathPattern probes a small set of conventional paths such as
	// /whitepaper.pdf under the original host.
	RecoverPathPattern RecoveryKind = "probe_path_pattern"
)

// ParseRecoveryKind maps a model-supplied tag to a known kind. Unknown tags
// return ok=false and must be skipped, never dispatched.
func ParseRecoveryKind(s string) (RecoveryKind, bool) {
	switch RecoveryKind(strings.ToLower(strings.TrimSpace(s))) {
	case RecoverHeadlessRender:
		return RecoverHeadlessRender, true
	case RecoverAlternateURL:
		return RecoverAlternateURL, true
	case RecoverPathPattern:
		return RecoverPathPattern, true
	default:
		return "", false
	}
}

// RecoveryAction is one validator suggestion for re-acquiring content.
type RecoveryAction struct {
	Kind RecoveryKind `json:"kind"`
	// WaitForSelector applies to RecoverHeadlessRender.
	WaitForSelector string `json:"wait_for_selector,omitempty"`
	// AlternateURL applies to RecoverAlternateURL.
	AlternateURL string `json:"alternate_url,omitempty"`
	// PathPatterns applies to RecoverPathPattern; empty means use the
	// conventional defaults.
	PathPatterns []string `json:"path_patterns,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// ValidationVerdict is the content validator's output: a completeness verdict
// plus ordered recovery suggestions when incomplete.
type ValidationVerdict struct {
	Complete bool             `json:"complete"`
	Reason   string           `json:"reason,omitempty"`
	Actions  []RecoveryAction `json:"actions,omitempty"`
	// Heuristic marks a verdict produced by the length fallback after the
	// judgment call failed.
	Heuristic bool `json:"heuristic,omitempty"`
}

package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdictPayload struct {
	Complete bool   `json:"complete"`
	Reason   string `json:"reason"`
}

func TestRepairParse_RoundTrip(t *testing.T) {
	// Fenced, prefixed, and bare forms of the same payload must parse
	// identically.
	payload := `{"complete": true, "reason": "enough content"}`
	variants := []string{
		payload,
		"```json\n" + payload + "\n```",
		"```\n" + payload + "\n```",
		"Here is my assessment:\n\n" + payload,
		"Sure! " + payload + "\n\nLet me know if you need anything else.",
	}

	for _, v := range variants {
		var got verdictPayload
		require.NoError(t, RepairParse(v, &got), "variant: %q", v)
		assert.True(t, got.Complete)
		assert.Equal(t, "enough content", got.Reason)
	}
}

func TestRepairParse_HardFailure(t *testing.T) {
	var got verdictPayload
	err := RepairParse("I could not produce JSON for this one.", &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not parseable after repair")
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("noise before {\"a\":1} noise after"))
	assert.Equal(t, `{"a":{"b":2}}`, CleanJSON(`{"a":{"b":2}}`))
}

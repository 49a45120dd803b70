package anthropic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements Client with scripted batch states.
type mockClient struct {
	states []string
	calls  int
	err    error
}

func (m *mockClient) CreateMessage(_ context.Context, _ MessageRequest) (*MessageResponse, error) {
	return nil, errors.New("not used")
}

func (m *mockClient) CreateBatch(_ context.Context, _ BatchRequest) (*BatchResponse, error) {
	return &BatchResponse{ID: "batch-1", ProcessingStatus: "in_progress"}, nil
}

func (m *mockClient) GetBatch(_ context.Context, batchID string) (*BatchResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	state := m.states[m.calls]
	if m.calls < len(m.states)-1 {
		m.calls++
	}
	return &BatchResponse{ID: batchID, ProcessingStatus: state}, nil
}

func (m *mockClient) GetBatchResults(_ context.Context, _ string) (BatchResultIterator, error) {
	return nil, errors.New("not used")
}

func TestPollBatch_EndsAfterProgress(t *testing.T) {
	client := &mockClient{states: []string{"in_progress", "in_progress", "ended"}}
	batch, err := PollBatch(context.Background(), client, "batch-1",
		WithPollInterval(time.Millisecond),
		WithPollCap(2*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, "ended", batch.ProcessingStatus)
}

func TestPollBatch_Expired(t *testing.T) {
	client := &mockClient{states: []string{"expired"}}
	_, err := PollBatch(context.Background(), client, "batch-1", WithPollInterval(time.Millisecond))
	assert.ErrorContains(t, err, "expired")
}

func TestPollBatch_Canceled(t *testing.T) {
	client := &mockClient{states: []string{"canceled"}}
	_, err := PollBatch(context.Background(), client, "batch-1", WithPollInterval(time.Millisecond))
	assert.ErrorContains(t, err, "canceled")
}

func TestPollBatch_Timeout(t *testing.T) {
	client := &mockClient{states: []string{"in_progress"}}
	_, err := PollBatch(context.Background(), client, "batch-1",
		WithPollInterval(5*time.Millisecond),
		WithPollTimeout(20*time.Millisecond),
	)
	assert.Error(t, err)
}

// sliceIterator replays a fixed result set.
type sliceIterator struct {
	items []BatchResultItem
	pos   int
	err   error
}

func (s *sliceIterator) Next() bool {
	if s.pos >= len(s.items) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceIterator) Item() BatchResultItem { return s.items[s.pos-1] }
func (s *sliceIterator) Err() error            { return s.err }
func (s *sliceIterator) Close() error          { return nil }

func TestCollectBatchResults_SkipsFailures(t *testing.T) {
	iter := &sliceIterator{items: []BatchResultItem{
		{CustomID: "a", Type: "succeeded", Message: &MessageResponse{Text: "one"}},
		{CustomID: "b", Type: "errored"},
		{CustomID: "c", Type: "succeeded", Message: &MessageResponse{Text: "three"}},
	}}

	results, err := CollectBatchResults(iter)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "one", results["a"].Text)
	assert.Equal(t, "three", results["c"].Text)
	assert.NotContains(t, results, "b")
}

func TestCollectBatchResults_IteratorError(t *testing.T) {
	iter := &sliceIterator{err: errors.New("stream broken")}
	_, err := CollectBatchResults(iter)
	assert.ErrorContains(t, err, "collect batch results")
}

func TestTokenUsage_Add(t *testing.T) {
	u := TokenUsage{InputTokens: 10, OutputTokens: 5}
	u.Add(TokenUsage{InputTokens: 3, OutputTokens: 2, CacheReadInputTokens: 7})
	assert.Equal(t, int64(13), u.InputTokens)
	assert.Equal(t, int64(7), u.OutputTokens)
	assert.Equal(t, int64(7), u.CacheReadInputTokens)
}

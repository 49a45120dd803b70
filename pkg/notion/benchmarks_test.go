package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/model"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func benchmarkPage(id, claim string, tier float64, category, set string, active bool) notionapi.Page {
	props := notionapi.Properties{
		propClaim: &notionapi.TitleProperty{
			Title: []notionapi.RichText{{PlainText: claim}},
		},
		propTier:     &notionapi.NumberProperty{Number: tier},
		propCategory: &notionapi.SelectProperty{Select: notionapi.Option{Name: category}},
		propSet:      &notionapi.SelectProperty{Select: notionapi.Option{Name: set}},
		propActive:   &notionapi.CheckboxProperty{Checkbox: active},
		propRationale: &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{PlainText: "curator note"}},
		},
	}
	return notionapi.Page{ID: notionapi.ObjectID(id), Properties: props}
}

func TestFetchBenchmarks(t *testing.T) {
	client := new(MockClient)
	client.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			benchmarkPage("p1", "Audited by a top-tier firm", 1, "Audit", "signal", true),
			benchmarkPage("p2", "Anonymous team", 4, "Team", "signal", false),
		},
		HasMore: false,
	}, nil).Once()

	benchmarks, err := FetchBenchmarks(context.Background(), client, "db-1")
	require.NoError(t, err)
	require.Len(t, benchmarks, 2)

	assert.Equal(t, "p1", benchmarks[0].ID)
	assert.Equal(t, 1, benchmarks[0].Tier)
	assert.Equal(t, model.CategoryAudit, benchmarks[0].Category)
	assert.Equal(t, model.SetSignal, benchmarks[0].Set)
	assert.Equal(t, "curator note", benchmarks[0].Rationale)
	assert.Equal(t, "notion", benchmarks[0].Source)
	assert.True(t, benchmarks[0].Active)
	assert.False(t, benchmarks[1].Active)

	client.AssertExpectations(t)
}

func TestFetchBenchmarks_SkipsMalformed(t *testing.T) {
	missingClaim := notionapi.Page{
		ID: "bad-1",
		Properties: notionapi.Properties{
			propTier: &notionapi.NumberProperty{Number: 2},
		},
	}
	badTier := benchmarkPage("bad-2", "Tier out of range", 9, "team", "signal", true)

	client := new(MockClient)
	client.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			missingClaim,
			badTier,
			benchmarkPage("ok", "Backed by a named VC fund", 2, "funding", "ambition", true),
		},
	}, nil).Once()

	benchmarks, err := FetchBenchmarks(context.Background(), client, "db-1")
	require.NoError(t, err)
	require.Len(t, benchmarks, 1)
	assert.Equal(t, "ok", benchmarks[0].ID)
	assert.Equal(t, model.SetAmbition, benchmarks[0].Set)
}

func TestFetchBenchmarks_UnknownCategoryFallsBackToOther(t *testing.T) {
	client := new(MockClient)
	client.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			benchmarkPage("p1", "Some claim", 3, "Mystery", "evidence", true),
		},
	}, nil).Once()

	benchmarks, err := FetchBenchmarks(context.Background(), client, "db-1")
	require.NoError(t, err)
	require.Len(t, benchmarks, 1)
	assert.Equal(t, model.CategoryOther, benchmarks[0].Category)
	assert.Equal(t, model.SetEvidence, benchmarks[0].Set)
}

func TestQueryAll_Paginates(t *testing.T) {
	client := new(MockClient)
	client.On("QueryDatabase", mock.Anything, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == ""
	})).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{{ID: "p1"}},
		HasMore:    true,
		NextCursor: "cursor-2",
	}, nil).Once()
	client.On("QueryDatabase", mock.Anything, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == "cursor-2"
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{{ID: "p2"}},
		HasMore: false,
	}, nil).Once()

	pages, err := QueryAll(context.Background(), client, "db-1", nil)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, notionapi.ObjectID("p1"), pages[0].ID)
	assert.Equal(t, notionapi.ObjectID("p2"), pages[1].ID)
	client.AssertExpectations(t)
}

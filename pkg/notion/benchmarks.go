package notion

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/model"
)

// Expected property names in the curation database.
const (
	propClaim     = "Claim"
	propTier      = "Tier"
	propCategory  = "Category"
	propSet       = "Set"
	propRationale = "Rationale"
	propActive    = "Active"
)

// FetchBenchmarks pulls every page from the curation database and converts
// the well-formed ones into benchmarks. Malformed pages are logged and
// skipped rather than failing the whole sync.
func FetchBenchmarks(ctx context.Context, c Client, dbID string) ([]model.Benchmark, error) {
	pages, err := QueryAll(ctx, c, dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: fetch benchmarks")
	}

	var benchmarks []model.Benchmark
	for _, page := range pages {
		b, convErr := pageToBenchmark(page)
		if convErr != nil {
			zap.L().Warn("notion: skipping malformed benchmark page",
				zap.String("page_id", string(page.ID)),
				zap.Error(convErr),
			)
			continue
		}
		benchmarks = append(benchmarks, b)
	}

	zap.L().Info("notion: fetched benchmarks",
		zap.Int("pages", len(pages)),
		zap.Int("benchmarks", len(benchmarks)),
	)

	return benchmarks, nil
}

func pageToBenchmark(page notionapi.Page) (model.Benchmark, error) {
	var b model.Benchmark
	b.ID = string(page.ID)
	b.Source = "notion"
	b.CreatedAt = page.CreatedTime
	b.UpdatedAt = page.LastEditedTime
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now().UTC()
	}

	b.Claim = titleOrRichText(page.Properties[propClaim])
	if b.Claim == "" {
		return b, eris.New("missing claim")
	}

	tier, ok := numberProp(page.Properties[propTier])
	if !ok || !model.ValidTier(int(tier)) {
		return b, eris.Errorf("invalid tier for claim %q", b.Claim)
	}
	b.Tier = int(tier)

	b.Category = model.SignalCategory(strings.ToLower(selectProp(page.Properties[propCategory])))
	if !model.ValidCategory(b.Category) {
		b.Category = model.CategoryOther
	}

	switch model.BenchmarkSet(strings.ToLower(selectProp(page.Properties[propSet]))) {
	case model.SetAmbition:
		b.Set = model.SetAmbition
	case model.SetEvidence:
		b.Set = model.SetEvidence
	default:
		b.Set = model.SetSignal
	}

	b.Rationale = titleOrRichText(page.Properties[propRationale])
	b.Active = checkboxProp(page.Properties[propActive])

	return b, nil
}

func titleOrRichText(prop notionapi.Property) string {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return joinRichText(p.Title)
	case *notionapi.RichTextProperty:
		return joinRichText(p.RichText)
	default:
		return ""
	}
}

func joinRichText(rts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rts {
		sb.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(sb.String())
}

func numberProp(prop notionapi.Property) (float64, bool) {
	if p, ok := prop.(*notionapi.NumberProperty); ok {
		return p.Number, true
	}
	return 0, false
}

func selectProp(prop notionapi.Property) string {
	if p, ok := prop.(*notionapi.SelectProperty); ok {
		return p.Select.Name
	}
	return ""
}

func checkboxProp(prop notionapi.Property) bool {
	if p, ok := prop.(*notionapi.CheckboxProperty); ok {
		return p.Checkbox
	}
	return false
}

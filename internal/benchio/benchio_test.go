package benchio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/vetting-cli/internal/model"
)

const seedYAML = `benchmarks:
  - id: b-audit-1
    tier: 1
    category: audit
    set: signal
    claim: audited by three independent top-tier security firms
    rationale: multiple independent audits is the strongest audit signal
  - tier: 3
    category: community
    claim: active discord with daily developer updates
    active: false
`

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	benchmarks, err := LoadYAML(path)
	require.NoError(t, err)
	require.Len(t, benchmarks, 2)

	assert.Equal(t, "b-audit-1", benchmarks[0].ID)
	assert.Equal(t, 1, benchmarks[0].Tier)
	assert.Equal(t, model.CategoryAudit, benchmarks[0].Category)
	assert.Equal(t, model.SetSignal, benchmarks[0].Set)
	assert.True(t, benchmarks[0].Active, "active defaults to true")
	assert.Equal(t, "yaml", benchmarks[0].Source)

	// Missing IDs are generated so upserts stay stable per load.
	assert.NotEmpty(t, benchmarks[1].ID)
	assert.False(t, benchmarks[1].Active)
}

func TestLoadYAML_InvalidTierFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	bad := "benchmarks:\n  - tier: 9\n    category: audit\n    claim: impossible tier\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, err := LoadYAML(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tier")
}

func TestLoadYAML_UnknownCategoryCollapsesToOther(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := "benchmarks:\n  - tier: 2\n    category: vibes\n    claim: something unusual\n"
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	benchmarks, err := LoadYAML(path)
	require.NoError(t, err)
	require.Len(t, benchmarks, 1)
	assert.Equal(t, model.CategoryOther, benchmarks[0].Category)
}

func writeTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("benchmarks")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, h := range []string{"id", "tier", "category", "set", "claim", "rationale", "active"} {
		header.AddCell().SetString(h)
	}
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}

	path := filepath.Join(t.TempDir(), "benchmarks.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeTestXLSX(t, [][]string{
		{"b-1", "2", "partnership", "signal", "integration shipped with a major exchange", "verified on both sites", "true"},
		{"", "4", "other", "ambition", "plans to revolutionize finance", "", ""},
	})

	benchmarks, err := LoadXLSX(path)
	require.NoError(t, err)
	require.Len(t, benchmarks, 2)

	assert.Equal(t, "b-1", benchmarks[0].ID)
	assert.Equal(t, 2, benchmarks[0].Tier)
	assert.Equal(t, model.CategoryPartnership, benchmarks[0].Category)
	assert.Equal(t, "xlsx", benchmarks[0].Source)

	assert.Equal(t, model.SetAmbition, benchmarks[1].Set)
	assert.True(t, benchmarks[1].Active, "blank active column means active")
}

func TestLoadXLSX_SkipsMalformedRows(t *testing.T) {
	path := writeTestXLSX(t, [][]string{
		{"b-1", "0", "audit", "signal", "tier out of range", "", "true"},
		{"b-2", "3", "audit", "signal", "", "", "true"},
		{"b-3", "1", "audit", "signal", "audited by a top firm", "", "true"},
	})

	benchmarks, err := LoadXLSX(path)
	require.NoError(t, err)
	require.Len(t, benchmarks, 1)
	assert.Equal(t, "b-3", benchmarks[0].ID)
}

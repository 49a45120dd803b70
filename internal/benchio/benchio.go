// Package benchio loads curated benchmark sets from seed files. The yaml
// format is the canonical seed; xlsx import exists for curators who maintain
// the set in a spreadsheet.
package benchio

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/vetting-cli/internal/model"
)

// yamlFile is the seed file shape.
type yamlFile struct {
	Benchmarks []yamlBenchmark `yaml:"benchmarks"`
}

type yamlBenchmark struct {
	ID        string `yaml:"id"`
	Tier      int    `yaml:"tier"`
	Category  string `yaml:"category"`
	Set       string `yaml:"set"`
	Claim     string `yaml:"claim"`
	Rationale string `yaml:"rationale"`
	Active    *bool  `yaml:"active"`
}

// LoadYAML reads a benchmark seed file. Entries with an invalid tier or an
// empty claim are rejected; a seed file must be fully well formed.
func LoadYAML(path string) ([]model.Benchmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "benchio: read yaml seed")
	}

	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "benchio: parse yaml seed")
	}

	benchmarks := make([]model.Benchmark, 0, len(f.Benchmarks))
	for i, y := range f.Benchmarks {
		b, err := normalize(y.ID, y.Tier, y.Category, y.Set, y.Claim, y.Rationale, y.Active == nil || *y.Active)
		if err != nil {
			return nil, eris.Wrapf(err, "benchio: seed entry %d", i)
		}
		b.Source = "yaml"
		benchmarks = append(benchmarks, b)
	}

	return benchmarks, nil
}

// Expected xlsx column order. The first row is a header and is skipped.
const (
	colID = iota
	colTier
	colCategory
	colSet
	colClaim
	colRationale
	colActive
	xlsxColumns
)

// LoadXLSX reads benchmarks from the first sheet of an xlsx workbook.
// Malformed rows are logged and skipped so one bad row does not block a
// curator's whole import.
func LoadXLSX(path string) ([]model.Benchmark, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "benchio: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("benchio: xlsx has no sheets")
	}

	var benchmarks []model.Benchmark
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue
		}
		cells := make([]string, xlsxColumns)
		for j, cell := range row.Cells {
			if j >= xlsxColumns {
				break
			}
			cells[j] = strings.TrimSpace(cell.String())
		}

		tier, _ := strconv.Atoi(cells[colTier])
		active := cells[colActive] == "" || strings.EqualFold(cells[colActive], "true") || cells[colActive] == "1"

		b, err := normalize(cells[colID], tier, cells[colCategory], cells[colSet], cells[colClaim], cells[colRationale], active)
		if err != nil {
			zap.L().Warn("benchio: skipping malformed xlsx row",
				zap.Int("row", i+1),
				zap.Error(err),
			)
			continue
		}
		b.Source = "xlsx"
		benchmarks = append(benchmarks, b)
	}

	return benchmarks, nil
}

func normalize(id string, tier int, category, set, claim, rationale string, active bool) (model.Benchmark, error) {
	var b model.Benchmark

	b.Claim = strings.TrimSpace(claim)
	if b.Claim == "" {
		return b, eris.New("missing claim")
	}
	if !model.ValidTier(tier) {
		return b, eris.Errorf("invalid tier %d for claim %q", tier, b.Claim)
	}
	b.Tier = tier

	b.ID = strings.TrimSpace(id)
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	b.Category = model.SignalCategory(strings.ToLower(strings.TrimSpace(category)))
	if !model.ValidCategory(b.Category) {
		b.Category = model.CategoryOther
	}

	switch model.BenchmarkSet(strings.ToLower(strings.TrimSpace(set))) {
	case model.SetAmbition:
		b.Set = model.SetAmbition
	case model.SetEvidence:
		b.Set = model.SetEvidence
	default:
		b.Set = model.SetSignal
	}

	b.Rationale = strings.TrimSpace(rationale)
	b.Active = active
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	return b, nil
}

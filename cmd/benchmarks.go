package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/benchio"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/pkg/notion"
)

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "Manage the curated benchmark set",
}

var benchmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		benchmarks, err := st.ListBenchmarks(ctx)
		if err != nil {
			return eris.Wrap(err, "list benchmarks")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTIER\tCATEGORY\tSET\tACTIVE\tCLAIM")
		for _, b := range benchmarks {
			claim := b.Claim
			if len(claim) > 60 {
				claim = claim[:57] + "..."
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%t\t%s\n", b.ID, b.Tier, b.Category, b.Set, b.Active, claim)
		}
		return w.Flush()
	},
}

var benchmarksLoadPath string

var benchmarksLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load benchmarks from a yaml seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		benchmarks, err := benchio.LoadYAML(benchmarksLoadPath)
		if err != nil {
			return err
		}
		return upsertBenchmarks(cmd, benchmarks, benchmarksLoadPath)
	},
}

var benchmarksImportPath string

var benchmarksImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import benchmarks from an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		benchmarks, err := benchio.LoadXLSX(benchmarksImportPath)
		if err != nil {
			return err
		}
		return upsertBenchmarks(cmd, benchmarks, benchmarksImportPath)
	},
}

var benchmarksSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync benchmarks from the Notion curation database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Notion.Token == "" {
			return eris.New("notion token is required (VETTING_NOTION_TOKEN)")
		}
		if cfg.Notion.BenchmarkDB == "" {
			return eris.New("notion benchmark DB ID is required (VETTING_NOTION_BENCHMARK_DB)")
		}

		notionClient := notion.NewClient(cfg.Notion.Token)
		benchmarks, err := notion.FetchBenchmarks(ctx, notionClient, cfg.Notion.BenchmarkDB)
		if err != nil {
			return err
		}
		return upsertBenchmarks(cmd, benchmarks, "notion")
	},
}

func upsertBenchmarks(cmd *cobra.Command, benchmarks []model.Benchmark, source string) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	n, err := st.UpsertBenchmarks(ctx, benchmarks)
	if err != nil {
		return eris.Wrap(err, "upsert benchmarks")
	}

	zap.L().Info("benchmarks upserted",
		zap.Int("count", n),
		zap.String("source", source),
	)
	return nil
}

func init() {
	benchmarksLoadCmd.Flags().StringVar(&benchmarksLoadPath, "file", "", "path to yaml seed file (required)")
	_ = benchmarksLoadCmd.MarkFlagRequired("file")

	benchmarksImportCmd.Flags().StringVar(&benchmarksImportPath, "file", "", "path to xlsx workbook (required)")
	_ = benchmarksImportCmd.MarkFlagRequired("file")

	benchmarksCmd.AddCommand(benchmarksListCmd, benchmarksLoadCmd, benchmarksImportCmd, benchmarksSyncCmd)
	rootCmd.AddCommand(benchmarksCmd)
}

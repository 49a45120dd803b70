package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/pipeline"
)

var (
	analyzeSymbol   string
	analyzeURL      string
	analyzeTarget   string
	analyzeDocument bool
	analyzeForce    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis for a single project",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := pipeline.Request{
			Symbol:             analyzeSymbol,
			SourceURL:          analyzeURL,
			VerificationTarget: analyzeTarget,
			Document:           analyzeDocument,
			ForceReanalysis:    analyzeForce,
		}

		p, err := env.Orch.RunExtraction(ctx, req)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		// Classification runs in the background; drain it so the CLI can
		// print the complete result.
		env.Orch.Wait()

		p, err = env.Store.GetProject(ctx, p.ID)
		if err != nil {
			return err
		}

		zap.L().Info("analysis complete",
			zap.String("project_id", p.ID),
			zap.String("symbol", p.Symbol),
			zap.String("extraction_status", string(p.ExtractionStatus)),
			zap.String("classification_status", string(p.ClassificationStatus)),
		)

		out := map[string]any{"project": p}
		if tc, tcErr := env.Store.GetComparison(ctx, p.ID); tcErr == nil && tc != nil {
			out["comparison"] = tc
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSymbol, "symbol", "", "project token symbol (required)")
	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "website or whitepaper URL (required)")
	analyzeCmd.Flags().StringVar(&analyzeTarget, "target", "", "contract address to verify on the page")
	analyzeCmd.Flags().BoolVar(&analyzeDocument, "document", false, "treat the URL as a whitepaper and use the two-stage evaluation")
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "discard prior results and reanalyze")
	_ = analyzeCmd.MarkFlagRequired("symbol")
	_ = analyzeCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(analyzeCmd)
}

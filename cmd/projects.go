package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/store"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Inspect analyzed projects",
}

var (
	projectsExtraction     string
	projectsClassification string
	projectsSymbol         string
	projectsTier           int
	projectsLimit          int
)

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		projects, err := st.ListProjects(ctx, store.ProjectFilter{
			ExtractionStatus:     model.PhaseStatus(projectsExtraction),
			ClassificationStatus: model.PhaseStatus(projectsClassification),
			Symbol:               projectsSymbol,
			Tier:                 projectsTier,
			Limit:                projectsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list projects")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSYMBOL\tEXTRACTION\tCLASSIFICATION\tTIER\tSCORE\tURL")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.1f\t%s\n",
				p.ID, p.Symbol, p.ExtractionStatus, p.ClassificationStatus,
				p.FinalTier, p.FinalScore, p.WebsiteURL)
		}
		return w.Flush()
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project with its signals, red flags and tier comparison",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := st.GetProject(ctx, id)
		if err != nil {
			return err
		}

		out := map[string]any{"project": p}
		if signals, sErr := st.GetSignals(ctx, id); sErr == nil && len(signals) > 0 {
			out["signals"] = signals
		}
		if flags, fErr := st.GetRedFlags(ctx, id); fErr == nil && len(flags) > 0 {
			out["red_flags"] = flags
		}
		if tc, tcErr := st.GetComparison(ctx, id); tcErr == nil && tc != nil {
			out["comparison"] = tc
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	projectsListCmd.Flags().StringVar(&projectsExtraction, "extraction-status", "", "filter by extraction status")
	projectsListCmd.Flags().StringVar(&projectsClassification, "classification-status", "", "filter by classification status")
	projectsListCmd.Flags().StringVar(&projectsSymbol, "symbol", "", "filter by token symbol")
	projectsListCmd.Flags().IntVar(&projectsTier, "tier", 0, "filter by final tier (1-4)")
	projectsListCmd.Flags().IntVar(&projectsLimit, "limit", 50, "maximum rows")

	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd)
	rootCmd.AddCommand(projectsCmd)
}

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/career-mapper/internal/model"
)

var statisticsOutput string

var statisticsCmd = &cobra.Command{
	Use:   "statistics",
	Short: "List the selectable statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := cfg.Statistics
		return writeOutput(os.Stdout, statisticsOutput, stats, func(w io.Writer) {
			formatStatistics(w, stats)
		})
	},
}

// formatStatistics writes a tabular list of statistics to out. The first
// entry is the one loaded at startup.
func formatStatistics(out io.Writer, stats []model.Statistic) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLABEL\tURL")
	_, _ = fmt.Fprintln(w, "--\t-----\t---")
	for _, s := range stats {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Label, s.URL)
	}
	_ = w.Flush()
}

func init() {
	statisticsCmd.Flags().StringVarP(&statisticsOutput, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(statisticsCmd)
}

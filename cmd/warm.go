package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/career-mapper/internal/dataset"
)

var (
	warmConcurrency int
	warmOutput      string
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Prefetch every statistic into the dataset cache",
	Long:  "Fetches and validates every configured statistic so later selections are served from the cache. Most useful with the redis cache driver.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := dataset.Warm(cmd.Context(), env.Client, env.Catalog.All(), warmConcurrency)
		if err != nil {
			return err
		}

		var failed int
		for _, r := range results {
			if r.Error != "" {
				failed++
			}
		}
		zap.L().Info("cache warmed",
			zap.Int("statistics", len(results)),
			zap.Int("failed", failed),
			zap.String("driver", env.Client.CacheStats().Driver),
		)

		if err := writeOutput(os.Stdout, warmOutput, results, func(w io.Writer) {
			formatWarmResults(w, results)
		}); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d statistics failed to load", failed, len(results))
		}
		return nil
	},
}

// formatWarmResults writes one line per prefetched statistic to out.
func formatWarmResults(out io.Writer, results []dataset.WarmResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATISTIC\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "---------\t----\t-----")
	for _, r := range results {
		errMsg := r.Error
		if errMsg == "" {
			errMsg = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", r.Statistic, r.Rows, truncate(errMsg, 60))
	}
	_ = w.Flush()
}

// truncate shortens s to at most n runes, appending "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func init() {
	warmCmd.Flags().IntVar(&warmConcurrency, "concurrency", 4, "parallel fetches")
	warmCmd.Flags().StringVarP(&warmOutput, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(warmCmd)
}

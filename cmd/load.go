package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/career-mapper/internal/choropleth"
)

var loadOutput string

var loadCmd = &cobra.Command{
	Use:   "load <statistic>",
	Short: "Load one statistic and print each state's value and color",
	Example: `  career-mapper load DP05_0017E
  career-mapper load DP03_0088E --output yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		stat, err := env.Catalog.Lookup(args[0])
		if err != nil {
			return err
		}

		session, err := env.newSession(ctx, cfg)
		if err != nil {
			return err
		}
		if _, err := session.Load(ctx, stat); err != nil {
			return fmt.Errorf("%s: %w", session.Snapshot().Message, err)
		}

		report := buildLoadReport(session)
		return writeOutput(os.Stdout, loadOutput, report, func(w io.Writer) {
			formatLoadReport(w, report)
		})
	},
}

type regionRow struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Value      *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	ValueLabel string   `json:"value_label,omitempty" yaml:"value_label,omitempty"`
	Percent    float64  `json:"percent" yaml:"percent"`
	Fill       string   `json:"fill" yaml:"fill"`
	Visible    bool     `json:"visible" yaml:"visible"`
}

type loadReport struct {
	State   choropleth.State `json:"state" yaml:"state"`
	Regions []regionRow      `json:"regions" yaml:"regions"`
}

func buildLoadReport(s *choropleth.Session) loadReport {
	rng := s.Range()
	styles := s.Styles()
	report := loadReport{State: s.Snapshot()}
	for _, r := range s.Regions() {
		row := regionRow{
			ID:      r.ID,
			Name:    r.Name,
			Fill:    styles[r.ID].FillHex,
			Visible: styles[r.ID].Visible,
		}
		if r.Displayable() {
			v := r.Value
			row.Value = &v
			row.ValueLabel = s.FormatValue(v)
			row.Percent = rng.Percent(v)
		}
		report.Regions = append(report.Regions, row)
	}
	return report
}

// formatLoadReport writes the legend and a region table to out.
func formatLoadReport(out io.Writer, report loadReport) {
	stat := "-"
	if report.State.Statistic != nil {
		stat = report.State.Statistic.Label
	}
	legend := report.State.Legend
	_, _ = fmt.Fprintf(out, "%s\n", stat)
	if !legend.Empty {
		_, _ = fmt.Fprintf(out, "range: %s .. %s\n", legend.MinLabel, legend.MaxLabel)
	}
	if last := report.State.LastLoad; last != nil && last.Skipped > 0 {
		_, _ = fmt.Fprintf(out, "skipped rows: %d\n", last.Skipped)
	}
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tVALUE\tPOSITION\tFILL")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t--------\t----")
	for _, r := range report.Regions {
		value, pos, fill := "-", "-", "-"
		if r.Visible {
			value = r.ValueLabel
			pos = fmt.Sprintf("%.0f%%", r.Percent)
			fill = r.Fill
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, value, pos, fill)
	}
	_ = w.Flush()
}

func init() {
	loadCmd.Flags().StringVarP(&loadOutput, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(loadCmd)
}

package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display conversion and solver metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include conversion and failure counts, solver outcomes, the number
of lowered signatures, total solver time, and a per-problem breakdown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Problems converted:", metrics.ProblemsConverted)
		fmt.Fprintf(out, "  %-24s %d (%.0f%%)\n", "Conversion failures:", metrics.ConversionFailures, metrics.FailureRate()*100)
		fmt.Fprintf(out, "  %-24s %d\n", "Signatures lowered:", metrics.Signatures)
		fmt.Fprintf(out, "  %-24s %d solved, %d unsolved, %d failed\n", "Solver runs:",
			metrics.ProblemsSolved, metrics.ProblemsUnsolved, metrics.SolveFailures)
		fmt.Fprintf(out, "  %-24s %s\n", "Solver time:", metrics.SolveTime.Round(time.Millisecond))

		if len(metrics.ByProblem) > 0 {
			fmt.Fprintln(out, "\n  By problem:")
			names := make([]string, 0, len(metrics.ByProblem))
			for name := range metrics.ByProblem {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				pm := metrics.ByProblem[name]
				fmt.Fprintf(out, "    %-20s converted %d, failed %d, solved %d, unsolved %d\n",
					name+":", pm.Conversions, pm.Failures, pm.Solved, pm.Unsolved)
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Fprintf(out, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}

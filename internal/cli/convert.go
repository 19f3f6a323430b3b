package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/temporal-htn/internal/core"
)

var (
	convertJSON     bool
	convertWatch    bool
	convertDebounce time.Duration
)

var convertCmd = &cobra.Command{
	Use:   "convert <problem.yaml>...",
	Short: "Lower problem files to chronicles",
	Long: `Lower one or more temporal HTN problem files to chronicles.

Files are converted concurrently. Each chronicle is written as YAML to
<output>/<problem>.chronicle.yaml, where <output> is output.dir from the
configuration. A summary table is printed once every file is done; the
command fails if any file could not be converted.

Arguments may be glob patterns (problems/**/*.yaml) or directories, which
stand for every YAML file below them. With --watch the files are lowered
again whenever they change, until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("conversion pipeline not initialized")
		}
		paths, err := core.ResolveSources(args)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		out := cmd.OutOrStdout()
		convErr := convertAndReport(ctx, out, paths)
		if !convertWatch {
			return convErr
		}
		if convErr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), convErr)
		}

		w, err := core.NewSourceWatcher(paths, convertDebounce)
		if err != nil {
			return err
		}
		defer w.Close()

		fmt.Fprintf(out, "Watching %d file(s) for changes. Press Ctrl+C to stop.\n", len(paths))
		return w.Run(ctx, func(ctx context.Context, changed []string) {
			if err := convertAndReport(ctx, out, changed); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
		})
	},
}

// convertAndReport converts paths and prints the results. It fails when
// any file failed.
func convertAndReport(ctx context.Context, out io.Writer, paths []string) error {
	results, convErr := Pipeline.ConvertAll(ctx, paths)

	if convertJSON {
		data, err := json.MarshalIndent(jsonResults(results), "", "  ")
		if err != nil {
			return fmt.Errorf("formatting results as JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		renderSummary(out, results)
	}

	failed := 0
	for _, r := range results {
		if r == nil || r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d problem(s) failed", failed, len(paths))
	}
	return convErr
}

type convertResultJSON struct {
	*core.ConversionResult
	Error string `json:"error,omitempty"`
}

func jsonResults(results []*core.ConversionResult) []convertResultJSON {
	out := make([]convertResultJSON, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		j := convertResultJSON{ConversionResult: r}
		if r.Err != nil {
			j.Error = r.Err.Error()
		}
		out = append(out, j)
	}
	return out
}

// renderSummary prints one row per result in input order.
func renderSummary(w io.Writer, results []*core.ConversionResult) {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-24s %7s %7s %10s  %s", "", "PROBLEM", "ACTIONS", "METHODS", "SIGNATURES", "CHRONICLE")))
	b.WriteString("\n")

	ok := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("%s %-24s %s\n", failedStyle.Render("FAIL"), r.Problem, r.Err))
			continue
		}
		ok++
		b.WriteString(fmt.Sprintf("%s %-24s %7d %7d %10d  %s\n",
			okStyle.Render(" OK "), r.Problem, r.Stats.Actions, r.Stats.Methods, r.Signatures, r.ChronicleFile))
	}

	status := okStyle
	if ok < len(results) {
		status = warnStyle
	}
	b.WriteString(status.Render(fmt.Sprintf("%d/%d converted", ok, len(results))))

	fmt.Fprintln(w, b.String())
}

func init() {
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "Output results as JSON")
	convertCmd.Flags().BoolVarP(&convertWatch, "watch", "w", false, "Convert again whenever a file changes")
	convertCmd.Flags().DurationVar(&convertDebounce, "debounce", core.DefaultDebounce, "How long to collect changes before converting in watch mode")
	rootCmd.AddCommand(convertCmd)
}

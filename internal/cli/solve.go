package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/temporal-htn/internal/chronicle"
)

var solvePlanFile string

var solveCmd = &cobra.Command{
	Use:   "solve <problem.yaml>",
	Short: "Lower a problem and run the chronicle solver on it",
	Long: `Lower a temporal HTN problem file and hand the chronicle to the solver
configured under solver.command.

The plan is written to --plan, or to <output>/<problem>.plan by default.
The command fails when the solver finds no plan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("conversion pipeline not initialized")
		}

		r, err := Pipeline.Solve(commandContext(cmd), args[0], solvePlanFile)
		out := cmd.OutOrStdout()
		switch {
		case err == nil:
			fmt.Fprintf(out, "%s %s: plan written to %s (%s)\n",
				okStyle.Render("SOLVED"), r.Problem, r.PlanFile, r.Duration.Round(time.Millisecond))
			return nil
		case errors.Is(err, chronicle.ErrNoSolution):
			fmt.Fprintf(out, "%s %s: no plan found\n", warnStyle.Render("UNSOLVED"), r.Problem)
			return err
		default:
			return fmt.Errorf("solving %s: %w", args[0], err)
		}
	},
}

func init() {
	solveCmd.Flags().StringVarP(&solvePlanFile, "plan", "p", "", "Plan output file (default <output>/<problem>.plan)")
	rootCmd.AddCommand(solveCmd)
}

package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/temporal-htn/internal/chronicle"
)

func withPlanFile(t *testing.T, plan string) {
	t.Helper()
	orig := solvePlanFile
	t.Cleanup(func() { solvePlanFile = orig })
	solvePlanFile = plan
}

func TestSolveCmd_Solved(t *testing.T) {
	withPipeline(t, chronicle.SolverFunc(func(_ context.Context, _ *chronicle.Chronicle, out string, _ bool) (bool, error) {
		return true, os.WriteFile(out, []byte("0: move\n"), 0o644)
	}))
	plan := filepath.Join(t.TempDir(), "move.plan")
	withPlanFile(t, plan)
	out := captureOutput(t, solveCmd)

	if err := solveCmd.RunE(solveCmd, []string{moveFile}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "SOLVED") || !strings.Contains(out.String(), plan) {
		t.Errorf("unexpected output %q", out.String())
	}
	if _, err := os.Stat(plan); err != nil {
		t.Errorf("plan not written: %v", err)
	}
}

func TestSolveCmd_Unsolved(t *testing.T) {
	withPipeline(t, chronicle.SolverFunc(func(context.Context, *chronicle.Chronicle, string, bool) (bool, error) {
		return false, nil
	}))
	withPlanFile(t, "")
	out := captureOutput(t, solveCmd)

	err := solveCmd.RunE(solveCmd, []string{moveFile})
	if !errors.Is(err, chronicle.ErrNoSolution) {
		t.Fatalf("expected ErrNoSolution, got %v", err)
	}
	if !strings.Contains(out.String(), "UNSOLVED") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestSolveCmd_MissingFile(t *testing.T) {
	withPipeline(t, nil)
	withPlanFile(t, "")

	err := solveCmd.RunE(solveCmd, []string{filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil || !strings.Contains(err.Error(), "solving") {
		t.Fatalf("expected a solving error, got %v", err)
	}
}

// Package solver runs an out-of-process chronicle solver.
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/valter-silva-au/temporal-htn/internal/chronicle"
)

// Exit codes understood by ExecSolver. Any other exit code is a failure of
// the solver itself.
const (
	ExitSolved     = 0
	ExitNoSolution = 1
)

// ErrNoCommand is returned when no solver command is configured.
var ErrNoCommand = errors.New("no solver command configured")

// ExecConfig holds the parameters of an external solver invocation.
type ExecConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Stdout  io.Writer     `yaml:"-"`
	Stderr  io.Writer     `yaml:"-"`
}

// ExecResult captures the outcome of the last solver run.
type ExecResult struct {
	ExitCode      int
	Stdout        string
	Stderr        string
	ChronicleFile string
	Duration      time.Duration
}

// ExecSolver implements chronicle.Solver by writing the chronicle as YAML
// next to the plan and running
//
//	<command> <args...> <plan>.chronicle.yaml <plan>
type ExecSolver struct {
	cfg  ExecConfig
	last *ExecResult
}

func NewExecSolver(cfg ExecConfig) *ExecSolver {
	return &ExecSolver{cfg: cfg}
}

// LastResult returns the result of the most recent run, or nil.
func (s *ExecSolver) LastResult() *ExecResult { return s.last }

// ChronicleFile returns the path the chronicle is written to for plan.
func ChronicleFile(plan string) string {
	return strings.TrimSuffix(plan, ".plan") + ".chronicle.yaml"
}

// Solve writes doc, runs the solver and maps its exit code. Verbose runs
// tee the solver output to the configured writers.
func (s *ExecSolver) Solve(ctx context.Context, doc *chronicle.Chronicle, outputPath string, verbose bool) (bool, error) {
	if s.cfg.Command == "" {
		return false, ErrNoCommand
	}

	chronicleFile := ChronicleFile(outputPath)
	if err := writeChronicle(chronicleFile, doc); err != nil {
		return false, err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(s.cfg.Args)+2)
	args = append(args, s.cfg.Args...)
	args = append(args, chronicleFile, outputPath)
	cmd := exec.CommandContext(ctx, s.cfg.Command, args...)
	// Children that outlive a killed solver must not hold the pipes open.
	cmd.WaitDelay = time.Second

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	if verbose {
		if s.cfg.Stdout != nil {
			cmd.Stdout = io.MultiWriter(&stdoutBuf, s.cfg.Stdout)
		}
		if s.cfg.Stderr != nil {
			cmd.Stderr = io.MultiWriter(&stderrBuf, s.cfg.Stderr)
		}
	}

	start := time.Now()
	err := cmd.Run()
	result := &ExecResult{
		Stdout:        stdoutBuf.String(),
		Stderr:        stderrBuf.String(),
		ChronicleFile: chronicleFile,
		Duration:      time.Since(start),
	}
	s.last = result

	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, fmt.Errorf("running %s: %w", s.cfg.Command, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return false, fmt.Errorf("running %s: %w", s.cfg.Command, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	switch result.ExitCode {
	case ExitSolved:
		return true, nil
	case ExitNoSolution:
		return false, nil
	default:
		return false, fmt.Errorf("solver %s exited with code %d: %s",
			s.cfg.Command, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
}

func writeChronicle(path string, doc *chronicle.Chronicle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chronicle file %s: %w", path, err)
	}
	defer f.Close()
	if err := doc.WriteYAML(f); err != nil {
		return fmt.Errorf("writing chronicle file %s: %w", path, err)
	}
	return nil
}

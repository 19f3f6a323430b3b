package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valter-silva-au/temporal-htn/internal/chronicle"
	"github.com/valter-silva-au/temporal-htn/internal/observability"
	"github.com/valter-silva-au/temporal-htn/internal/problemfile"
	"github.com/valter-silva-au/temporal-htn/internal/solver"
	"github.com/valter-silva-au/temporal-htn/pkg/htn"
)

// ConversionResult describes one lowered problem.
type ConversionResult struct {
	Source        string               `json:"source,omitempty"`
	Problem       string               `json:"problem"`
	Stats         chronicle.Stats      `json:"stats"`
	Signatures    int                  `json:"signatures"`
	ChronicleFile string               `json:"chronicle_file,omitempty"`
	PlanFile      string               `json:"plan_file,omitempty"`
	Solved        bool                 `json:"solved"`
	Duration      time.Duration        `json:"duration_ns"`
	Chronicle     *chronicle.Chronicle `json:"-"`
	Err           error                `json:"-"`
}

// PipelineOptions configures a ConversionService.
type PipelineOptions struct {
	OutputDir string
	Workers   int
	Verbose   bool
}

// ConversionService loads problem files, lowers them to chronicles and
// optionally hands them to a solver.
type ConversionService interface {
	// Lower builds and converts a problem document without touching disk.
	Lower(ctx context.Context, data []byte) (*ConversionResult, error)
	// Convert lowers the problem file at path and writes its chronicle to
	// the output directory.
	Convert(ctx context.Context, path string) (*ConversionResult, error)
	// ConvertAll converts every path concurrently. Per-file failures are
	// reported in the results; the returned error joins them.
	ConvertAll(ctx context.Context, paths []string) ([]*ConversionResult, error)
	// Solve lowers the problem file at path and runs the solver. An empty
	// planFile means <output>/<problem>.plan.
	Solve(ctx context.Context, path, planFile string) (*ConversionResult, error)
}

type conversionService struct {
	opts        PipelineOptions
	solver      chronicle.Solver
	eventLogger EventLogger
}

// NewConversionService creates a ConversionService. solver and eventLogger
// may be nil.
func NewConversionService(opts PipelineOptions, s chronicle.Solver, eventLogger EventLogger) ConversionService {
	if opts.OutputDir == "" {
		opts.OutputDir = chronicle.DefaultOutputDir
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &conversionService{opts: opts, solver: s, eventLogger: eventLogger}
}

type lowered struct {
	result    *ConversionResult
	converter *chronicle.Converter
}

func (c *conversionService) lower(ctx context.Context, f *problemfile.File) (*lowered, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	problem, err := f.Build(htn.NewSession())
	if err != nil {
		return nil, err
	}
	rec := chronicle.NewRecorder(problem.Name, c.solver)
	conv, err := chronicle.FromHTN(problem, rec, chronicle.WithOutputDir(c.opts.OutputDir))
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", problem.Name, err)
	}

	doc := rec.Chronicle()
	return &lowered{
		result: &ConversionResult{
			Problem:    problem.Name,
			Stats:      conv.Stats(),
			Signatures: doc.SignatureCount(),
			PlanFile:   conv.PlanFile(),
			Duration:   time.Since(start),
			Chronicle:  doc,
		},
		converter: conv,
	}, nil
}

func (c *conversionService) Lower(ctx context.Context, data []byte) (*ConversionResult, error) {
	f, err := problemfile.Parse(data)
	if err != nil {
		c.failed("", err)
		return nil, err
	}
	l, err := c.lower(ctx, f)
	if err != nil {
		c.failed(f.Name, err)
		return nil, err
	}
	c.converted(l.result)
	return l.result, nil
}

func (c *conversionService) load(ctx context.Context, path string) (*lowered, error) {
	f, err := problemfile.Load(path)
	if err != nil {
		c.failed(sourceName(path), err)
		return nil, err
	}
	l, err := c.lower(ctx, f)
	if err != nil {
		name := f.Name
		if name == "" {
			name = sourceName(path)
		}
		c.failed(name, err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.result.Source = path
	return l, nil
}

func (c *conversionService) Convert(ctx context.Context, path string) (*ConversionResult, error) {
	l, err := c.load(ctx, path)
	if err != nil {
		return nil, err
	}
	r := l.result
	r.ChronicleFile = solver.ChronicleFile(r.PlanFile)
	if err := writeChronicle(r.ChronicleFile, r.Chronicle); err != nil {
		c.failed(r.Problem, err)
		return nil, err
	}
	c.converted(r)
	return r, nil
}

func (c *conversionService) ConvertAll(ctx context.Context, paths []string) ([]*ConversionResult, error) {
	results := make([]*ConversionResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			r, err := c.Convert(gctx, path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				r = &ConversionResult{Source: path, Problem: sourceName(path), Err: err}
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r != nil && r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

func (c *conversionService) Solve(ctx context.Context, path, planFile string) (*ConversionResult, error) {
	l, err := c.load(ctx, path)
	if err != nil {
		return nil, err
	}
	r := l.result
	c.converted(r)

	start := time.Now()
	err = l.converter.Solve(ctx, planFile, c.opts.Verbose)
	elapsed := time.Since(start)
	r.PlanFile = l.converter.PlanFile()
	r.Duration += elapsed

	data := map[string]any{
		observability.DataProblem:    r.Problem,
		observability.DataDurationMS: elapsed.Milliseconds(),
		"plan_file":                  r.PlanFile,
	}
	switch {
	case err == nil:
		r.Solved = true
		c.log(observability.EventProblemSolved, data)
		return r, nil
	case errors.Is(err, chronicle.ErrNoSolution):
		c.log(observability.EventProblemUnsolved, data)
		return r, err
	default:
		data[observability.DataError] = err.Error()
		c.log(observability.EventProblemSolveFailed, data)
		return r, err
	}
}

func (c *conversionService) converted(r *ConversionResult) {
	c.log(observability.EventProblemConverted, map[string]any{
		observability.DataProblem:    r.Problem,
		observability.DataSignatures: r.Signatures,
		"actions":                    r.Stats.Actions,
		"methods":                    r.Stats.Methods,
	})
}

func (c *conversionService) failed(problem string, err error) {
	c.log(observability.EventProblemConversionFailed, map[string]any{
		observability.DataProblem: problem,
		observability.DataError:   err.Error(),
	})
}

func (c *conversionService) log(eventType string, data map[string]any) {
	if c.eventLogger != nil {
		_ = c.eventLogger.LogEvent(eventType, data)
	}
}

func writeChronicle(path string, doc *chronicle.Chronicle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // path derives from configured output dir
	if err != nil {
		return fmt.Errorf("creating chronicle file: %w", err)
	}
	if err := doc.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// sourceName names a problem by its file when the file itself could not
// be read.
func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

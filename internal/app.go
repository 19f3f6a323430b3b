// Package internal provides the App struct that wires all components of
// htnc together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"time"

	"github.com/valter-silva-au/temporal-htn/internal/chronicle"
	"github.com/valter-silva-au/temporal-htn/internal/cli"
	"github.com/valter-silva-au/temporal-htn/internal/core"
	"github.com/valter-silva-au/temporal-htn/internal/observability"
	"github.com/valter-silva-au/temporal-htn/internal/solver"
	"github.com/valter-silva-au/temporal-htn/pkg/models"
)

// App holds all service dependencies of htnc.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Conversion
	Solver   chronicle.Solver
	Pipeline core.ConversionService

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
}

// NewApp loads the configuration under basePath, overlays the .htnrc of
// projectDir, and wires every service. An empty projectDir skips the
// project overlay.
func NewApp(basePath, projectDir string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.GetMergedConfig(projectDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	if cfg.Observability.Enabled {
		app.EventLog, err = observability.NewJSONLEventLog(cfg.Observability.EventLog)
		if err != nil {
			// Non-fatal: disable observability if log can't be created.
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, alertThresholds(cfg.Observability.Alerts))
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Solver ---
	if cfg.Solver.Command != "" {
		app.Solver = solver.NewExecSolver(solver.ExecConfig{
			Command: cfg.Solver.Command,
			Args:    cfg.Solver.Args,
			Timeout: cfg.Solver.Timeout,
			Stdout:  os.Stdout,
			Stderr:  os.Stderr,
		})
	}

	// --- Conversion pipeline ---
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.Pipeline = core.NewConversionService(core.PipelineOptions{
		OutputDir: cfg.Output.Dir,
		Workers:   cfg.Output.Workers,
		Verbose:   cfg.Solver.Verbose,
	}, app.Solver, evtAdapter)

	// --- Wire CLI package-level variables ---
	cli.Pipeline = app.Pipeline
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

func alertThresholds(cfg models.AlertsConfig) observability.AlertThresholds {
	return observability.AlertThresholds{
		MaxFailureRate:    cfg.MaxFailureRate,
		MinSamples:        cfg.MinSamples,
		MaxUnsolvedStreak: cfg.MaxUnsolvedStreak,
		SlowSolveSeconds:  cfg.SlowSolveSeconds,
	}
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelFor(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

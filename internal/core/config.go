// Package core contains the services behind htnc: configuration loading
// and the conversion pipeline that turns problem files into chronicles.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/temporal-htn/pkg/models"
)

// HomeEnv names the environment variable holding the base directory.
const HomeEnv = "HTN_HOME"

// ConfigurationManager defines the interface for loading, merging, and
// validating configuration from the global (.htnconfig) and per-project
// (.htnrc) files.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
	GetMergedConfig(projectDir string) (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .htnconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// ResolveBasePath returns $HTN_HOME, or the working directory when unset.
func ResolveBasePath() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Abs(home)
	}
	return os.Getwd()
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *models.Config {
	return &models.Config{
		Output: models.OutputConfig{Dir: "output", Workers: 4},
		Solver: models.SolverConfig{Timeout: 5 * time.Minute},
		Observability: models.ObservabilityConfig{
			Enabled:  true,
			EventLog: filepath.Join(".htn", "events.jsonl"),
			Alerts: models.AlertsConfig{
				MaxFailureRate:    0.25,
				MinSamples:        4,
				MaxUnsolvedStreak: 3,
				SlowSolveSeconds:  120,
			},
		},
	}
}

// newViper prepares a Viper instance for the named config file. Every key
// can be overridden by an HTN_ environment variable, e.g.
// HTN_SOLVER_COMMAND.
func newViper(name, dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("HTN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads .htnconfig.yaml from the base path. If the file does
// not exist, defaults (plus environment overrides) are returned.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := DefaultConfig()

	v := newViper(".htnconfig", cm.basePath)
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.workers", cfg.Output.Workers)
	v.SetDefault("solver.command", cfg.Solver.Command)
	v.SetDefault("solver.args", cfg.Solver.Args)
	v.SetDefault("solver.timeout", cfg.Solver.Timeout)
	v.SetDefault("solver.verbose", cfg.Solver.Verbose)
	v.SetDefault("observability.enabled", cfg.Observability.Enabled)
	v.SetDefault("observability.event_log", cfg.Observability.EventLog)
	v.SetDefault("observability.alerts.max_failure_rate", cfg.Observability.Alerts.MaxFailureRate)
	v.SetDefault("observability.alerts.min_samples", cfg.Observability.Alerts.MinSamples)
	v.SetDefault("observability.alerts.max_unsolved_streak", cfg.Observability.Alerts.MaxUnsolvedStreak)
	v.SetDefault("observability.alerts.slow_solve_seconds", cfg.Observability.Alerts.SlowSolveSeconds)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading .htnconfig: %w", err)
		}
	}

	cfg.Output.Dir = v.GetString("output.dir")
	cfg.Output.Workers = v.GetInt("output.workers")
	cfg.Solver.Command = v.GetString("solver.command")
	cfg.Solver.Args = v.GetStringSlice("solver.args")
	cfg.Solver.Timeout = v.GetDuration("solver.timeout")
	cfg.Solver.Verbose = v.GetBool("solver.verbose")
	cfg.Observability.Enabled = v.GetBool("observability.enabled")
	cfg.Observability.EventLog = v.GetString("observability.event_log")
	cfg.Observability.Alerts = models.AlertsConfig{
		MaxFailureRate:    v.GetFloat64("observability.alerts.max_failure_rate"),
		MinSamples:        v.GetInt("observability.alerts.min_samples"),
		MaxUnsolvedStreak: v.GetInt("observability.alerts.max_unsolved_streak"),
		SlowSolveSeconds:  v.GetInt("observability.alerts.slow_solve_seconds"),
	}

	if cfg.Observability.EventLog != "" && !filepath.IsAbs(cfg.Observability.EventLog) {
		cfg.Observability.EventLog = filepath.Join(cm.basePath, cfg.Observability.EventLog)
	}
	return cfg, nil
}

// GetMergedConfig loads the global config and overlays the solver and
// output settings of projectDir/.htnrc.yaml. Precedence: .htnrc >
// .htnconfig > defaults.
func (cm *viperConfigManager) GetMergedConfig(projectDir string) (*models.Config, error) {
	cfg, err := cm.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading global config for merge: %w", err)
	}
	if projectDir == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigName(".htnrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(projectDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .htnrc in %s: %w", projectDir, err)
	}

	if v.IsSet("output.dir") {
		cfg.Output.Dir = v.GetString("output.dir")
	}
	if v.IsSet("output.workers") {
		cfg.Output.Workers = v.GetInt("output.workers")
	}
	if v.IsSet("solver.command") {
		cfg.Solver.Command = v.GetString("solver.command")
	}
	if v.IsSet("solver.args") {
		cfg.Solver.Args = v.GetStringSlice("solver.args")
	}
	if v.IsSet("solver.timeout") {
		cfg.Solver.Timeout = v.GetDuration("solver.timeout")
	}
	if v.IsSet("solver.verbose") {
		cfg.Solver.Verbose = v.GetBool("solver.verbose")
	}
	return cfg, nil
}

// ValidateConfig checks cfg for invalid values and reports all of them in
// one error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		errs = append(errs, "output.dir must not be empty")
	}

	if cfg.Output.Workers < 0 {
		errs = append(errs, fmt.Sprintf("output.workers must be non-negative, got %d", cfg.Output.Workers))
	}

	if cfg.Solver.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("solver.timeout must be non-negative, got %s", cfg.Solver.Timeout))
	}

	if cfg.Solver.Command == "" && len(cfg.Solver.Args) > 0 {
		errs = append(errs, "solver.args is set but solver.command is empty")
	}

	if cfg.Observability.Enabled && cfg.Observability.EventLog == "" {
		errs = append(errs, "observability.event_log must be set when observability is enabled")
	}

	alerts := cfg.Observability.Alerts
	if alerts.MaxFailureRate < 0 || alerts.MaxFailureRate > 1 {
		errs = append(errs, fmt.Sprintf("observability.alerts.max_failure_rate must be within [0, 1], got %v", alerts.MaxFailureRate))
	}
	if alerts.MinSamples < 0 || alerts.MaxUnsolvedStreak < 0 || alerts.SlowSolveSeconds < 0 {
		errs = append(errs, "observability.alerts thresholds must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

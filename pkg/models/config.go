// Package models holds the plain data types shared across htnc packages.
package models

import "time"

// Config holds the settings read from .htnconfig.yaml.
type Config struct {
	Output        OutputConfig        `yaml:"output" mapstructure:"output"`
	Solver        SolverConfig        `yaml:"solver" mapstructure:"solver"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// OutputConfig controls where plans and chronicles are written. Workers
// bounds how many files a batch conversion lowers at once.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Workers int    `yaml:"workers" mapstructure:"workers"`
}

// SolverConfig describes the external solver command. An empty Command
// means no solver is configured and problems can only be converted.
type SolverConfig struct {
	Command string        `yaml:"command,omitempty" mapstructure:"command"`
	Args    []string      `yaml:"args,omitempty" mapstructure:"args"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Verbose bool          `yaml:"verbose" mapstructure:"verbose"`
}

// ObservabilityConfig controls the JSONL event log and the alerts
// evaluated over it.
type ObservabilityConfig struct {
	Enabled  bool         `yaml:"enabled" mapstructure:"enabled"`
	EventLog string       `yaml:"event_log" mapstructure:"event_log"`
	Alerts   AlertsConfig `yaml:"alerts" mapstructure:"alerts"`
}

// AlertsConfig holds alert thresholds. Zero streak or slow-solve values
// disable the corresponding alert.
type AlertsConfig struct {
	MaxFailureRate    float64 `yaml:"max_failure_rate" mapstructure:"max_failure_rate"`
	MinSamples        int     `yaml:"min_samples" mapstructure:"min_samples"`
	MaxUnsolvedStreak int     `yaml:"max_unsolved_streak" mapstructure:"max_unsolved_streak"`
	SlowSolveSeconds  int     `yaml:"slow_solve_seconds" mapstructure:"slow_solve_seconds"`
}

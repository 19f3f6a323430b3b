package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionFailureRate    = "conversion_failure_rate"
	ConditionUnsolvedStreak = "unsolved_streak"
	ConditionSlowSolve      = "slow_solve"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	MaxFailureRate    float64 `yaml:"max_failure_rate" json:"max_failure_rate" mapstructure:"max_failure_rate"`
	MinSamples        int     `yaml:"min_samples" json:"min_samples" mapstructure:"min_samples"`
	MaxUnsolvedStreak int     `yaml:"max_unsolved_streak" json:"max_unsolved_streak" mapstructure:"max_unsolved_streak"`
	SlowSolveSeconds  int     `yaml:"slow_solve_seconds" json:"slow_solve_seconds" mapstructure:"slow_solve_seconds"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxFailureRate:    0.25,
		MinSamples:        4,
		MaxUnsolvedStreak: 3,
		SlowSolveSeconds:  120,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine by reading events and checking thresholds.
type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
	}
}

// Evaluate reads events and checks all alert conditions, returning any
// triggered alerts ordered by ID.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := time.Now().UTC()
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}

	var alerts []Alert
	alerts = append(alerts, ae.checkFailureRate(events, now)...)
	alerts = append(alerts, ae.checkUnsolvedStreaks(events, now)...)
	alerts = append(alerts, ae.checkSlowSolves(events, now)...)

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID < alerts[j].ID })
	return alerts, nil
}

// checkFailureRate fires once enough conversions were attempted and too
// many of them failed.
func (ae *alertEngine) checkFailureRate(events []Event, now time.Time) []Alert {
	var ok, failed int
	for _, event := range events {
		switch event.Type {
		case EventProblemConverted:
			ok++
		case EventProblemConversionFailed:
			failed++
		}
	}
	total := ok + failed
	if total == 0 || total < ae.thresholds.MinSamples {
		return nil
	}
	rate := float64(failed) / float64(total)
	if rate <= ae.thresholds.MaxFailureRate {
		return nil
	}
	return []Alert{{
		ID:          "failure-rate",
		Condition:   ConditionFailureRate,
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("%d of %d conversions failed (%.0f%%, threshold %.0f%%)", failed, total, rate*100, ae.thresholds.MaxFailureRate*100),
		TriggeredAt: now,
	}}
}

// checkUnsolvedStreaks looks for problems whose latest solve attempts all
// came back without a plan.
func (ae *alertEngine) checkUnsolvedStreaks(events []Event, now time.Time) []Alert {
	if ae.thresholds.MaxUnsolvedStreak <= 0 {
		return nil
	}
	streaks := make(map[string]int)
	for _, event := range events {
		name, _ := event.Data[DataProblem].(string)
		if name == "" {
			continue
		}
		switch event.Type {
		case EventProblemSolved:
			streaks[name] = 0
		case EventProblemUnsolved, EventProblemSolveFailed:
			streaks[name]++
		}
	}

	var alerts []Alert
	for name, n := range streaks {
		if n >= ae.thresholds.MaxUnsolvedStreak {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("unsolved-%s", name),
				Condition:   ConditionUnsolvedStreak,
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("problem %s has not been solved in its last %d attempts", name, n),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

// checkSlowSolves looks at the latest solver run of every problem.
func (ae *alertEngine) checkSlowSolves(events []Event, now time.Time) []Alert {
	if ae.thresholds.SlowSolveSeconds <= 0 {
		return nil
	}
	latest := make(map[string]time.Duration)
	for _, event := range events {
		if event.Type != EventProblemSolved && event.Type != EventProblemUnsolved {
			continue
		}
		name, _ := event.Data[DataProblem].(string)
		if name == "" {
			continue
		}
		latest[name] = millis(event.Data[DataDurationMS])
	}

	limit := time.Duration(ae.thresholds.SlowSolveSeconds) * time.Second
	var alerts []Alert
	for name, d := range latest {
		if d > limit {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("slow-%s", name),
				Condition:   ConditionSlowSolve,
				Severity:    SeverityLow,
				Message:     fmt.Sprintf("solving %s took %s, more than %ds", name, d.Round(time.Millisecond), ae.thresholds.SlowSolveSeconds),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

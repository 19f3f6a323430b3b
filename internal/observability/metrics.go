package observability

import (
	"fmt"
	"time"
)

// Data keys carried by problem events.
const (
	DataProblem    = "problem"
	DataSignatures = "signatures"
	DataDurationMS = "duration_ms"
	DataError      = "error"
)

// ProblemMetrics aggregates the events of a single problem.
type ProblemMetrics struct {
	Conversions int `json:"conversions"`
	Failures    int `json:"failures"`
	Solved      int `json:"solved"`
	Unsolved    int `json:"unsolved"`
	Signatures  int `json:"signatures"`
}

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	ProblemsConverted  int                        `json:"problems_converted"`
	ConversionFailures int                        `json:"conversion_failures"`
	ProblemsSolved     int                        `json:"problems_solved"`
	ProblemsUnsolved   int                        `json:"problems_unsolved"`
	SolveFailures      int                        `json:"solve_failures"`
	Signatures         int                        `json:"signatures"`
	SolveTime          time.Duration              `json:"solve_time_ns"`
	ByProblem          map[string]*ProblemMetrics `json:"by_problem"`
	EventCount         int                        `json:"event_count"`
	OldestEvent        *time.Time                 `json:"oldest_event,omitempty"`
	NewestEvent        *time.Time                 `json:"newest_event,omitempty"`
}

// FailureRate is the share of conversions that failed, 0 when nothing
// was converted.
func (m *Metrics) FailureRate() float64 {
	total := m.ProblemsConverted + m.ConversionFailures
	if total == 0 {
		return 0
	}
	return float64(m.ConversionFailures) / float64(total)
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{ByProblem: make(map[string]*ProblemMetrics)}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		pm := m.problem(event)
		switch event.Type {
		case EventProblemConverted:
			m.ProblemsConverted++
			n := int(number(event.Data[DataSignatures]))
			m.Signatures += n
			if pm != nil {
				pm.Conversions++
				pm.Signatures = n
			}
		case EventProblemConversionFailed:
			m.ConversionFailures++
			if pm != nil {
				pm.Failures++
			}
		case EventProblemSolved:
			m.ProblemsSolved++
			m.SolveTime += millis(event.Data[DataDurationMS])
			if pm != nil {
				pm.Solved++
			}
		case EventProblemUnsolved:
			m.ProblemsUnsolved++
			m.SolveTime += millis(event.Data[DataDurationMS])
			if pm != nil {
				pm.Unsolved++
			}
		case EventProblemSolveFailed:
			m.SolveFailures++
		}
	}

	return m, nil
}

func (m *Metrics) problem(event Event) *ProblemMetrics {
	name, _ := event.Data[DataProblem].(string)
	if name == "" {
		return nil
	}
	pm, ok := m.ByProblem[name]
	if !ok {
		pm = &ProblemMetrics{}
		m.ByProblem[name] = pm
	}
	return pm
}

// number reads a numeric data field. Values read back from JSON are
// float64; values still in memory may be any integer kind.
func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func millis(v any) time.Duration {
	return time.Duration(number(v) * float64(time.Millisecond))
}

package core

// EventLogger is the subset of the observability event log that core
// services need. Only the event type and its data cross this seam; the
// adapter in the app package fills in time and level.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

package cli

import (
	"github.com/valter-silva-au/temporal-htn/internal/core"
	"github.com/valter-silva-au/temporal-htn/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	Pipeline    core.ConversionService
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
)

package telemetry

import (
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
)

// InitRuntimeMetrics starts the Go runtime instrumentation (GC, memory,
// goroutines) against the global MeterProvider. Call after
// InitMeterProvider.
func InitRuntimeMetrics() error {
	return runtime.Start(
		runtime.WithMinimumReadMemStatsInterval(15 * time.Second),
	)
}

// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Account metrics
	IncUserRegistered()
	IncLoginFailed()

	// Medicine registry metrics
	IncMedicineCreated()
	IncMedicineUpdated()
	IncMedicineDeleted()

	// Alert lifecycle metrics
	IncAlertTriggered()
	IncAlertConfirmed(status string) // status: "taken" or "missed"

	// History cache metrics
	IncHistoryCacheHit()
	IncHistoryCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

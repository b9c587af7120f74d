package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests        uint64
	HTTPServerErrors    uint64
	UsersRegistered     uint64
	LoginsFailed        uint64
	MedicinesCreated    uint64
	MedicinesUpdated    uint64
	MedicinesDeleted    uint64
	AlertsTriggered     uint64
	AlertsTaken         uint64
	AlertsMissed        uint64
	HistoryCacheHits    uint64
	HistoryCacheMisses  uint64
	HTTPDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests        uint64
	httpServerErrors    uint64
	httpDurationTotalNs int64
	usersRegistered     uint64
	loginsFailed        uint64
	medicinesCreated    uint64
	medicinesUpdated    uint64
	medicinesDeleted    uint64
	alertsTriggered     uint64
	alertsTaken         uint64
	alertsMissed        uint64
	historyCacheHits    uint64
	historyCacheMisses  uint64
}

var (
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		HTTPRequests:        atomic.LoadUint64(&m.httpRequests),
		HTTPServerErrors:    atomic.LoadUint64(&m.httpServerErrors),
		HTTPDurationTotalNs: atomic.LoadInt64(&m.httpDurationTotalNs),
		UsersRegistered:     atomic.LoadUint64(&m.usersRegistered),
		LoginsFailed:        atomic.LoadUint64(&m.loginsFailed),
		MedicinesCreated:    atomic.LoadUint64(&m.medicinesCreated),
		MedicinesUpdated:    atomic.LoadUint64(&m.medicinesUpdated),
		MedicinesDeleted:    atomic.LoadUint64(&m.medicinesDeleted),
		AlertsTriggered:     atomic.LoadUint64(&m.alertsTriggered),
		AlertsTaken:         atomic.LoadUint64(&m.alertsTaken),
		AlertsMissed:        atomic.LoadUint64(&m.alertsMissed),
		HistoryCacheHits:    atomic.LoadUint64(&m.historyCacheHits),
		HistoryCacheMisses:  atomic.LoadUint64(&m.historyCacheMisses),
	}
}

// ObserveHTTPRequest counts a request and its duration.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
	atomic.AddInt64(&m.httpDurationTotalNs, duration.Nanoseconds())
	if status >= 500 {
		atomic.AddUint64(&m.httpServerErrors, 1)
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLoginFailed increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncMedicineCreated increments medicine created counter.
func (m *InMemoryRecorder) IncMedicineCreated() {
	atomic.AddUint64(&m.medicinesCreated, 1)
}

// IncMedicineUpdated increments medicine updated counter.
func (m *InMemoryRecorder) IncMedicineUpdated() {
	atomic.AddUint64(&m.medicinesUpdated, 1)
}

// IncMedicineDeleted increments medicine deleted counter.
func (m *InMemoryRecorder) IncMedicineDeleted() {
	atomic.AddUint64(&m.medicinesDeleted, 1)
}

// IncAlertTriggered increments the trigger counter.
func (m *InMemoryRecorder) IncAlertTriggered() {
	atomic.AddUint64(&m.alertsTriggered, 1)
}

// IncAlertConfirmed increments the taken or missed counter.
func (m *InMemoryRecorder) IncAlertConfirmed(status string) {
	switch status {
	case "taken":
		atomic.AddUint64(&m.alertsTaken, 1)
	case "missed":
		atomic.AddUint64(&m.alertsMissed, 1)
	}
}

// IncHistoryCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncHistoryCacheHit() {
	atomic.AddUint64(&m.historyCacheHits, 1)
}

// IncHistoryCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncHistoryCacheMiss() {
	atomic.AddUint64(&m.historyCacheMisses, 1)
}

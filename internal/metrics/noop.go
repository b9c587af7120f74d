package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
func (n *NoopRecorder) IncUserRegistered() {}
func (n *NoopRecorder) IncLoginFailed() {}
func (n *NoopRecorder) IncMedicineCreated() {}
func (n *NoopRecorder) IncMedicineUpdated() {}
func (n *NoopRecorder) IncMedicineDeleted() {}
func (n *NoopRecorder) IncAlertTriggered() {}
func (n *NoopRecorder) IncAlertConfirmed(status string) {}
func (n *NoopRecorder) IncHistoryCacheHit() {}
func (n *NoopRecorder) IncHistoryCacheMiss() {}

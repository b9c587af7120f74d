package model

import "time"

// AlertStatus is the persisted outcome of an alert.
type AlertStatus string

const (
	AlertStatusTaken  AlertStatus = "taken"
	AlertStatusMissed AlertStatus = "missed"
)

// IsValid checks if the status is one of the persisted values.
func (s AlertStatus) IsValid() bool {
	return s == AlertStatusTaken || s == AlertStatusMissed
}

// AlertState is the lifecycle state of an alert as seen by the user.
// It differs from AlertStatus only before the user has answered: a fresh
// alert is stored as missed but is still pending.
type AlertState string

const (
	AlertStatePending AlertState = "pending"
	AlertStateTaken   AlertState = "taken"
	AlertStateMissed  AlertState = "missed"
)

// Alert is one firing of a medicine's scheduled time.
type Alert struct {
	ID          string      `json:"_id" bson:"_id"`
	UserID      string      `json:"userId" bson:"user_id"`
	MedicineID  string      `json:"medicineId" bson:"medicine_id"`
	Time        string      `json:"time" bson:"time"`
	Status      AlertStatus `json:"status" bson:"status"`
	Timestamp   time.Time   `json:"timestamp" bson:"timestamp"`
	TriggeredAt time.Time   `json:"triggeredAt" bson:"triggered_at"`
	ConfirmedAt *time.Time  `json:"confirmedAt,omitempty" bson:"confirmed_at,omitempty"`
}

// OwnerID returns the owning user's ID.
func (a *Alert) OwnerID() string {
	return a.UserID
}

// State computes the lifecycle state of the alert.
func (a *Alert) State() AlertState {
	if a.ConfirmedAt == nil {
		return AlertStatePending
	}
	if a.Status == AlertStatusTaken {
		return AlertStateTaken
	}
	return AlertStateMissed
}

// AlertDetail is an alert joined with the medicine it references.
// Medicine is nil when the medicine has since been deleted.
type AlertDetail struct {
	Alert
	Medicine *Medicine `json:"medicine,omitempty"`
}

// AlertSummary aggregates alert outcomes.
type AlertSummary struct {
	Taken   int `json:"taken"`
	Missed  int `json:"missed"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// Summarize counts alerts by status. Pending alerts are also counted as missed
// because that is their persisted status.
func Summarize(alerts []*AlertDetail) AlertSummary {
	var s AlertSummary
	for _, a := range alerts {
		s.Total++
		switch a.Status {
		case AlertStatusTaken:
			s.Taken++
		default:
			s.Missed++
		}
		if a.State() == AlertStatePending {
			s.Pending++
		}
	}
	return s
}

// OnDate filters alerts whose timestamp falls on the given calendar date in loc.
func OnDate(alerts []*AlertDetail, day time.Time, loc *time.Location) []*AlertDetail {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.In(loc).Date()
	out := make([]*AlertDetail, 0, len(alerts))
	for _, a := range alerts {
		ay, am, ad := a.Timestamp.In(loc).Date()
		if ay == y && am == m && ad == d {
			out = append(out, a)
		}
	}
	return out
}

// WithStatus filters alerts by persisted status.
func WithStatus(alerts []*AlertDetail, status AlertStatus) []*AlertDetail {
	out := make([]*AlertDetail, 0, len(alerts))
	for _, a := range alerts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

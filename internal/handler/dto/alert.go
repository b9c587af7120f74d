package dto

import (
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

// TriggerAlertRequest represents the request body for triggering an alert.
type TriggerAlertRequest struct {
	MedicineID string `json:"medicineId"`
	Time       string `json:"time,omitempty"`
}

// ConfirmAlertRequest represents the request body for taken and missed.
type ConfirmAlertRequest struct {
	AlertID string `json:"alertId"`
}

// AlertResponse represents an alert in API responses.
type AlertResponse struct {
	ID          string     `json:"_id"`
	UserID      string     `json:"userId"`
	MedicineID  string     `json:"medicineId"`
	Time        string     `json:"time"`
	Status      string     `json:"status"`
	State       string     `json:"state"`
	Timestamp   time.Time  `json:"timestamp"`
	TriggeredAt time.Time  `json:"triggeredAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// ToAlertResponse converts an Alert model to AlertResponse DTO.
func ToAlertResponse(a *model.Alert) AlertResponse {
	return AlertResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		MedicineID:  a.MedicineID,
		Time:        a.Time,
		Status:      string(a.Status),
		State:       string(a.State()),
		Timestamp:   a.Timestamp,
		TriggeredAt: a.TriggeredAt,
		ConfirmedAt: a.ConfirmedAt,
	}
}

// MedicineRef is the expanded medicine embedded in history entries.
type MedicineRef struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Time   string `json:"time"`
	Dosage string `json:"dosage"`
}

// HistoryEntry is an alert with its medicine expanded in place.
// Medicine is null when the medicine has been deleted.
type HistoryEntry struct {
	ID          string       `json:"_id"`
	UserID      string       `json:"userId"`
	Medicine    *MedicineRef `json:"medicineId"`
	Time        string       `json:"time"`
	Status      string       `json:"status"`
	State       string       `json:"state"`
	Timestamp   time.Time    `json:"timestamp"`
	TriggeredAt time.Time    `json:"triggeredAt"`
	ConfirmedAt *time.Time   `json:"confirmedAt,omitempty"`
}

// ToHistory converts joined alerts to history entries, never returning nil.
func ToHistory(details []*model.AlertDetail) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(details))
	for _, d := range details {
		entry := HistoryEntry{
			ID:          d.ID,
			UserID:      d.UserID,
			Time:        d.Time,
			Status:      string(d.Status),
			State:       string(d.State()),
			Timestamp:   d.Timestamp,
			TriggeredAt: d.TriggeredAt,
			ConfirmedAt: d.ConfirmedAt,
		}
		if d.Medicine != nil {
			entry.Medicine = &MedicineRef{
				ID:     d.Medicine.ID,
				Name:   d.Medicine.Name,
				Time:   d.Medicine.Time,
				Dosage: d.Medicine.Dosage,
			}
		}
		out = append(out, entry)
	}
	return out
}

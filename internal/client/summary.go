package client

import (
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/handler/dto"
	"github.com/Ayushbunkar/Meditrack/internal/model"
)

// Details converts history entries back into joined alert models.
func Details(entries []dto.HistoryEntry) []*model.AlertDetail {
	out := make([]*model.AlertDetail, 0, len(entries))
	for _, e := range entries {
		d := &model.AlertDetail{
			Alert: model.Alert{
				ID:          e.ID,
				UserID:      e.UserID,
				Time:        e.Time,
				Status:      model.AlertStatus(e.Status),
				Timestamp:   e.Timestamp,
				TriggeredAt: e.TriggeredAt,
				ConfirmedAt: e.ConfirmedAt,
			},
		}
		if e.Medicine != nil {
			d.MedicineID = e.Medicine.ID
			d.Medicine = &model.Medicine{
				ID:     e.Medicine.ID,
				UserID: e.UserID,
				Name:   e.Medicine.Name,
				Time:   e.Medicine.Time,
				Dosage: e.Medicine.Dosage,
			}
		}
		out = append(out, d)
	}
	return out
}

// Summarize counts history entries, optionally restricted to the calendar
// day of *day in loc.
func Summarize(entries []dto.HistoryEntry, day *time.Time, loc *time.Location) model.AlertSummary {
	details := Details(entries)
	if day != nil {
		details = model.OnDate(details, *day, loc)
	}
	return model.Summarize(details)
}

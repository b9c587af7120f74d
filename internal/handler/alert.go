package handler

import (
	"log/slog"
	"net/http"

	"github.com/Ayushbunkar/Meditrack/internal/auth"
	"github.com/Ayushbunkar/Meditrack/internal/handler/dto"
	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/service"
)

// AlertHandler handles HTTP requests for the alert lifecycle.
type AlertHandler struct {
	svc    *service.AlertService
	logger *slog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(svc *service.AlertService, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		svc:    svc,
		logger: logger,
	}
}

// Trigger handles POST /api/alerts/trigger.
func (h *AlertHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req dto.TriggerAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	alert, err := h.svc.Trigger(r.Context(), userID, service.TriggerInput{
		MedicineID: req.MedicineID,
		Time:       req.Time,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("alert_triggered",
		"alert_id", alert.ID,
		"medicine_id", alert.MedicineID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusCreated, dto.ToAlertResponse(alert))
}

// Taken handles POST /api/alerts/taken.
func (h *AlertHandler) Taken(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, model.AlertStatusTaken)
}

// Missed handles POST /api/alerts/missed.
func (h *AlertHandler) Missed(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, model.AlertStatusMissed)
}

func (h *AlertHandler) confirm(w http.ResponseWriter, r *http.Request, status model.AlertStatus) {
	var req dto.ConfirmAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := auth.UserIDFromContext(r.Context())

	var (
		alert *model.Alert
		err   error
	)
	if status == model.AlertStatusTaken {
		alert, err = h.svc.MarkTaken(r.Context(), userID, req.AlertID)
	} else {
		alert, err = h.svc.MarkMissed(r.Context(), userID, req.AlertID)
	}
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("alert_confirmed",
		"alert_id", alert.ID,
		"status", string(alert.Status),
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToAlertResponse(alert))
}

// History handles GET /api/alerts/history.
// Optional query parameters: date (YYYY-MM-DD), tz (IANA zone), status.
func (h *AlertHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := service.ParseHistoryFilter(q.Get("date"), q.Get("tz"), q.Get("status"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	history, err := h.svc.History(r.Context(), auth.UserIDFromContext(r.Context()), filter)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToHistory(history))
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ayushbunkar/Meditrack/internal/auth"
	"github.com/Ayushbunkar/Meditrack/internal/handler/dto"
	"github.com/Ayushbunkar/Meditrack/internal/service"
)

// MedicineHandler handles HTTP requests for medicine operations.
type MedicineHandler struct {
	svc    *service.MedicineService
	logger *slog.Logger
}

// NewMedicineHandler creates a new MedicineHandler.
func NewMedicineHandler(svc *service.MedicineService, logger *slog.Logger) *MedicineHandler {
	return &MedicineHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/meds.
func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	meds, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToMedicineList(meds))
}

// Create handles POST /api/meds.
func (h *MedicineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMedicineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	med, err := h.svc.Create(r.Context(), userID, service.CreateMedicineInput{
		Name:   req.Name,
		Time:   req.Time,
		Dosage: req.Dosage,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("medicine_created",
		"medicine_id", med.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusCreated, dto.ToMedicineResponse(med))
}

// Get handles GET /api/meds/{id}.
func (h *MedicineHandler) Get(w http.ResponseWriter, r *http.Request) {
	med, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToMedicineResponse(med))
}

// Update handles PUT /api/meds/{id}.
func (h *MedicineHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMedicineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	med, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("medicine_updated",
		"medicine_id", med.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToMedicineResponse(med))
}

// Delete handles DELETE /api/meds/{id}.
func (h *MedicineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("medicine_deleted",
		"medicine_id", id,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Medicine deleted"})
}

package dto

import (
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

// CreateMedicineRequest represents the request body for creating a medicine.
type CreateMedicineRequest struct {
	Name   string `json:"name"`
	Time   string `json:"time"`
	Dosage string `json:"dosage"`
}

// UpdateMedicineRequest represents a partial medicine update.
// Omitted fields are left untouched.
type UpdateMedicineRequest struct {
	Name   *string `json:"name,omitempty"`
	Time   *string `json:"time,omitempty"`
	Dosage *string `json:"dosage,omitempty"`
}

// ToPatch converts the request to a model patch.
func (r UpdateMedicineRequest) ToPatch() model.MedicinePatch {
	return model.MedicinePatch{
		Name:   r.Name,
		Time:   r.Time,
		Dosage: r.Dosage,
	}
}

// MedicineResponse represents a medicine in API responses.
type MedicineResponse struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Time      string    `json:"time"`
	Dosage    string    `json:"dosage"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToMedicineResponse converts a Medicine model to MedicineResponse DTO.
func ToMedicineResponse(m *model.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		Time:      m.Time,
		Dosage:    m.Dosage,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToMedicineList converts a slice of medicines, never returning nil.
func ToMedicineList(meds []*model.Medicine) []MedicineResponse {
	out := make([]MedicineResponse, 0, len(meds))
	for _, m := range meds {
		out = append(out, ToMedicineResponse(m))
	}
	return out
}

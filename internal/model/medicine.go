package model

import (
	"strings"
	"time"
)

// Medicine is a recurring daily reminder entry.
// Time is an "HH:MM" string compared verbatim against the client clock.
type Medicine struct {
	ID        string    `json:"_id" bson:"_id"`
	UserID    string    `json:"userId" bson:"user_id"`
	Name      string    `json:"name" bson:"name"`
	Time      string    `json:"time" bson:"time"`
	Dosage    string    `json:"dosage" bson:"dosage"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// OwnerID returns the owning user's ID.
func (m *Medicine) OwnerID() string {
	return m.UserID
}

// MedicinePatch holds the fields of a partial medicine update.
// Nil fields are left untouched.
type MedicinePatch struct {
	Name   *string
	Time   *string
	Dosage *string
}

// IsEmpty reports whether the patch changes nothing.
func (p MedicinePatch) IsEmpty() bool {
	return p.Name == nil && p.Time == nil && p.Dosage == nil
}

// Apply copies the set fields onto m.
func (p MedicinePatch) Apply(m *Medicine) {
	if p.Name != nil {
		m.Name = strings.TrimSpace(*p.Name)
	}
	if p.Time != nil {
		m.Time = strings.TrimSpace(*p.Time)
	}
	if p.Dosage != nil {
		m.Dosage = strings.TrimSpace(*p.Dosage)
	}
}

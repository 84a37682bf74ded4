package relationship

import (
	"time"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Type classifies the bond between a caregiver and a patient.
type Type string

const (
	TypeFamily       Type = "FAMILY"
	TypeProfessional Type = "PROFESSIONAL"
	TypeFriend       Type = "FRIEND"
	TypeVolunteer    Type = "VOLUNTEER"
	TypeOther        Type = "OTHER"
)

// Valid reports whether t is a known relationship type.
func (t Type) Valid() bool {
	switch t {
	case TypeFamily, TypeProfessional, TypeFriend, TypeVolunteer, TypeOther:
		return true
	}
	return false
}

// Relationship is a caregiver-patient bond. At most one active
// relationship exists per pair; ended bonds stay as history and the
// pair may form a new one later.
type Relationship struct {
	ID          types.ID  `json:"id"`
	PatientID   types.ID  `json:"patient_id"`
	CaregiverID types.ID  `json:"caregiver_id"`
	Type        Type      `json:"relationship_type"`
	StartDate   time.Time `json:"start_date"`
	Notes       string    `json:"notes,omitempty"`

	IsActive      bool       `json:"is_active"`
	CreatedBy     types.ID   `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	InactivatedAt *time.Time `json:"inactivated_at,omitempty"`
	InactivatedBy types.ID   `json:"inactivated_by,omitempty"`
}

// CreateRequest is the request to create a relationship.
type CreateRequest struct {
	PatientID   types.ID `json:"patient_id"`
	CaregiverID types.ID `json:"caregiver_id"`
	Type        Type     `json:"relationship_type"`
	StartDate   string   `json:"start_date,omitempty"` // YYYY-MM-DD, defaults to today
	Notes       string   `json:"notes,omitempty"`
}

// ListFilter defines filters for listing relationships.
type ListFilter struct {
	PatientID   *types.ID `json:"patient_id,omitempty"`
	CaregiverID *types.ID `json:"caregiver_id,omitempty"`
	Type        *Type     `json:"type,omitempty"`
	Active      *bool     `json:"active,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Offset      int       `json:"offset,omitempty"`
}

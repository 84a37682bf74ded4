package link

import (
	"time"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Link attaches a shared-vocabulary pictogram to a patient's personal
// board. At most one active link exists per (patient, pictogram);
// inactivated links remain as history and the pair may be relinked.
type Link struct {
	ID          types.ID `json:"id"`
	PatientID   types.ID `json:"patient_id"`
	PictogramID types.ID `json:"pictogram_id"`

	IsActive      bool       `json:"is_active"`
	CreatedBy     types.ID   `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	InactivatedAt *time.Time `json:"inactivated_at,omitempty"`
	InactivatedBy types.ID   `json:"inactivated_by,omitempty"`
}

// CreateRequest is the request to link one pictogram to a patient.
type CreateRequest struct {
	PatientID   types.ID `json:"patient_id"`
	PictogramID types.ID `json:"pictogram_id"`
}

// BatchRequest is the request to link several pictograms at once. The
// batch is all-or-nothing.
type BatchRequest struct {
	PatientID    types.ID   `json:"patient_id"`
	PictogramIDs []types.ID `json:"pictogram_ids"`
}

package person

import (
	"time"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Role is the capacity in which a person is being registered.
type Role string

const (
	RolePatient   Role = "patient"
	RoleCaregiver Role = "caregiver"
)

// Person is a unique human identity keyed by CPF. The same row may be
// tagged patient, caregiver or both; registering an existing CPF under
// the other role completes the row instead of creating a new one.
type Person struct {
	ID    types.ID  `json:"id"`
	CPF   types.CPF `json:"cpf"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
	CID   string    `json:"cid,omitempty"` // ICD diagnosis code

	// Caregiver-only
	Profession string `json:"profession,omitempty"`

	Address types.Address `json:"address"`

	IsPatient   bool `json:"is_patient"`
	IsCaregiver bool `json:"is_caregiver"`

	// Patient-only sensory and behavioral preferences
	Colors  string `json:"colors,omitempty"`
	Sounds  string `json:"sounds,omitempty"`
	Smells  string `json:"smells,omitempty"`
	Hobbies string `json:"hobbies,omitempty"`

	IsActive      bool       `json:"is_active"`
	CreatedBy     types.ID   `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	InactivatedAt *time.Time `json:"inactivated_at,omitempty"`
	InactivatedBy types.ID   `json:"inactivated_by,omitempty"`
}

// Types returns the person's role tags for display.
func (p Person) Types() []string {
	var out []string
	if p.IsPatient {
		out = append(out, "patient")
	}
	if p.IsCaregiver {
		out = append(out, "caregiver")
	}
	return out
}

// HasRole reports whether the given role flag is set.
func (p Person) HasRole(role Role) bool {
	switch role {
	case RolePatient:
		return p.IsPatient
	case RoleCaregiver:
		return p.IsCaregiver
	}
	return false
}

// Attributes is the field data supplied by a registration call.
// Patient-only and caregiver-only fields are applied according to the
// requested role; the other role's fields are preserved on merge.
type Attributes struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	CID   string `json:"cid,omitempty"`

	Profession string `json:"profession,omitempty"`

	Address types.Address `json:"address"`

	Colors  string `json:"colors,omitempty"`
	Sounds  string `json:"sounds,omitempty"`
	Smells  string `json:"smells,omitempty"`
	Hobbies string `json:"hobbies,omitempty"`
}

// Outcome describes what ResolveOrCreate did to the person row.
type Outcome string

const (
	// OutcomeCreated means a new person row was inserted.
	OutcomeCreated Outcome = "created"
	// OutcomeMerged means an existing row gained the requested role flag.
	OutcomeMerged Outcome = "merged"
	// OutcomeUnchanged means the row already carried the requested role;
	// the call sites decide whether that is an error.
	OutcomeUnchanged Outcome = "unchanged"
)

// RegisterRequest is the request to register a patient or caregiver.
type RegisterRequest struct {
	CPF string `json:"cpf"`
	Attributes
}

// UpdateRequest is the request to update a person's mutable fields.
type UpdateRequest struct {
	Name       *string        `json:"name,omitempty"`
	Email      *string        `json:"email,omitempty"`
	Phone      *string        `json:"phone,omitempty"`
	CID        *string        `json:"cid,omitempty"`
	Profession *string        `json:"profession,omitempty"`
	Address    *types.Address `json:"address,omitempty"`
	Colors     *string        `json:"colors,omitempty"`
	Sounds     *string        `json:"sounds,omitempty"`
	Smells     *string        `json:"smells,omitempty"`
	Hobbies    *string        `json:"hobbies,omitempty"`
}

// ListFilter defines filters for listing persons.
type ListFilter struct {
	Role   *Role   `json:"role,omitempty"`
	Active *bool   `json:"active,omitempty"`
	Search string  `json:"search,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

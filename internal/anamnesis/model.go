package anamnesis

import (
	"time"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Anamnesis is a clinical intake record for a patient, optionally tied
// to the caregiver who answered it. Each (patient, caregiver) pair has
// at most one record ever: soft-deleting does not free the slot, the
// record is updated instead of replaced.
type Anamnesis struct {
	ID          types.ID  `json:"id"`
	PatientID   types.ID  `json:"patient_id"`
	CaregiverID *types.ID `json:"caregiver_id,omitempty"`

	MainDiagnosis        string `json:"main_diagnosis,omitempty"`
	AssociatedConditions string `json:"associated_conditions,omitempty"`
	Allergies            string `json:"allergies,omitempty"`
	Medications          string `json:"medications,omitempty"`

	CommunicationMethods string `json:"communication_methods,omitempty"`
	SpokenWords          string `json:"spoken_words,omitempty"`
	PreferredPictograms  string `json:"preferred_pictograms,omitempty"`

	DietaryRestrictions string `json:"dietary_restrictions,omitempty"`
	FoodPreferences     string `json:"food_preferences,omitempty"`
	FeedingDifficulties string `json:"feeding_difficulties,omitempty"`

	NeedsExpression      string `json:"needs_expression,omitempty"`
	FrustrationReactions string `json:"frustration_reactions,omitempty"`
	GeneralObservations  string `json:"general_observations,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedBy types.ID  `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fields is the clinical payload shared by create and update requests.
type Fields struct {
	MainDiagnosis        string `json:"main_diagnosis,omitempty"`
	AssociatedConditions string `json:"associated_conditions,omitempty"`
	Allergies            string `json:"allergies,omitempty"`
	Medications          string `json:"medications,omitempty"`
	CommunicationMethods string `json:"communication_methods,omitempty"`
	SpokenWords          string `json:"spoken_words,omitempty"`
	PreferredPictograms  string `json:"preferred_pictograms,omitempty"`
	DietaryRestrictions  string `json:"dietary_restrictions,omitempty"`
	FoodPreferences      string `json:"food_preferences,omitempty"`
	FeedingDifficulties  string `json:"feeding_difficulties,omitempty"`
	NeedsExpression      string `json:"needs_expression,omitempty"`
	FrustrationReactions string `json:"frustration_reactions,omitempty"`
	GeneralObservations  string `json:"general_observations,omitempty"`
}

func (a *Anamnesis) apply(f Fields) {
	a.MainDiagnosis = f.MainDiagnosis
	a.AssociatedConditions = f.AssociatedConditions
	a.Allergies = f.Allergies
	a.Medications = f.Medications
	a.CommunicationMethods = f.CommunicationMethods
	a.SpokenWords = f.SpokenWords
	a.PreferredPictograms = f.PreferredPictograms
	a.DietaryRestrictions = f.DietaryRestrictions
	a.FoodPreferences = f.FoodPreferences
	a.FeedingDifficulties = f.FeedingDifficulties
	a.NeedsExpression = f.NeedsExpression
	a.FrustrationReactions = f.FrustrationReactions
	a.GeneralObservations = f.GeneralObservations
}

// CreateRequest is the request to create an intake record.
type CreateRequest struct {
	PatientID   types.ID  `json:"patient_id"`
	CaregiverID *types.ID `json:"caregiver_id,omitempty"`
	Fields
}

// ListFilter defines filters for listing intake records.
type ListFilter struct {
	PatientID   *types.ID `json:"patient_id,omitempty"`
	CaregiverID *types.ID `json:"caregiver_id,omitempty"`
	Active      *bool     `json:"active,omitempty"`
}

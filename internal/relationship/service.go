package relationship

import (
	"context"
	"time"

	"github.com/amparo-care/platform/internal/person"
	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/metrics"
	"github.com/amparo-care/platform/internal/shared/types"
)

// PersonDirectory resolves persons for role validation.
type PersonDirectory interface {
	Get(ctx context.Context, id types.ID) (*person.Person, error)
}

// Service manages the caregiver-patient relationship lifecycle.
type Service struct {
	store   Store
	persons PersonDirectory
}

// NewService creates a relationship service.
func NewService(store Store, persons PersonDirectory) *Service {
	return &Service{store: store, persons: persons}
}

// Create establishes an active relationship between a caregiver and a
// patient. Both endpoints must exist, be active and carry the expected
// role; the pair must not already have an active relationship. The
// duplicate pre-check reports the existing bond's type and start date
// so the caller can inactivate it first; under concurrent creation the
// storage constraint still rejects the loser with CONFLICT_ON_INSERT.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor types.ID) (*Relationship, error) {
	if req.PatientID.IsZero() || req.CaregiverID.IsZero() {
		return nil, apperrors.Validation("validation failed", map[string]string{
			"patient_id":   "patient_id is required",
			"caregiver_id": "caregiver_id is required",
		})
	}
	if !req.Type.Valid() {
		return nil, apperrors.Validation("invalid relationship type",
			map[string]string{"relationship_type": string(req.Type)})
	}
	if req.PatientID == req.CaregiverID {
		metrics.RecordMutationConflict("SELF_RELATIONSHIP")
		return nil, apperrors.ValidationCode("SELF_RELATIONSHIP",
			"a person cannot be their own caregiver",
			map[string]string{"person_id": req.PatientID.String()})
	}

	startDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		parsed, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return nil, apperrors.Validation("start_date must be YYYY-MM-DD",
				map[string]string{"start_date": req.StartDate})
		}
		startDate = parsed
	}

	if err := s.checkRole(ctx, req.PatientID, person.RolePatient); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, req.CaregiverID, person.RoleCaregiver); err != nil {
		return nil, err
	}

	if existing, err := s.store.GetActiveByPair(ctx, req.PatientID, req.CaregiverID); err == nil {
		metrics.RecordMutationConflict("DUPLICATE_ACTIVE_RELATIONSHIP")
		return nil, apperrors.ConflictCode("DUPLICATE_ACTIVE_RELATIONSHIP",
			"an active relationship between this caregiver and patient already exists",
			map[string]string{
				"relationship_id":   existing.ID.String(),
				"relationship_type": string(existing.Type),
				"start_date":        existing.StartDate.Format(time.DateOnly),
			})
	} else if !apperrors.CodeIs(err, "NOT_FOUND") {
		return nil, err
	}

	rel := &Relationship{
		ID:          types.NewID(),
		PatientID:   req.PatientID,
		CaregiverID: req.CaregiverID,
		Type:        req.Type,
		StartDate:   startDate,
		Notes:       req.Notes,
		IsActive:    true,
		CreatedBy:   actor,
	}

	if err := s.store.Create(ctx, rel); err != nil {
		if apperrors.CodeIs(err, "CONFLICT_ON_INSERT") {
			metrics.RecordMutationConflict("CONFLICT_ON_INSERT")
		}
		return nil, err
	}

	metrics.RecordRelationshipCreated(string(rel.Type))
	return rel, nil
}

// checkRole verifies the person exists, is active and carries the role.
func (s *Service) checkRole(ctx context.Context, id types.ID, role person.Role) error {
	p, err := s.persons.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return apperrors.ConflictCode("ROLE_MISMATCH",
			"person is inactive",
			map[string]string{"person_id": id.String(), "expected_role": string(role)})
	}
	if !p.HasRole(role) {
		metrics.RecordMutationConflict("ROLE_MISMATCH")
		return apperrors.ConflictCode("ROLE_MISMATCH",
			"person is not registered as "+string(role),
			map[string]string{"person_id": id.String(), "expected_role": string(role)})
	}
	return nil
}

// Get fetches a relationship by ID.
func (s *Service) Get(ctx context.Context, id types.ID) (*Relationship, error) {
	return s.store.GetByID(ctx, id)
}

// List lists relationships matching the filter, newest start date first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Relationship, int, error) {
	return s.store.List(ctx, filter)
}

// Inactivate ends a relationship. The stamp is one-way: the row keeps
// its inactivation time forever and the pair is free to form a new
// relationship afterwards.
func (s *Service) Inactivate(ctx context.Context, id types.ID, actor types.ID) (*Relationship, error) {
	rel, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rel.IsActive || rel.InactivatedAt != nil {
		metrics.RecordMutationConflict("ALREADY_INACTIVE")
		return nil, apperrors.ConflictCode("ALREADY_INACTIVE",
			"relationship is already inactive",
			map[string]string{"relationship_id": id.String()})
	}

	now := time.Now().UTC()
	rel.IsActive = false
	rel.InactivatedAt = &now
	rel.InactivatedBy = actor

	if err := s.store.Update(ctx, rel); err != nil {
		return nil, err
	}

	metrics.RecordRelationshipInactivated()
	return rel, nil
}

// UpdateNotes updates the free-text notes on an active relationship.
func (s *Service) UpdateNotes(ctx context.Context, id types.ID, notes string) (*Relationship, error) {
	rel, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rel.IsActive {
		metrics.RecordMutationConflict("ALREADY_INACTIVE")
		return nil, apperrors.ConflictCode("ALREADY_INACTIVE",
			"relationship is already inactive",
			map[string]string{"relationship_id": id.String()})
	}
	rel.Notes = notes
	if err := s.store.Update(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// CaregiversOf lists the active caregivers of a patient.
func (s *Service) CaregiversOf(ctx context.Context, patientID types.ID) ([]Relationship, error) {
	active := true
	rels, _, err := s.store.List(ctx, ListFilter{PatientID: &patientID, Active: &active})
	return rels, err
}

// PatientsOf lists the active patients of a caregiver.
func (s *Service) PatientsOf(ctx context.Context, caregiverID types.ID) ([]Relationship, error) {
	active := true
	rels, _, err := s.store.List(ctx, ListFilter{CaregiverID: &caregiverID, Active: &active})
	return rels, err
}

package anamnesis

import (
	"context"

	"github.com/amparo-care/platform/internal/person"
	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/metrics"
	"github.com/amparo-care/platform/internal/shared/types"
)

// PersonDirectory resolves persons for role validation.
type PersonDirectory interface {
	Get(ctx context.Context, id types.ID) (*person.Person, error)
}

// Service manages clinical intake records.
type Service struct {
	store   Store
	persons PersonDirectory
}

// NewService creates an anamnesis service.
func NewService(store Store, persons PersonDirectory) *Service {
	return &Service{store: store, persons: persons}
}

// Create records an intake for a (patient, caregiver) pair. The pair
// may have at most one record ever; when one exists the caller is
// pointed at it so the data can be revised through Update instead.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor types.ID) (*Anamnesis, error) {
	if req.PatientID.IsZero() {
		return nil, apperrors.Validation("patient_id is required",
			map[string]string{"field": "patient_id"})
	}

	if err := s.checkRole(ctx, req.PatientID, person.RolePatient); err != nil {
		return nil, err
	}
	if req.CaregiverID != nil {
		if err := s.checkRole(ctx, *req.CaregiverID, person.RoleCaregiver); err != nil {
			return nil, err
		}
	}

	if existing, err := s.store.GetByPair(ctx, req.PatientID, req.CaregiverID); err == nil {
		metrics.RecordMutationConflict("DUPLICATE_INTAKE_RECORD")
		return nil, apperrors.ConflictCode("DUPLICATE_INTAKE_RECORD",
			"an intake record for this pair already exists; update it instead",
			map[string]string{"anamnesis_id": existing.ID.String()})
	} else if !apperrors.CodeIs(err, "NOT_FOUND") {
		return nil, err
	}

	a := &Anamnesis{
		ID:          types.NewID(),
		PatientID:   req.PatientID,
		CaregiverID: req.CaregiverID,
		IsActive:    true,
		CreatedBy:   actor,
	}
	a.apply(req.Fields)

	if err := s.store.Create(ctx, a); err != nil {
		if apperrors.CodeIs(err, "CONFLICT_ON_INSERT") {
			metrics.RecordMutationConflict("CONFLICT_ON_INSERT")
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) checkRole(ctx context.Context, id types.ID, role person.Role) error {
	p, err := s.persons.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsActive || !p.HasRole(role) {
		metrics.RecordMutationConflict("ROLE_MISMATCH")
		return apperrors.ConflictCode("ROLE_MISMATCH",
			"person is not an active "+string(role),
			map[string]string{"person_id": id.String(), "expected_role": string(role)})
	}
	return nil
}

// Get fetches an intake record by ID.
func (s *Service) Get(ctx context.Context, id types.ID) (*Anamnesis, error) {
	return s.store.GetByID(ctx, id)
}

// GetForPair fetches the record for a (patient, caregiver) pair.
func (s *Service) GetForPair(ctx context.Context, patientID types.ID, caregiverID *types.ID) (*Anamnesis, error) {
	return s.store.GetByPair(ctx, patientID, caregiverID)
}

// List lists intake records matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Anamnesis, error) {
	return s.store.List(ctx, filter)
}

// Update replaces the clinical fields of an existing record. The
// patient and caregiver of a record never change.
func (s *Service) Update(ctx context.Context, id types.ID, fields Fields) (*Anamnesis, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.apply(fields)
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Deactivate soft-deletes a record. The pair slot stays occupied: a
// deactivated record is revived through Update, never recreated.
func (s *Service) Deactivate(ctx context.Context, id types.ID) (*Anamnesis, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		metrics.RecordMutationConflict("ALREADY_INACTIVE")
		return nil, apperrors.ConflictCode("ALREADY_INACTIVE",
			"intake record is already inactive",
			map[string]string{"anamnesis_id": id.String()})
	}

	a.IsActive = false
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

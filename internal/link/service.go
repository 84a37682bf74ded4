package link

import (
	"context"
	"strings"
	"time"

	"github.com/amparo-care/platform/internal/person"
	"github.com/amparo-care/platform/internal/pictogram"
	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/metrics"
	"github.com/amparo-care/platform/internal/shared/types"
)

// PersonDirectory resolves persons for role validation.
type PersonDirectory interface {
	Get(ctx context.Context, id types.ID) (*person.Person, error)
}

// Service manages the links between patients and the shared pictogram
// vocabulary.
type Service struct {
	store      Store
	vocabulary pictogram.Store
	persons    PersonDirectory
}

// NewService creates a link service.
func NewService(store Store, vocabulary pictogram.Store, persons PersonDirectory) *Service {
	return &Service{store: store, vocabulary: vocabulary, persons: persons}
}

// Create links one pictogram to a patient's board.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor types.ID) (*Link, error) {
	if req.PatientID.IsZero() || req.PictogramID.IsZero() {
		return nil, apperrors.Validation("validation failed", map[string]string{
			"patient_id":   "patient_id is required",
			"pictogram_id": "pictogram_id is required",
		})
	}

	if err := s.checkPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	p, err := s.vocabulary.GetPictogram(ctx, req.PictogramID)
	if err != nil {
		return nil, err
	}
	if err := s.checkLinkable(ctx, *p); err != nil {
		return nil, err
	}

	if err := s.checkNotLinked(ctx, req.PatientID, []pictogram.Pictogram{*p}); err != nil {
		return nil, err
	}

	l := &Link{
		ID:          types.NewID(),
		PatientID:   req.PatientID,
		PictogramID: req.PictogramID,
		IsActive:    true,
		CreatedBy:   actor,
	}
	if err := s.store.Create(ctx, l); err != nil {
		if apperrors.CodeIs(err, "CONFLICT_ON_INSERT") {
			metrics.RecordMutationConflict("CONFLICT_ON_INSERT")
		}
		return nil, err
	}

	metrics.RecordLinkCreated("single", 1)
	return l, nil
}

// CreateBatch links several pictograms to a patient's board in one
// all-or-nothing operation: any invalid, duplicate or already-linked
// pictogram rejects the whole batch.
func (s *Service) CreateBatch(ctx context.Context, req BatchRequest, actor types.ID) ([]Link, error) {
	if req.PatientID.IsZero() {
		return nil, apperrors.Validation("patient_id is required",
			map[string]string{"field": "patient_id"})
	}
	if len(req.PictogramIDs) == 0 {
		return nil, apperrors.ValidationCode("EMPTY_BATCH",
			"at least one pictogram is required", nil)
	}

	if dups := duplicateIDs(req.PictogramIDs); len(dups) > 0 {
		return nil, apperrors.ValidationCode("DUPLICATE_IN_BATCH",
			"the batch names the same pictogram more than once",
			map[string]string{"pictogram_ids": joinIDs(dups)})
	}

	if err := s.checkPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	found, err := s.vocabulary.GetPictograms(ctx, req.PictogramIDs)
	if err != nil {
		return nil, err
	}
	if len(found) != len(req.PictogramIDs) {
		missing := missingIDs(req.PictogramIDs, found)
		return nil, apperrors.ValidationCode("INVALID_PICTOGRAM_IDS",
			"some pictograms do not exist",
			map[string]string{"pictogram_ids": joinIDs(missing)})
	}

	for _, p := range found {
		if err := s.checkLinkable(ctx, p); err != nil {
			return nil, err
		}
	}

	if err := s.checkNotLinked(ctx, req.PatientID, found); err != nil {
		return nil, err
	}

	links := make([]*Link, 0, len(req.PictogramIDs))
	for _, pictogramID := range req.PictogramIDs {
		links = append(links, &Link{
			ID:          types.NewID(),
			PatientID:   req.PatientID,
			PictogramID: pictogramID,
			IsActive:    true,
			CreatedBy:   actor,
		})
	}

	if err := s.store.CreateBatch(ctx, links); err != nil {
		if apperrors.CodeIs(err, "CONFLICT_ON_INSERT") {
			metrics.RecordMutationConflict("CONFLICT_ON_INSERT")
		}
		return nil, err
	}

	metrics.RecordLinkCreated("batch", len(links))
	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = *l
	}
	return out, nil
}

// checkPatient verifies the person exists, is active and is a patient.
func (s *Service) checkPatient(ctx context.Context, id types.ID) error {
	p, err := s.persons.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsPatient || !p.IsActive {
		metrics.RecordMutationConflict("ROLE_MISMATCH")
		return apperrors.ConflictCode("ROLE_MISMATCH",
			"person is not an active patient",
			map[string]string{"person_id": id.String(), "expected_role": "patient"})
	}
	return nil
}

// checkLinkable verifies the pictogram and its category accept new
// links.
func (s *Service) checkLinkable(ctx context.Context, p pictogram.Pictogram) error {
	if !p.IsActive {
		return apperrors.ValidationCode("INVALID_PICTOGRAM_IDS",
			"pictogram is inactive",
			map[string]string{"pictogram_ids": p.ID.String()})
	}

	category, err := s.vocabulary.GetCategory(ctx, p.CategoryID)
	if err != nil {
		return err
	}
	if !category.IsActive {
		metrics.RecordMutationConflict("CATEGORY_INACTIVE")
		return apperrors.ConflictCode("CATEGORY_INACTIVE",
			"pictogram category no longer accepts links",
			map[string]string{"pictogram": p.Name, "category": category.Name})
	}
	return nil
}

// checkNotLinked rejects pictograms the patient already has an active
// link to, naming the offenders.
func (s *Service) checkNotLinked(ctx context.Context, patientID types.ID, candidates []pictogram.Pictogram) error {
	existing, err := s.store.ListByPatient(ctx, patientID, true)
	if err != nil {
		return err
	}

	linked := make(map[types.ID]bool, len(existing))
	for _, l := range existing {
		linked[l.PictogramID] = true
	}

	var names []string
	for _, p := range candidates {
		if linked[p.ID] {
			names = append(names, p.Name)
		}
	}
	if len(names) > 0 {
		metrics.RecordMutationConflict("DUPLICATE_ACTIVE_LINK")
		return apperrors.ConflictCode("DUPLICATE_ACTIVE_LINK",
			"patient already has active links to these pictograms",
			map[string]string{"pictograms": strings.Join(names, ", ")})
	}
	return nil
}

// Get fetches a link by ID.
func (s *Service) Get(ctx context.Context, id types.ID) (*Link, error) {
	return s.store.GetByID(ctx, id)
}

// ListForPatient lists a patient's links.
func (s *Service) ListForPatient(ctx context.Context, patientID types.ID, activeOnly bool) ([]Link, error) {
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.ListByPatient(ctx, patientID, activeOnly)
}

// AvailableForPatient lists the active vocabulary the patient is not
// yet linked to.
func (s *Service) AvailableForPatient(ctx context.Context, patientID types.ID) ([]pictogram.Pictogram, error) {
	if err := s.checkPatient(ctx, patientID); err != nil {
		return nil, err
	}

	links, err := s.store.ListByPatient(ctx, patientID, true)
	if err != nil {
		return nil, err
	}
	linked := make(map[types.ID]bool, len(links))
	for _, l := range links {
		linked[l.PictogramID] = true
	}

	active := true
	all, err := s.vocabulary.ListPictograms(ctx, pictogram.ListFilter{Active: &active})
	if err != nil {
		return nil, err
	}

	var out []pictogram.Pictogram
	for _, p := range all {
		if !linked[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// Inactivate removes a pictogram from the patient's board. The link row
// stays as history and the pictogram becomes linkable again.
func (s *Service) Inactivate(ctx context.Context, id types.ID, actor types.ID) (*Link, error) {
	l, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsActive {
		metrics.RecordMutationConflict("ALREADY_INACTIVE")
		return nil, apperrors.ConflictCode("ALREADY_INACTIVE",
			"link is already inactive", map[string]string{"link_id": id.String()})
	}

	now := time.Now().UTC()
	l.IsActive = false
	l.InactivatedAt = &now
	l.InactivatedBy = actor

	if err := s.store.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func duplicateIDs(ids []types.ID) []types.ID {
	seen := make(map[types.ID]bool, len(ids))
	var dups []types.ID
	for _, id := range ids {
		if seen[id] {
			dups = append(dups, id)
			continue
		}
		seen[id] = true
	}
	return dups
}

func missingIDs(requested []types.ID, found []pictogram.Pictogram) []types.ID {
	have := make(map[types.ID]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	var missing []types.ID
	for _, id := range requested {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func joinIDs(ids []types.ID) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return strings.Join(out, ", ")
}

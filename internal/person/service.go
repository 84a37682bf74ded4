package person

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/metrics"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Service resolves person identities by CPF and manages the registries
// of patients and caregivers built on top of them.
type Service struct {
	store Store
}

// NewService creates a person service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ResolveOrCreate finds the person identified by rawCPF or creates one,
// merging the requested role into an existing row when the identity
// matches. Registration never duplicates a CPF: a patient registering
// as a caregiver (or vice versa) completes the existing row.
//
// A lookup hit whose submitted name or email disagrees with the stored
// row is rejected as INCONSISTENT_IDENTITY rather than silently
// overwritten; identity fixes go through Update.
func (s *Service) ResolveOrCreate(ctx context.Context, rawCPF string, attrs Attributes, role Role, actor types.ID) (*Person, Outcome, error) {
	cpf, err := types.ParseCPF(rawCPF)
	if err != nil {
		return nil, "", apperrors.ValidationCode("INVALID_IDENTIFIER", err.Error(),
			map[string]string{"field": "cpf"})
	}

	if attrs.Name == "" {
		return nil, "", apperrors.Validation("name is required",
			map[string]string{"field": "name"})
	}

	existing, err := s.store.GetByCPF(ctx, cpf)
	switch {
	case err == nil:
		return s.merge(ctx, existing, attrs, role)
	case apperrors.CodeIs(err, "NOT_FOUND"):
		return s.create(ctx, cpf, attrs, role, actor)
	default:
		return nil, "", err
	}
}

func (s *Service) create(ctx context.Context, cpf types.CPF, attrs Attributes, role Role, actor types.ID) (*Person, Outcome, error) {
	p := &Person{
		ID:        types.NewID(),
		CPF:       cpf,
		Name:      attrs.Name,
		Email:     attrs.Email,
		Phone:     attrs.Phone,
		Address:   attrs.Address,
		IsActive:  true,
		CreatedBy: actor,
	}
	applyRoleAttributes(p, attrs, role)

	if err := s.store.Create(ctx, p); err != nil {
		if apperrors.CodeIs(err, "CONFLICT_ON_INSERT") {
			metrics.RecordMutationConflict("CONFLICT_ON_INSERT")
		}
		return nil, "", err
	}

	metrics.RecordPersonResolved(string(role), string(OutcomeCreated))
	return p, OutcomeCreated, nil
}

func (s *Service) merge(ctx context.Context, existing *Person, attrs Attributes, role Role) (*Person, Outcome, error) {
	if details := identityMismatch(existing, attrs); details != nil {
		metrics.RecordMutationConflict("INCONSISTENT_IDENTITY")
		return nil, "", apperrors.ConflictCode("INCONSISTENT_IDENTITY",
			"submitted identity data disagrees with the existing registration", details)
	}

	if existing.HasRole(role) {
		metrics.RecordPersonResolved(string(role), string(OutcomeUnchanged))
		return existing, OutcomeUnchanged, nil
	}

	// Gaining a role applies only that role's fields; the other role's
	// attributes stay as registered.
	applyRoleAttributes(existing, attrs, role)
	if existing.Phone == "" {
		existing.Phone = attrs.Phone
	}
	if existing.Address.IsZero() {
		existing.Address = attrs.Address
	}

	if err := s.store.Update(ctx, existing); err != nil {
		if apperrors.CodeIs(err, "CONFLICT_ON_INSERT") {
			metrics.RecordMutationConflict("CONFLICT_ON_INSERT")
		}
		return nil, "", err
	}

	metrics.RecordPersonResolved(string(role), string(OutcomeMerged))
	return existing, OutcomeMerged, nil
}

func applyRoleAttributes(p *Person, attrs Attributes, role Role) {
	switch role {
	case RolePatient:
		p.IsPatient = true
		p.CID = attrs.CID
		p.Colors = attrs.Colors
		p.Sounds = attrs.Sounds
		p.Smells = attrs.Smells
		p.Hobbies = attrs.Hobbies
	case RoleCaregiver:
		p.IsCaregiver = true
		p.Profession = attrs.Profession
	}
}

// identityMismatch compares the submitted name and email against the
// stored row. Comparison is case-insensitive and ignores surrounding
// whitespace; an empty submitted email matches anything.
func identityMismatch(existing *Person, attrs Attributes) map[string]string {
	details := map[string]string{}

	if !strings.EqualFold(strings.TrimSpace(attrs.Name), strings.TrimSpace(existing.Name)) {
		details["name_current"] = existing.Name
		details["name_submitted"] = attrs.Name
	}
	if attrs.Email != "" && !strings.EqualFold(strings.TrimSpace(attrs.Email), strings.TrimSpace(existing.Email)) {
		details["email_current"] = existing.Email
		details["email_submitted"] = attrs.Email
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

// Get fetches a person by ID.
func (s *Service) Get(ctx context.Context, id types.ID) (*Person, error) {
	return s.store.GetByID(ctx, id)
}

// GetByRole fetches a person by ID and verifies it carries the role.
func (s *Service) GetByRole(ctx context.Context, id types.ID, role Role) (*Person, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasRole(role) {
		return nil, apperrors.NotFound(string(role), id.String())
	}
	return p, nil
}

// List lists persons matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Person, int, error) {
	return s.store.List(ctx, filter)
}

// Update applies partial updates to a person's mutable fields. CPF and
// role flags are not updatable through this path.
func (s *Service) Update(ctx context.Context, id types.ID, req UpdateRequest) (*Person, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperrors.Validation("name cannot be empty",
				map[string]string{"field": "name"})
		}
		p.Name = *req.Name
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.CID != nil {
		p.CID = *req.CID
	}
	if req.Profession != nil {
		p.Profession = *req.Profession
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Colors != nil {
		p.Colors = *req.Colors
	}
	if req.Sounds != nil {
		p.Sounds = *req.Sounds
	}
	if req.Smells != nil {
		p.Smells = *req.Smells
	}
	if req.Hobbies != nil {
		p.Hobbies = *req.Hobbies
	}

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate soft-deletes a person. The row and its history remain.
func (s *Service) Deactivate(ctx context.Context, id types.ID, actor types.ID) (*Person, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperrors.ConflictCode("ALREADY_INACTIVE",
			"person is already inactive", map[string]string{"id": id.String()})
	}

	p.IsActive = false
	now := time.Now().UTC()
	p.InactivatedAt = &now
	p.InactivatedBy = actor

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

package relationship

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

// MemoryStore is an in-memory Store for tests and development mode.
type MemoryStore struct {
	mu            sync.RWMutex
	relationships map[types.ID]*Relationship
}

// NewMemoryStore creates an empty in-memory relationship store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{relationships: make(map[types.ID]*Relationship)}
}

func (s *MemoryStore) Create(ctx context.Context, rel *Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.relationships {
		if existing.PatientID == rel.PatientID &&
			existing.CaregiverID == rel.CaregiverID &&
			existing.IsActive && existing.InactivatedAt == nil {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"an active relationship for this pair already exists",
				map[string]string{
					"patient_id":   rel.PatientID.String(),
					"caregiver_id": rel.CaregiverID.String(),
				})
		}
	}

	now := time.Now().UTC()
	rel.CreatedAt = now
	rel.UpdatedAt = now

	cp := *rel
	s.relationships[rel.ID] = &cp
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id types.ID) (*Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rel, ok := s.relationships[id]
	if !ok {
		return nil, apperrors.NotFound("relationship", id.String())
	}
	cp := *rel
	return &cp, nil
}

func (s *MemoryStore) GetActiveByPair(ctx context.Context, patientID, caregiverID types.ID) (*Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rel := range s.relationships {
		if rel.PatientID == patientID && rel.CaregiverID == caregiverID &&
			rel.IsActive && rel.InactivatedAt == nil {
			cp := *rel
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("relationship", patientID.String()+"/"+caregiverID.String())
}

func (s *MemoryStore) Update(ctx context.Context, rel *Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.relationships[rel.ID]; !ok {
		return apperrors.NotFound("relationship", rel.ID.String())
	}
	rel.UpdatedAt = time.Now().UTC()
	cp := *rel
	s.relationships[rel.ID] = &cp
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Relationship, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Relationship
	for _, rel := range s.relationships {
		if filter.PatientID != nil && rel.PatientID != *filter.PatientID {
			continue
		}
		if filter.CaregiverID != nil && rel.CaregiverID != *filter.CaregiverID {
			continue
		}
		if filter.Type != nil && rel.Type != *filter.Type {
			continue
		}
		if filter.Active != nil && rel.IsActive != *filter.Active {
			continue
		}
		out = append(out, *rel)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })

	total := len(out)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

package anamnesis

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
	mu      sync.RWMutex
	records map[types.ID]*Anamnesis
}

// NewMemoryStore creates an empty in-memory anamnesis store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[types.ID]*Anamnesis)}
}

func samePair(a *Anamnesis, patientID types.ID, caregiverID *types.ID) bool {
	if a.PatientID != patientID {
		return false
	}
	if a.CaregiverID == nil || caregiverID == nil {
		return a.CaregiverID == nil && caregiverID == nil
	}
	return *a.CaregiverID == *caregiverID
}

func (s *MemoryStore) Create(ctx context.Context, a *Anamnesis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if samePair(existing, a.PatientID, a.CaregiverID) {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"an intake record for this pair already exists",
				map[string]string{"anamnesis_id": existing.ID.String()})
		}
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	cp := *a
	s.records[a.ID] = &cp
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id types.ID) (*Anamnesis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.records[id]
	if !ok {
		return nil, apperrors.NotFound("anamnesis", id.String())
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) GetByPair(ctx context.Context, patientID types.ID, caregiverID *types.ID) (*Anamnesis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.records {
		if samePair(a, patientID, caregiverID) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("anamnesis", patientID.String())
}

func (s *MemoryStore) Update(ctx context.Context, a *Anamnesis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[a.ID]; !ok {
		return apperrors.NotFound("anamnesis", a.ID.String())
	}
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	s.records[a.ID] = &cp
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Anamnesis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Anamnesis
	for _, a := range s.records {
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.CaregiverID != nil {
			if a.CaregiverID == nil || *a.CaregiverID != *filter.CaregiverID {
				continue
			}
		}
		if filter.Active != nil && a.IsActive != *filter.Active {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

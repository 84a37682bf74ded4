package link

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
	mu    sync.RWMutex
	links map[types.ID]*Link
}

// NewMemoryStore creates an empty in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{links: make(map[types.ID]*Link)}
}

func (s *MemoryStore) Create(ctx context.Context, l *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(l)
}

func (s *MemoryStore) CreateBatch(ctx context.Context, links []*Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing: check every link before inserting any.
	for _, l := range links {
		if err := s.activeConflict(l); err != nil {
			return err
		}
	}
	for _, l := range links {
		if err := s.insert(l); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) insert(l *Link) error {
	if err := s.activeConflict(l); err != nil {
		return err
	}

	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	cp := *l
	s.links[l.ID] = &cp
	return nil
}

func (s *MemoryStore) activeConflict(l *Link) error {
	for _, existing := range s.links {
		if existing.PatientID == l.PatientID &&
			existing.PictogramID == l.PictogramID && existing.IsActive {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"an active link for this pictogram already exists",
				map[string]string{"pictogram_id": l.PictogramID.String()})
		}
	}
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id types.ID) (*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[id]
	if !ok {
		return nil, apperrors.NotFound("link", id.String())
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) ListByPatient(ctx context.Context, patientID types.ID, activeOnly bool) ([]Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Link
	for _, l := range s.links {
		if l.PatientID != patientID {
			continue
		}
		if activeOnly && !l.IsActive {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, l *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[l.ID]; !ok {
		return apperrors.NotFound("link", l.ID.String())
	}
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	s.links[l.ID] = &cp
	return nil
}

package pictogram

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

// MemoryStore is an in-memory Store for tests and development mode.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[types.ID]*Category
	pictograms map[types.ID]*Pictogram
}

// NewMemoryStore creates an empty in-memory vocabulary store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[types.ID]*Category),
		pictograms: make(map[types.ID]*Pictogram),
	}
}

func (s *MemoryStore) CreateCategory(ctx context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"category name already exists", map[string]string{"name": c.Name})
		}
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCategory(ctx context.Context, id types.ID) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id.String())
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Category
	for _, c := range s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateCategory(ctx context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return apperrors.NotFound("category", c.ID.String())
	}
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *MemoryStore) CreatePictogram(ctx context.Context, p *Pictogram) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.pictograms {
		if existing.CategoryID == p.CategoryID && strings.EqualFold(existing.Name, p.Name) {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"pictogram name already exists in this category",
				map[string]string{"name": p.Name})
		}
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	cp := *p
	s.pictograms[p.ID] = &cp
	return nil
}

func (s *MemoryStore) GetPictogram(ctx context.Context, id types.ID) (*Pictogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pictograms[id]
	if !ok {
		return nil, apperrors.NotFound("pictogram", id.String())
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetPictograms(ctx context.Context, ids []types.ID) ([]Pictogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Pictogram
	for _, id := range ids {
		if p, ok := s.pictograms[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListPictograms(ctx context.Context, filter ListFilter) ([]Pictogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Pictogram
	for _, p := range s.pictograms {
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Active != nil && p.IsActive != *filter.Active {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdatePictogram(ctx context.Context, p *Pictogram) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pictograms[p.ID]; !ok {
		return apperrors.NotFound("pictogram", p.ID.String())
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	s.pictograms[p.ID] = &cp
	return nil
}

package person

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
	mu      sync.RWMutex
	persons map[types.ID]*Person
	byCPF   map[types.CPF]types.ID
}

// NewMemoryStore creates an empty in-memory person store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		persons: make(map[types.ID]*Person),
		byCPF:   make(map[types.CPF]types.ID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, p *Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byCPF[p.CPF]; exists {
		return conflictOnInsert("cpf")
	}
	for _, existing := range s.persons {
		if p.Email != "" && existing.Email == p.Email {
			return conflictOnInsert("email")
		}
		if p.Phone != "" && existing.Phone == p.Phone {
			return conflictOnInsert("phone")
		}
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	cp := *p
	s.persons[p.ID] = &cp
	s.byCPF[p.CPF] = p.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id types.ID) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok {
		return nil, apperrors.NotFound("person", id.String())
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetByCPF(ctx context.Context, cpf types.CPF) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCPF[cpf]
	if !ok {
		return nil, apperrors.NotFound("person", cpf.Masked())
	}
	cp := *s.persons[id]
	return &cp, nil
}

func (s *MemoryStore) Update(ctx context.Context, p *Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[p.ID]; !ok {
		return apperrors.NotFound("person", p.ID.String())
	}
	for id, existing := range s.persons {
		if id == p.ID {
			continue
		}
		if p.Email != "" && existing.Email == p.Email {
			return conflictOnInsert("email")
		}
		if p.Phone != "" && existing.Phone == p.Phone {
			return conflictOnInsert("phone")
		}
	}

	p.UpdatedAt = time.Now().UTC()
	cp := *p
	s.persons[p.ID] = &cp
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Person, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Person
	for _, p := range s.persons {
		if filter.Role != nil && !p.HasRole(*filter.Role) {
			continue
		}
		if filter.Active != nil && p.IsActive != *filter.Active {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(string(p.CPF), filter.Search) {
				continue
			}
		}
		out = append(out, *p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	total := len(out)
	out = page(out, filter.Offset, filter.Limit)
	return out, total, nil
}

func page(persons []Person, offset, limit int) []Person {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(persons) {
		return nil
	}
	persons = persons[offset:]
	if limit > 0 && limit < len(persons) {
		persons = persons[:limit]
	}
	return persons
}

func conflictOnInsert(field string) error {
	return apperrors.ConflictCode("CONFLICT_ON_INSERT",
		"a concurrent write already claimed this "+field,
		map[string]string{"field": field})
}

package audit

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and development mode.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Sequence = int64(len(s.entries)) + 1
	s.entries = append(s.entries, *e)
	return nil
}

func (s *MemoryStore) LastHash(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return "", nil
	}
	return s.entries[len(s.entries)-1].Hash, nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- { // newest first
		e := s.entries[i]
		if !matches(e, filter) {
			continue
		}
		out = append(out, e)
	}

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

func (s *MemoryStore) VerifyChain(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prevHash := ""
	for _, e := range s.entries {
		if e.PrevHash != prevHash || !e.VerifyHash() {
			return e.Sequence, nil
		}
		prevHash = e.Hash
	}
	return 0, nil
}

func matches(e Entry, filter ListFilter) bool {
	if filter.ActorID != nil && e.ActorID != *filter.ActorID {
		return false
	}
	if filter.Action != "" && e.Action != filter.Action {
		return false
	}
	if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
		return false
	}
	if filter.ResourceID != nil {
		if e.ResourceID == nil || *e.ResourceID != *filter.ResourceID {
			return false
		}
	}
	if filter.StartTime != nil && e.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && e.Timestamp.After(*filter.EndTime) {
		return false
	}
	return true
}

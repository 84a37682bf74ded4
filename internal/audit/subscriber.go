package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amparo-care/platform/internal/shared/events"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Subscriber listens to domain events and appends audit entries.
type Subscriber struct {
	store Store
	bus   *events.Bus

	// Appends must be serialized: each entry chains on the previous
	// one's hash.
	mu sync.Mutex
}

// NewSubscriber creates an audit subscriber.
func NewSubscriber(store Store, bus *events.Bus) *Subscriber {
	return &Subscriber{store: store, bus: bus}
}

// Start subscribes to every domain event stream.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.bus.Subscribe(ctx, "*", s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe audit log: %w", err)
	}
	return nil
}

func (s *Subscriber) handleEvent(ctx context.Context, event events.Event) error {
	entry := s.eventToEntry(event)
	if entry == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevHash, err := s.store.LastHash(ctx)
	if err != nil {
		return err
	}
	entry.PrevHash = prevHash
	entry.Hash = entry.computeHash()

	if err := s.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// eventToEntry converts a domain event into an audit entry. The event
// type doubles as the action ("relationship.created"), its first
// segment as the resource type.
func (s *Subscriber) eventToEntry(event events.Event) *Entry {
	parts := strings.SplitN(event.Type, ".", 2)
	if len(parts) < 2 {
		return nil
	}
	resourceType := parts[0]

	var resourceID *types.ID
	var changes map[string]any
	if data, ok := event.Data.(map[string]any); ok {
		changes = data
		for _, field := range []string{resourceType + "_id", "id"} {
			if idVal, ok := data[field]; ok {
				if idStr, ok := idVal.(string); ok {
					id := types.ID(idStr)
					resourceID = &id
					break
				}
			}
		}
	}

	actorType := ActorTypeSystem
	switch event.ActorType {
	case "patient":
		actorType = ActorTypePatient
	case "caregiver":
		actorType = ActorTypeCaregiver
	case "admin":
		actorType = ActorTypeAdmin
	}

	return &Entry{
		ID:           types.NewID(),
		Timestamp:    event.Timestamp.UTC().Truncate(time.Microsecond),
		ActorType:    actorType,
		ActorID:      event.ActorID,
		Action:       event.Type,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Changes:      changes,
	}
}

package relationship

import (
	"context"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Store persists relationships. Create returns CONFLICT_ON_INSERT when
// the active-pair uniqueness constraint rejects the row: the service
// pre-checks for duplicates, but the store is the final arbiter under
// concurrent creation.
type Store interface {
	Create(ctx context.Context, rel *Relationship) error
	GetByID(ctx context.Context, id types.ID) (*Relationship, error)
	// GetActiveByPair returns the active relationship for the pair, or
	// a NotFound error.
	GetActiveByPair(ctx context.Context, patientID, caregiverID types.ID) (*Relationship, error)
	Update(ctx context.Context, rel *Relationship) error
	// List returns relationships ordered by start date, newest first.
	List(ctx context.Context, filter ListFilter) ([]Relationship, int, error)
}

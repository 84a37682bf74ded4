package anamnesis

import (
	"context"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Store persists intake records. The pair uniqueness constraint is
// permanent: it covers inactive records too, so Create returns
// CONFLICT_ON_INSERT for a pair that ever had a record.
type Store interface {
	Create(ctx context.Context, a *Anamnesis) error
	GetByID(ctx context.Context, id types.ID) (*Anamnesis, error)
	// GetByPair returns the record for the pair regardless of active
	// state, or a NotFound error. A nil caregiverID means the
	// patient-only slot.
	GetByPair(ctx context.Context, patientID types.ID, caregiverID *types.ID) (*Anamnesis, error)
	Update(ctx context.Context, a *Anamnesis) error
	List(ctx context.Context, filter ListFilter) ([]Anamnesis, error)
}

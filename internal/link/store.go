package link

import (
	"context"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Store persists patient-pictogram links. Creates return
// CONFLICT_ON_INSERT when the active-pair uniqueness constraint rejects
// a row; CreateBatch inserts all links or none.
type Store interface {
	Create(ctx context.Context, l *Link) error
	CreateBatch(ctx context.Context, links []*Link) error
	GetByID(ctx context.Context, id types.ID) (*Link, error)
	ListByPatient(ctx context.Context, patientID types.ID, activeOnly bool) ([]Link, error)
	Update(ctx context.Context, l *Link) error
}

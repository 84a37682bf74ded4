package pictogram

import (
	"context"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Store persists the shared pictogram vocabulary.
type Store interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id types.ID) (*Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]Category, error)
	UpdateCategory(ctx context.Context, c *Category) error

	CreatePictogram(ctx context.Context, p *Pictogram) error
	GetPictogram(ctx context.Context, id types.ID) (*Pictogram, error)
	// GetPictograms returns the subset of ids that exist, in no
	// particular order. Callers diff against the input to find unknowns.
	GetPictograms(ctx context.Context, ids []types.ID) ([]Pictogram, error)
	ListPictograms(ctx context.Context, filter ListFilter) ([]Pictogram, error)
	UpdatePictogram(ctx context.Context, p *Pictogram) error
}

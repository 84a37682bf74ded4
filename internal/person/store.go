package person

import (
	"context"

	"github.com/amparo-care/platform/internal/shared/types"
)

// Store persists person identities. Implementations return AppError
// categories: NotFound for missing rows and CONFLICT_ON_INSERT when a
// uniqueness constraint (cpf, email, phone) rejects a write.
type Store interface {
	Create(ctx context.Context, p *Person) error
	GetByID(ctx context.Context, id types.ID) (*Person, error)
	GetByCPF(ctx context.Context, cpf types.CPF) (*Person, error)
	Update(ctx context.Context, p *Person) error
	List(ctx context.Context, filter ListFilter) ([]Person, int, error)
}

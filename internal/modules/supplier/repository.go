package supplier

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateSupplier(ctx context.Context, s *Supplier) error
	GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error)
	ListSuppliers(ctx context.Context, activeOnly bool) ([]*Supplier, error)
	UpdateSupplier(ctx context.Context, s *Supplier) error
	CountSuppliers(ctx context.Context, activeOnly bool) (int, error)
}

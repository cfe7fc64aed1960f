package menu

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines menu item storage.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, f Filter) ([]*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)

	// MenuItemIDByName resolves an exact, case-sensitive name. ok is false when no item matches.
	MenuItemIDByName(ctx context.Context, name string) (id uuid.UUID, ok bool, err error)
	MenuItemExists(ctx context.Context, id uuid.UUID) (bool, error)
}

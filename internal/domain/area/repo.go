package area

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	List(ctx context.Context) ([]*Area, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Area, error)
	// GetByName matches the trimmed name exactly, ignoring case.
	GetByName(ctx context.Context, name string) (*Area, error)
	Upsert(ctx context.Context, a *Area) error
}

package request

import (
	"context"

	"github.com/google/uuid"

	"github.com/TomasArancibia/TallerIntegracion-Back/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// GetForUpdate reads the request and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	UpdateStatus(ctx context.Context, r *Request) error
	// List returns matching requests newest first.
	List(ctx context.Context, f Filter, page pagination.Params) ([]*Request, error)
	Count(ctx context.Context, f Filter) (int, error)
}

package staff

import (
	"context"

	"github.com/google/uuid"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
)

type Repository interface {
	Create(ctx context.Context, u *StaffUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*StaffUser, error)
	GetByEmail(ctx context.Context, email string) (*StaffUser, error)
	ListByRole(ctx context.Context, role auth.Role) ([]*StaffUser, error)
	Update(ctx context.Context, u *StaffUser) error
	Delete(ctx context.Context, id uuid.UUID) error
}

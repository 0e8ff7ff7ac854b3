package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
)

// StaffUser is a dashboard account. Its ID is the identity provider's user
// id, so token subjects map to it directly.
type StaffUser struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
	Role      auth.Role  `json:"role"`
	AreaID    *uuid.UUID `json:"area_id"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

func (u *StaffUser) Account() *auth.Account {
	acc := &auth.Account{
		ID:     u.ID.String(),
		Email:  u.Email,
		Role:   u.Role,
		Active: u.Active,
	}
	if u.AreaID != nil {
		id := u.AreaID.String()
		acc.AreaID = &id
	}
	return acc
}

type CreateInput struct {
	Email  string    `json:"email"`
	AreaID uuid.UUID `json:"area_id"`
}

// Created carries the one-time temporary password handed to the new lead.
type Created struct {
	User         *StaffUser `json:"user"`
	TempPassword string     `json:"temp_password"`
}

type PatchInput struct {
	AreaID *uuid.UUID `json:"area_id"`
	Active *bool      `json:"active"`
}

// ProfileInput updates the caller's own profile. Nil fields are left alone.
type ProfileInput struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Phone       *string `json:"phone"`
	NewPassword string  `json:"new_password"`
}

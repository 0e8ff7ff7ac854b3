package location

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTokenTaken is wrapped by CreateBed when the QR token is already assigned.
var ErrTokenTaken = errors.New("qr token already in use")

type Repository interface {
	UpsertInstitution(ctx context.Context, inst *Institution) error
	GetInstitution(ctx context.Context, id uuid.UUID) (*Institution, error)
	ListInstitutions(ctx context.Context) ([]*Institution, error)

	UpsertBuilding(ctx context.Context, b *Building) error
	ListBuildings(ctx context.Context, institutionID *uuid.UUID) ([]*Building, error)

	UpsertFloor(ctx context.Context, f *Floor) error
	GetFloor(ctx context.Context, id uuid.UUID) (*Floor, error)
	ListFloors(ctx context.Context, buildingID *uuid.UUID) ([]*Floor, error)

	UpsertService(ctx context.Context, s *ClinicalService) error
	GetService(ctx context.Context, id uuid.UUID) (*ClinicalService, error)
	ListServices(ctx context.Context) ([]*ClinicalService, error)

	CreateRoom(ctx context.Context, r *Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*Room, error)
	ListRooms(ctx context.Context, institutionID *uuid.UUID) ([]*Room, error)

	CreateBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	GetBedByToken(ctx context.Context, token string) (*Bed, error)
	ListBeds(ctx context.Context, roomID *uuid.UUID) ([]*Bed, error)
	SetBedActive(ctx context.Context, id uuid.UUID, active bool) (*Bed, error)

	BedContextByToken(ctx context.Context, token string) (*BedContext, error)
	InstitutionOfBed(ctx context.Context, bedID uuid.UUID) (*Institution, error)
}

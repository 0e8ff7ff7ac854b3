package location

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

// tokenRegenerations bounds how many fresh tokens are tried after a
// generated token collides.
const tokenRegenerations = 4

// GenerateToken returns 16 random bytes, hex encoded.
func GenerateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate qr token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

type Service struct {
	repo     Repository
	logger   zerolog.Logger
	newToken func() (string, error)
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, newToken: GenerateToken}
}

// ResolveByToken looks a bed up for the public scanning flow. Unknown and
// blank tokens resolve to not_found, inactive beds to inactive; neither is an
// error.
func (s *Service) ResolveByToken(ctx context.Context, token string) (*Resolution, error) {
	token = strings.TrimSpace(token)
	res := &Resolution{Code: token}
	if token == "" {
		res.Reason = ReasonNotFound
		return res, nil
	}

	bc, err := s.repo.BedContextByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			res.Reason = ReasonNotFound
			return res, nil
		}
		return nil, err
	}
	if !bc.Bed.Active {
		res.Reason = ReasonInactive
		return res, nil
	}

	res.OK = true
	res.Context = bc
	return res, nil
}

func (s *Service) CreateRoom(ctx context.Context, in CreateRoomInput) (*Room, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("room name is required")
	}
	if _, err := s.repo.GetFloor(ctx, in.FloorID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetService(ctx, in.ServiceID); err != nil {
		return nil, err
	}

	room := &Room{FloorID: in.FloorID, ServiceID: in.ServiceID, Name: name}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	s.logger.Info().Str("room_id", room.ID.String()).Str("name", name).Msg("room created")
	return room, nil
}

// CreateBed adds an active bed to a room. A caller-supplied token that is
// already taken is a Conflict; a generated one is replaced up to
// tokenRegenerations times before giving up.
func (s *Service) CreateBed(ctx context.Context, in CreateBedInput) (*Bed, error) {
	label := strings.ToUpper(strings.TrimSpace(in.Label))
	if label == "" {
		return nil, apperr.Validation("bed label is required")
	}
	if _, err := s.repo.GetRoom(ctx, in.RoomID); err != nil {
		return nil, err
	}

	supplied := strings.TrimSpace(in.QRToken)
	for attempt := 0; ; attempt++ {
		token := supplied
		if token == "" {
			var err error
			if token, err = s.newToken(); err != nil {
				return nil, err
			}
		}

		bed := &Bed{RoomID: in.RoomID, Label: label, QRToken: token, Active: true}
		err := s.repo.CreateBed(ctx, bed)
		if err == nil {
			s.logger.Info().Str("bed_id", bed.ID.String()).Str("room_id", in.RoomID.String()).Str("label", label).Msg("bed created")
			return bed, nil
		}
		if !errors.Is(err, ErrTokenTaken) {
			return nil, err
		}
		if supplied != "" {
			return nil, apperr.Conflict("qr token %q is already in use", supplied)
		}
		if attempt >= tokenRegenerations {
			return nil, apperr.Conflict("could not generate a unique qr token")
		}
		s.logger.Warn().Int("attempt", attempt+1).Msg("generated qr token collided, regenerating")
	}
}

// SetActive toggles whether the bed accepts new requests. Existing requests
// are untouched.
func (s *Service) SetActive(ctx context.Context, bedID uuid.UUID, active bool) (*Bed, error) {
	bed, err := s.repo.SetBedActive(ctx, bedID, active)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("bed_id", bedID.String()).Bool("active", active).Msg("bed activity changed")
	return bed, nil
}

func (s *Service) InstitutionOf(ctx context.Context, bedID uuid.UUID) (*Institution, error) {
	return s.repo.InstitutionOfBed(ctx, bedID)
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetBed(ctx, id)
}

func (s *Service) GetBedByToken(ctx context.Context, token string) (*Bed, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.NotFound("bed not found")
	}
	return s.repo.GetBedByToken(ctx, token)
}

func (s *Service) ListBeds(ctx context.Context, roomID *uuid.UUID) ([]*Bed, error) {
	return s.repo.ListBeds(ctx, roomID)
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return s.repo.GetRoom(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context, institutionID *uuid.UUID) ([]*Room, error) {
	return s.repo.ListRooms(ctx, institutionID)
}

func (s *Service) GetInstitution(ctx context.Context, id uuid.UUID) (*Institution, error) {
	return s.repo.GetInstitution(ctx, id)
}

func (s *Service) ListInstitutions(ctx context.Context) ([]*Institution, error) {
	return s.repo.ListInstitutions(ctx)
}

func (s *Service) ListBuildings(ctx context.Context, institutionID *uuid.UUID) ([]*Building, error) {
	return s.repo.ListBuildings(ctx, institutionID)
}

func (s *Service) ListFloors(ctx context.Context, buildingID *uuid.UUID) ([]*Floor, error) {
	return s.repo.ListFloors(ctx, buildingID)
}

func (s *Service) ListServices(ctx context.Context) ([]*ClinicalService, error) {
	return s.repo.ListServices(ctx)
}

// -- Provisioning used by the seed command. Each call is idempotent. --

func (s *Service) EnsureInstitution(ctx context.Context, name string) (*Institution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("institution name is required")
	}
	inst := &Institution{Name: name}
	if err := s.repo.UpsertInstitution(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Service) EnsureBuilding(ctx context.Context, institutionID uuid.UUID, name string) (*Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("building name is required")
	}
	b := &Building{InstitutionID: institutionID, Name: name}
	if err := s.repo.UpsertBuilding(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) EnsureFloor(ctx context.Context, buildingID uuid.UUID, number int) (*Floor, error) {
	f := &Floor{BuildingID: buildingID, Number: number}
	if err := s.repo.UpsertFloor(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) EnsureService(ctx context.Context, name string) (*ClinicalService, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("service name is required")
	}
	svc := &ClinicalService{Name: name}
	if err := s.repo.UpsertService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

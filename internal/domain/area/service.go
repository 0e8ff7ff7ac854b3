package area

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve finds the area a request is routed to. An id wins when given;
// otherwise the name must match exactly after trimming, ignoring case.
// Partial names never match.
func (s *Service) Resolve(ctx context.Context, id *uuid.UUID, name string) (*Area, error) {
	if id != nil && *id != uuid.Nil {
		return s.repo.GetByID(ctx, *id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NotFound("area not found")
	}
	return s.repo.GetByName(ctx, name)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Area, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Area, error) {
	return s.repo.List(ctx)
}

// Ensure creates the area if no area with the same name exists.
func (s *Service) Ensure(ctx context.Context, name string) (*Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("area name is required")
	}
	a := &Area{Name: name}
	if err := s.repo.Upsert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

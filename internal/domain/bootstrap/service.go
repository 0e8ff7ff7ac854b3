// Package bootstrap assembles the data a staff dashboard loads on start.
package bootstrap

import (
	"context"

	"github.com/google/uuid"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/area"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/location"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/request"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/staff"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
	"github.com/TomasArancibia/TallerIntegracion-Back/pkg/pagination"
)

type Hierarchy interface {
	ListInstitutions(ctx context.Context) ([]*location.Institution, error)
	ListBuildings(ctx context.Context, institutionID *uuid.UUID) ([]*location.Building, error)
	ListFloors(ctx context.Context, buildingID *uuid.UUID) ([]*location.Floor, error)
	ListServices(ctx context.Context) ([]*location.ClinicalService, error)
	ListRooms(ctx context.Context, institutionID *uuid.UUID) ([]*location.Room, error)
	ListBeds(ctx context.Context, roomID *uuid.UUID) ([]*location.Bed, error)
}

type Areas interface {
	List(ctx context.Context) ([]*area.Area, error)
}

type Requests interface {
	List(ctx context.Context, f request.Filter, page pagination.Params, viewer *auth.Principal) ([]*request.Request, error)
}

type Profiles interface {
	Profile(ctx context.Context, id string) (*staff.StaffUser, error)
}

// Snapshot is the whole hierarchy plus every request the viewer may see.
type Snapshot struct {
	User         *staff.StaffUser            `json:"user,omitempty"`
	Institutions []*location.Institution     `json:"institutions"`
	Buildings    []*location.Building        `json:"buildings"`
	Floors       []*location.Floor           `json:"floors"`
	Services     []*location.ClinicalService `json:"services"`
	Rooms        []*location.Room            `json:"rooms"`
	Beds         []*location.Bed             `json:"beds"`
	Areas        []*area.Area                `json:"areas"`
	Requests     []*request.Request          `json:"requests"`
}

type Service struct {
	hierarchy Hierarchy
	areas     Areas
	requests  Requests
	profiles  Profiles
}

func NewService(hierarchy Hierarchy, areas Areas, requests Requests, profiles Profiles) *Service {
	return &Service{hierarchy: hierarchy, areas: areas, requests: requests, profiles: profiles}
}

// Load reads everything unfiltered except requests, which follow the same
// visibility as the request listing. A caller without a stored profile gets
// no user.
func (s *Service) Load(ctx context.Context, viewer auth.Principal) (*Snapshot, error) {
	var (
		out Snapshot
		err error
	)
	if out.Institutions, err = s.hierarchy.ListInstitutions(ctx); err != nil {
		return nil, err
	}
	if out.Buildings, err = s.hierarchy.ListBuildings(ctx, nil); err != nil {
		return nil, err
	}
	if out.Floors, err = s.hierarchy.ListFloors(ctx, nil); err != nil {
		return nil, err
	}
	if out.Services, err = s.hierarchy.ListServices(ctx); err != nil {
		return nil, err
	}
	if out.Rooms, err = s.hierarchy.ListRooms(ctx, nil); err != nil {
		return nil, err
	}
	if out.Beds, err = s.hierarchy.ListBeds(ctx, nil); err != nil {
		return nil, err
	}
	if out.Areas, err = s.areas.List(ctx); err != nil {
		return nil, err
	}
	if out.Requests, err = s.requests.List(ctx, request.Filter{}, pagination.Params{}, &viewer); err != nil {
		return nil, err
	}
	if u, err := s.profiles.Profile(ctx, viewer.UserID); err == nil {
		out.User = u
	}
	fill(&out)
	return &out, nil
}

// fill replaces nil slices so every list encodes as [].
func fill(s *Snapshot) {
	if s.Institutions == nil {
		s.Institutions = []*location.Institution{}
	}
	if s.Buildings == nil {
		s.Buildings = []*location.Building{}
	}
	if s.Floors == nil {
		s.Floors = []*location.Floor{}
	}
	if s.Services == nil {
		s.Services = []*location.ClinicalService{}
	}
	if s.Rooms == nil {
		s.Rooms = []*location.Room{}
	}
	if s.Beds == nil {
		s.Beds = []*location.Bed{}
	}
	if s.Areas == nil {
		s.Areas = []*area.Area{}
	}
	if s.Requests == nil {
		s.Requests = []*request.Request{}
	}
}

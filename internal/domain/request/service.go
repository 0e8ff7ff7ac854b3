package request

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/area"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/location"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/db"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/websocket"
	"github.com/TomasArancibia/TallerIntegracion-Back/pkg/pagination"
)

// BedLookup is the part of the location service requests depend on.
type BedLookup interface {
	GetBed(ctx context.Context, id uuid.UUID) (*location.Bed, error)
	GetBedByToken(ctx context.Context, token string) (*location.Bed, error)
}

// AreaResolver routes a request to its area.
type AreaResolver interface {
	Resolve(ctx context.Context, id *uuid.UUID, name string) (*area.Area, error)
}

type Service struct {
	repo   Repository
	tx     db.TxRunner
	beds   BedLookup
	areas  AreaResolver
	events websocket.EventPublisher
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires the request lifecycle. events may be nil.
func NewService(repo Repository, tx db.TxRunner, beds BedLookup, areas AreaResolver, events websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		beds:   beds,
		areas:  areas,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// timestamp is the current time at the precision Postgres stores.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Request, error) {
	bed, err := s.lookupBed(ctx, in)
	if err != nil {
		return nil, err
	}
	if !bed.Active {
		return nil, apperr.Validation("bed %s is inactive and does not accept requests", bed.Label)
	}

	a, err := s.areas.Resolve(ctx, in.AreaID, in.AreaName)
	if err != nil {
		return nil, err
	}

	reqType := strings.TrimSpace(in.RequestType)
	if reqType == "" {
		return nil, apperr.Validation("request_type is required")
	}

	now := s.timestamp()
	r := &Request{
		BedID:          bed.ID,
		AreaID:         a.ID,
		RequestType:    reqType,
		Description:    strings.TrimSpace(in.Description),
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		RequesterName:  optional(in.RequesterName),
		RequesterEmail: optional(in.RequesterEmail),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	if full, err := s.repo.GetByID(ctx, r.ID); err != nil {
		s.logger.Warn().Err(err).Str("request_id", r.ID.String()).Msg("read back created request")
	} else {
		r = full
	}

	s.logger.Info().
		Str("request_id", r.ID.String()).
		Str("area", a.Name).
		Str("bed_id", bed.ID.String()).
		Msg("request created")
	s.publish(ctx, websocket.EventRequestCreated, r)
	return r, nil
}

func (s *Service) lookupBed(ctx context.Context, in CreateInput) (*location.Bed, error) {
	if in.BedID != nil && *in.BedID != uuid.Nil {
		return s.beds.GetBed(ctx, *in.BedID)
	}
	if token := strings.TrimSpace(in.QRToken); token != "" {
		return s.beds.GetBedByToken(ctx, token)
	}
	return nil, apperr.Validation("bed_id or qr_token is required")
}

// Get returns the request if viewer may see it. A nil viewer sees everything.
func (s *Service) Get(ctx context.Context, id uuid.UUID, viewer *auth.Principal) (*Request, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(viewer, r) {
		return nil, apperr.NotFound("request not found")
	}
	return r, nil
}

// Transition moves a request to the status named by rawStatus. Moving to the
// current status writes nothing and returns the request unchanged.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, rawStatus string, viewer *auth.Principal) (*Request, error) {
	to, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	var (
		out     *Request
		from    Status
		changed bool
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !visibleTo(viewer, r) {
			return apperr.NotFound("request not found")
		}
		from = r.Status
		out = r
		if !Apply(r, to, s.timestamp()) {
			return nil
		}
		changed = true
		return s.repo.UpdateStatus(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info().
			Str("request_id", out.ID.String()).
			Str("from", from.String()).
			Str("to", out.Status.String()).
			Msg("request status changed")
		s.publish(ctx, websocket.EventRequestStatusChanged, out)
	}
	return out, nil
}

// List returns requests newest first. Area leads only ever see their own
// area, whatever filter they ask for.
func (s *Service) List(ctx context.Context, f Filter, page pagination.Params, viewer *auth.Principal) ([]*Request, error) {
	f, ok := scope(f, viewer)
	if !ok {
		return []*Request{}, nil
	}
	out, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*Request{}
	}
	return out, nil
}

// Count returns how many requests List would return without pagination.
func (s *Service) Count(ctx context.Context, f Filter, viewer *auth.Principal) (int, error) {
	f, ok := scope(f, viewer)
	if !ok {
		return 0, nil
	}
	return s.repo.Count(ctx, f)
}

// scope pins an area lead's filter to their area. It reports false when the
// viewer can see nothing that matches.
func scope(f Filter, viewer *auth.Principal) (Filter, bool) {
	if viewer == nil || viewer.IsAdmin() {
		return f, true
	}
	areaID, ok := viewerArea(viewer)
	if !ok {
		return f, false
	}
	if f.AreaID != nil && *f.AreaID != areaID {
		return f, false
	}
	f.AreaID = &areaID
	return f, true
}

func viewerArea(p *auth.Principal) (uuid.UUID, bool) {
	if p.AreaID == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(*p.AreaID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func visibleTo(viewer *auth.Principal, r *Request) bool {
	if viewer == nil || viewer.IsAdmin() {
		return true
	}
	areaID, ok := viewerArea(viewer)
	return ok && areaID == r.AreaID
}

func (s *Service) publish(ctx context.Context, eventType string, r *Request) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", r.ID.String()).Msg("encode request event")
		return
	}
	ev := websocket.Event{
		Type:      eventType,
		RequestID: r.ID.String(),
		AreaID:    r.AreaID.String(),
		Status:    r.Status.String(),
		Timestamp: r.UpdatedAt,
		Data:      data,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("request_id", r.ID.String()).Msg("publish request event")
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Service struct {
	store  Store
	loc    *time.Location
	logger zerolog.Logger
}

// NewService reports in loc, which decides where calendar days begin.
func NewService(store Store, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, logger: logger}
}

// Range validates the dates before any query runs.
func (s *Service) Range(start, end string) (Range, error) {
	return ParseRange(start, end, s.loc)
}

func (s *Service) Total(ctx context.Context, start, end string) (int, error) {
	r, err := s.Range(start, end)
	if err != nil {
		return 0, err
	}
	return s.store.Total(ctx, r)
}

func (s *Service) ByArea(ctx context.Context, start, end string) ([]AreaCount, error) {
	r, err := s.Range(start, end)
	if err != nil {
		return nil, err
	}
	return s.store.ByArea(ctx, r)
}

func (s *Service) ByInstitutionStatus(ctx context.Context, start, end string) ([]InstitutionStatusCount, error) {
	r, err := s.Range(start, end)
	if err != nil {
		return nil, err
	}
	return s.store.ByInstitutionStatus(ctx, r)
}

func (s *Service) ByInstitutionArea(ctx context.Context, start, end string) ([]InstitutionAreaCount, error) {
	r, err := s.Range(start, end)
	if err != nil {
		return nil, err
	}
	return s.store.ByInstitutionArea(ctx, r)
}

func (s *Service) ByAreaDay(ctx context.Context, start, end string) ([]AreaDayCount, error) {
	r, err := s.Range(start, end)
	if err != nil {
		return nil, err
	}
	return s.store.ByAreaDay(ctx, r)
}

func (s *Service) Resolution(ctx context.Context, start, end string) (*Resolution, error) {
	r, err := s.Range(start, end)
	if err != nil {
		return nil, err
	}
	res, err := s.resolution(ctx, r)
	if err != nil {
		return nil, err
	}
	rounded := res.Rounded()
	return &rounded, nil
}

func (s *Service) resolution(ctx context.Context, r Range) (*Resolution, error) {
	var (
		res Resolution
		err error
	)
	if res.Hours, err = s.store.AvgResolutionHours(ctx, r); err != nil {
		return nil, err
	}
	if res.ByArea, err = s.store.ResolutionByArea(ctx, r); err != nil {
		return nil, err
	}
	if res.ByInstitution, err = s.store.ResolutionByInstitution(ctx, r); err != nil {
		return nil, err
	}
	return &res, nil
}

// Portal summarises patient portal clicks in the range.
func (s *Service) Portal(ctx context.Context, start, end string) (*PortalActivity, error) {
	r, err := s.Range(start, end)
	if err != nil {
		return nil, err
	}
	events, err := s.store.PortalEvents(ctx, r)
	if err != nil {
		return nil, err
	}
	activity := SummarizePortal(events)
	return &activity, nil
}

// Dashboard computes every grouping over the same range.
func (s *Service) Dashboard(ctx context.Context, start, end string) (*Dashboard, error) {
	r, err := s.Range(start, end)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{StartDate: r.StartDate, EndDate: r.EndDate, Timezone: s.loc.String()}
	if d.Total, err = s.store.Total(ctx, r); err != nil {
		return nil, err
	}
	if d.ByArea, err = s.store.ByArea(ctx, r); err != nil {
		return nil, err
	}
	if d.ByInstitutionStatus, err = s.store.ByInstitutionStatus(ctx, r); err != nil {
		return nil, err
	}
	if d.ByInstitutionArea, err = s.store.ByInstitutionArea(ctx, r); err != nil {
		return nil, err
	}
	if d.ByAreaDay, err = s.store.ByAreaDay(ctx, r); err != nil {
		return nil, err
	}
	res, err := s.resolution(ctx, r)
	if err != nil {
		return nil, err
	}
	d.Resolution = *res
	events, err := s.store.PortalEvents(ctx, r)
	if err != nil {
		return nil, err
	}
	d.Portal = SummarizePortal(events)

	s.logger.Debug().
		Str("start_date", r.StartDate).
		Str("end_date", r.EndDate).
		Int("total", d.Total).
		Int("portal_sessions", d.Portal.Sessions).
		Msg("dashboard computed")
	return d, nil
}

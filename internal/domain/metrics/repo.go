package metrics

import "context"

// Store runs the aggregate queries. Request queries count requests whose
// created_at falls inside the range; PortalEvents returns the raw clicks in
// the range for SummarizePortal.
type Store interface {
	Total(ctx context.Context, r Range) (int, error)
	ByArea(ctx context.Context, r Range) ([]AreaCount, error)
	ByInstitutionStatus(ctx context.Context, r Range) ([]InstitutionStatusCount, error)
	ByInstitutionArea(ctx context.Context, r Range) ([]InstitutionAreaCount, error)
	ByAreaDay(ctx context.Context, r Range) ([]AreaDayCount, error)
	AvgResolutionHours(ctx context.Context, r Range) (float64, error)
	ResolutionByArea(ctx context.Context, r Range) ([]AreaResolution, error)
	ResolutionByInstitution(ctx context.Context, r Range) ([]InstitutionResolution, error)
	PortalEvents(ctx context.Context, r Range) ([]PortalEvent, error)
}

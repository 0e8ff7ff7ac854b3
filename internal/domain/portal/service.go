package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/location"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

const (
	maxCode    = 120
	maxLabel   = 160
	maxCat     = 60
	maxPath    = 160
	maxToken   = 64
	maxSession = 64
)

// BedLookup attaches clicks to beds.
type BedLookup interface {
	GetBed(ctx context.Context, id uuid.UUID) (*location.Bed, error)
	GetBedByToken(ctx context.Context, token string) (*location.Bed, error)
}

type Service struct {
	repo   Repository
	beds   BedLookup
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, beds BedLookup, logger zerolog.Logger) *Service {
	return &Service{repo: repo, beds: beds, logger: logger, now: time.Now}
}

// Record stores one portal click. A bed id must name an existing bed; a QR
// token that matches no bed is kept as sent without a bed.
func (s *Service) Record(ctx context.Context, in ClickInput) (*Event, error) {
	code := strings.TrimSpace(in.ButtonCode)
	if code == "" {
		return nil, apperr.Validation("button_code is required")
	}
	if utf8.RuneCountInString(code) > maxCode {
		return nil, apperr.Validation("button_code exceeds %d characters", maxCode)
	}

	e := &Event{ButtonCode: code, ClickedAt: s.now().UTC().Truncate(time.Microsecond)}
	for _, f := range []struct {
		name string
		raw  string
		max  int
		dst  **string
	}{
		{"button_label", in.ButtonLabel, maxLabel, &e.ButtonLabel},
		{"category", in.Category, maxCat, &e.Category},
		{"source_path", in.SourcePath, maxPath, &e.SourcePath},
		{"target_path", in.TargetPath, maxPath, &e.TargetPath},
		{"qr_token", in.QRToken, maxToken, &e.QRToken},
		{"portal_session_id", in.SessionID, maxSession, &e.SessionID},
	} {
		v := strings.TrimSpace(f.raw)
		if v == "" {
			continue
		}
		if utf8.RuneCountInString(v) > f.max {
			return nil, apperr.Validation("%s exceeds %d characters", f.name, f.max)
		}
		*f.dst = &v
	}

	payload, err := objectPayload(in.Payload)
	if err != nil {
		return nil, err
	}
	e.Payload = payload

	if err := s.attachBed(ctx, e, in.BedID); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, err
	}

	ev := s.logger.Debug().Str("button_code", e.ButtonCode)
	if e.BedID != nil {
		ev = ev.Str("bed_id", e.BedID.String())
	}
	ev.Msg("portal click recorded")
	return e, nil
}

func (s *Service) attachBed(ctx context.Context, e *Event, bedID *uuid.UUID) error {
	if bedID != nil && *bedID != uuid.Nil {
		bed, err := s.beds.GetBed(ctx, *bedID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("bed %s does not exist", *bedID)
		}
		if err != nil {
			return err
		}
		e.BedID = &bed.ID
		return nil
	}
	if e.QRToken == nil {
		return nil
	}
	bed, err := s.beds.GetBedByToken(ctx, *e.QRToken)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	e.BedID = &bed.ID
	return nil
}

// objectPayload accepts a JSON object or nothing.
func objectPayload(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apperr.Validation("payload must be a JSON object")
	}
	return raw, nil
}

package portal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/location"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

type fakeBeds struct {
	byID    map[uuid.UUID]*location.Bed
	byToken map[string]*location.Bed
	err     error
}

func newFakeBeds(beds ...*location.Bed) *fakeBeds {
	f := &fakeBeds{byID: map[uuid.UUID]*location.Bed{}, byToken: map[string]*location.Bed{}}
	for _, b := range beds {
		f.byID[b.ID] = b
		f.byToken[b.QRToken] = b
	}
	return f
}

func (f *fakeBeds) GetBed(_ context.Context, id uuid.UUID) (*location.Bed, error) {
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.byID[id]; ok {
		return b, nil
	}
	return nil, apperr.NotFound("bed not found")
}

func (f *fakeBeds) GetBedByToken(_ context.Context, token string) (*location.Bed, error) {
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.byToken[token]; ok {
		return b, nil
	}
	return nil, apperr.NotFound("bed not found")
}

type mockRepo struct {
	events []*Event
	err    error
}

func (m *mockRepo) Insert(_ context.Context, e *Event) error {
	if m.err != nil {
		return m.err
	}
	e.ID = uuid.New()
	m.events = append(m.events, e)
	return nil
}

var demoBed = &location.Bed{ID: uuid.New(), Label: "A", QRToken: "H1-101-A", Active: true}

func newTestService() (*Service, *mockRepo, *fakeBeds) {
	repo := &mockRepo{}
	beds := newFakeBeds(demoBed)
	svc := NewService(repo, beds, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC) }
	return svc, repo, beds
}

func TestRecord_TrimsAndBlanksOptional(t *testing.T) {
	svc, repo, _ := newTestService()
	e, err := svc.Record(context.Background(), ClickInput{
		ButtonCode:  "  info_meals ",
		ButtonLabel: " Meals ",
		Category:    "   ",
		TargetPath:  "/info/meals",
		SessionID:   " s-1 ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == uuid.Nil || len(repo.events) != 1 {
		t.Fatalf("expected one stored event, got %d", len(repo.events))
	}
	if e.ButtonCode != "info_meals" || *e.ButtonLabel != "Meals" || *e.SessionID != "s-1" {
		t.Errorf("expected trimmed values, got %q %q %q", e.ButtonCode, *e.ButtonLabel, *e.SessionID)
	}
	if e.Category != nil || e.SourcePath != nil || e.QRToken != nil {
		t.Errorf("blank optional fields must be nil: %+v", e)
	}
	if !e.ClickedAt.Equal(time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("clicked_at = %v", e.ClickedAt)
	}
}

func TestRecord_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   ClickInput
	}{
		{"missing code", ClickInput{}},
		{"blank code", ClickInput{ButtonCode: "   "}},
		{"long code", ClickInput{ButtonCode: strings.Repeat("x", 121)}},
		{"long label", ClickInput{ButtonCode: "b", ButtonLabel: strings.Repeat("x", 161)}},
		{"long category", ClickInput{ButtonCode: "b", Category: strings.Repeat("x", 61)}},
		{"long path", ClickInput{ButtonCode: "b", TargetPath: strings.Repeat("x", 161)}},
		{"long token", ClickInput{ButtonCode: "b", QRToken: strings.Repeat("x", 65)}},
		{"long session", ClickInput{ButtonCode: "b", SessionID: strings.Repeat("x", 65)}},
		{"array payload", ClickInput{ButtonCode: "b", Payload: []byte(`[1,2]`)}},
		{"unknown bed", ClickInput{ButtonCode: "b", BedID: func() *uuid.UUID { id := uuid.New(); return &id }()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()
			_, err := svc.Record(context.Background(), tt.in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(repo.events) != 0 {
				t.Errorf("nothing should be stored")
			}
		})
	}
}

func TestRecord_LimitsCountCharacters(t *testing.T) {
	svc, _, _ := newTestService()
	label := strings.Repeat("ñ", maxLabel)
	if _, err := svc.Record(context.Background(), ClickInput{ButtonCode: "b", ButtonLabel: label}); err != nil {
		t.Fatalf("160 two-byte characters should fit: %v", err)
	}
}

func TestRecord_AttachesBed(t *testing.T) {
	ctx := context.Background()

	t.Run("by id", func(t *testing.T) {
		svc, _, _ := newTestService()
		e, err := svc.Record(ctx, ClickInput{ButtonCode: "b", BedID: &demoBed.ID})
		if err != nil || e.BedID == nil || *e.BedID != demoBed.ID {
			t.Fatalf("expected bed attached, got %v / %v", e, err)
		}
	})
	t.Run("by token", func(t *testing.T) {
		svc, _, _ := newTestService()
		e, err := svc.Record(ctx, ClickInput{ButtonCode: "b", QRToken: " H1-101-A "})
		if err != nil || e.BedID == nil || *e.BedID != demoBed.ID {
			t.Fatalf("expected bed from token, got %v / %v", e, err)
		}
		if *e.QRToken != "H1-101-A" {
			t.Errorf("qr_token = %q", *e.QRToken)
		}
	})
	t.Run("unknown token kept without bed", func(t *testing.T) {
		svc, repo, _ := newTestService()
		e, err := svc.Record(ctx, ClickInput{ButtonCode: "b", QRToken: "gone"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.BedID != nil || *e.QRToken != "gone" || len(repo.events) != 1 {
			t.Errorf("expected stored click without bed, got %+v", e)
		}
	})
	t.Run("lookup failure", func(t *testing.T) {
		svc, _, beds := newTestService()
		beds.err = errors.New("pool closed")
		if _, err := svc.Record(ctx, ClickInput{ButtonCode: "b", QRToken: "H1-101-A"}); err == nil || err.Error() != "pool closed" {
			t.Fatalf("expected lookup error, got %v", err)
		}
	})
}

func TestRecord_Payload(t *testing.T) {
	svc, _, _ := newTestService()
	e, err := svc.Record(context.Background(), ClickInput{ButtonCode: "b", Payload: []byte(` {"lang":"es"} `)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(e.Payload) != `{"lang":"es"}` {
		t.Errorf("payload = %s", e.Payload)
	}

	e, err = svc.Record(context.Background(), ClickInput{ButtonCode: "b", Payload: []byte(`null`)})
	if err != nil || e.Payload != nil {
		t.Errorf("null payload should be dropped, got %s / %v", e.Payload, err)
	}
}

func TestRecord_RepoError(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.err = errors.New("insert failed")
	if _, err := svc.Record(context.Background(), ClickInput{ButtonCode: "b"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecord_LogsBed(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(&mockRepo{}, newFakeBeds(demoBed), zerolog.New(&buf))
	if _, err := svc.Record(context.Background(), ClickInput{ButtonCode: "b", BedID: &demoBed.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), demoBed.ID.String()) || !strings.Contains(buf.String(), "portal click recorded") {
		t.Errorf("log = %q", buf.String())
	}
}

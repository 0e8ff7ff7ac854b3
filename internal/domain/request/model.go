package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

// Status is the lifecycle state of a request.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusClosed
)

var statusLiterals = [...]string{
	StatusPending:    "PENDING",
	StatusInProgress: "IN_PROGRESS",
	StatusClosed:     "CLOSED",
}

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusClosed}

// statusAliases maps normalized input to a status. The Spanish literals were
// written by earlier deployments and still show up in stored data and clients.
var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"in_progress": StatusInProgress,
	"closed":      StatusClosed,
	"pendiente":   StatusPending,
	"en_proceso":  StatusInProgress,
	"in_progreso": StatusInProgress,
	"cerrada":     StatusClosed,
}

// ParseStatus accepts any case, surrounding whitespace, and spaces or hyphens
// in place of underscores.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if norm == "" {
		return 0, apperr.Validation("status must not be empty")
	}
	st, ok := statusAliases[norm]
	if !ok {
		return 0, apperr.Validation("invalid status %q, allowed values: PENDING, IN_PROGRESS, CLOSED", s)
	}
	return st, nil
}

// String returns the wire literal.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusLiterals) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusLiterals[s]
}

func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusLiterals) {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(statusLiterals[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Request is a service ticket filed against a bed and routed to an area.
// ClosedAt is set exactly when Status is StatusClosed.
type Request struct {
	ID             uuid.UUID  `json:"id"`
	BedID          uuid.UUID  `json:"bed_id"`
	AreaID         uuid.UUID  `json:"area_id"`
	RequestType    string     `json:"request_type"`
	Description    string     `json:"description"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ClosedAt       *time.Time `json:"closed_at"`
	RequesterName  *string    `json:"requester_name,omitempty"`
	RequesterEmail *string    `json:"requester_email,omitempty"`

	// Read-only location details filled in by the repository.
	AreaName        string    `json:"area_name,omitempty"`
	BedLabel        string    `json:"bed_label,omitempty"`
	QRToken         string    `json:"qr_token,omitempty"`
	RoomID          uuid.UUID `json:"room_id"`
	RoomName        string    `json:"room_name,omitempty"`
	InstitutionID   uuid.UUID `json:"institution_id"`
	InstitutionName string    `json:"institution_name,omitempty"`
}

// Apply moves r to status to at time now. It reports false and leaves r
// untouched when r is already in that status.
func Apply(r *Request, to Status, now time.Time) bool {
	if r.Status == to {
		return false
	}
	if now.Before(r.CreatedAt) {
		now = r.CreatedAt
	}
	r.Status = to
	r.UpdatedAt = now
	if to == StatusClosed {
		closed := now
		r.ClosedAt = &closed
	} else {
		r.ClosedAt = nil
	}
	return true
}

// CreateInput is the payload a visitor submits after scanning a bed. Either
// BedID or QRToken identifies the bed; either AreaID or AreaName the area.
type CreateInput struct {
	BedID          *uuid.UUID `json:"bed_id"`
	QRToken        string     `json:"qr_token"`
	AreaID         *uuid.UUID `json:"area_id"`
	AreaName       string     `json:"area_name"`
	RequestType    string     `json:"request_type"`
	Description    string     `json:"description"`
	RequesterName  string     `json:"requester_name"`
	RequesterEmail string     `json:"requester_email"`
}

// Filter narrows a listing. Nil fields do not filter; set fields are ANDed.
type Filter struct {
	Status        *Status
	InstitutionID *uuid.UUID
	RoomID        *uuid.UUID
	BedID         *uuid.UUID
	AreaID        *uuid.UUID
}

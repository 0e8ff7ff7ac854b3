package portal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ClickInput is what the patient portal posts for each button press. Every
// field except ButtonCode is optional.
type ClickInput struct {
	ButtonCode  string          `json:"button_code"`
	ButtonLabel string          `json:"button_label"`
	Category    string          `json:"category"`
	SourcePath  string          `json:"source_path"`
	TargetPath  string          `json:"target_path"`
	BedID       *uuid.UUID      `json:"bed_id"`
	QRToken     string          `json:"qr_token"`
	SessionID   string          `json:"portal_session_id"`
	Payload     json.RawMessage `json:"payload"`
}

// Event is a stored click. Blank optional strings are stored as NULL.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	ButtonCode  string          `json:"button_code"`
	ButtonLabel *string         `json:"button_label,omitempty"`
	Category    *string         `json:"category,omitempty"`
	SourcePath  *string         `json:"source_path,omitempty"`
	TargetPath  *string         `json:"target_path,omitempty"`
	BedID       *uuid.UUID      `json:"bed_id,omitempty"`
	QRToken     *string         `json:"qr_token,omitempty"`
	SessionID   *string         `json:"portal_session_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	ClickedAt   time.Time       `json:"clicked_at"`
}

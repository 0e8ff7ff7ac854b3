package location

import "github.com/google/uuid"

type Institution struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Building struct {
	ID            uuid.UUID `json:"id"`
	InstitutionID uuid.UUID `json:"institution_id"`
	Name          string    `json:"name"`
}

type Floor struct {
	ID         uuid.UUID `json:"id"`
	BuildingID uuid.UUID `json:"building_id"`
	Number     int       `json:"number"`
}

// ClinicalService is a clinical department such as Cardiology. It is
// attached to rooms, never to requests.
type ClinicalService struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Room struct {
	ID        uuid.UUID `json:"id"`
	FloorID   uuid.UUID `json:"floor_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Name      string    `json:"name"`
}

// Bed is the unit a QR code points at. QRToken is globally unique and never
// changes after creation.
type Bed struct {
	ID      uuid.UUID `json:"id"`
	RoomID  uuid.UUID `json:"room_id"`
	Label   string    `json:"label"`
	QRToken string    `json:"qr_token"`
	Active  bool      `json:"active"`
}

// BedContext is a bed with its whole location chain, for display after a scan.
type BedContext struct {
	Institution Institution     `json:"institution"`
	Building    Building        `json:"building"`
	Floor       Floor           `json:"floor"`
	Room        Room            `json:"room"`
	Service     ClinicalService `json:"service"`
	Bed         Bed             `json:"bed"`
}

const (
	ReasonNotFound = "not_found"
	ReasonInactive = "inactive"
)

// Resolution is the outcome of looking a bed up by QR token. Context is set
// only when OK.
type Resolution struct {
	OK      bool        `json:"ok"`
	Code    string      `json:"code"`
	Reason  string      `json:"reason,omitempty"`
	Context *BedContext `json:"context,omitempty"`
}

type CreateRoomInput struct {
	FloorID   uuid.UUID `json:"floor_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Name      string    `json:"name"`
}

type CreateBedInput struct {
	RoomID  uuid.UUID `json:"room_id"`
	Label   string    `json:"label"`
	QRToken string    `json:"qr_token,omitempty"`
}

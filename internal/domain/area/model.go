package area

import "github.com/google/uuid"

// Area is an operational team that receives requests, e.g. Maintenance or
// Cleaning. Names are unique ignoring case.
type Area struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

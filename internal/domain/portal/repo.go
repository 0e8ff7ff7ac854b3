package portal

import "context"

type Repository interface {
	// Insert assigns the event its id.
	Insert(ctx context.Context, e *Event) error
}

package audit

import "context"

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can list events back.
type Reader interface {
	ListByOrganization(ctx context.Context, orgID string) ([]Event, error)
}

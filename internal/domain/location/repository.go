package location

import "context"

type LocationRepository interface {
	Create(ctx context.Context, loc Location) (Location, error)
	GetByID(ctx context.Context, id string) (Location, error)
	Update(ctx context.Context, loc Location) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context) ([]Location, error)

	// ListActive returns the authorized geofences. Geofence validation treats
	// the returned set as read-only within a single call.
	ListActive(ctx context.Context) ([]Location, error)
}

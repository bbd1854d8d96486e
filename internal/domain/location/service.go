package location

import "context"

// LocationService manages authorized attendance sites (admin only).
type LocationService interface {
	Create(ctx context.Context, req CreateLocationRequest) (LocationResponse, error)
	Update(ctx context.Context, req UpdateLocationRequest) (LocationResponse, error)

	// Deactivate soft-deletes a site. Historical attendance keeps referencing it.
	Deactivate(ctx context.Context, id string) error

	Get(ctx context.Context, id string) (LocationResponse, error)
	List(ctx context.Context) ([]LocationResponse, error)
}

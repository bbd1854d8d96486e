package location

import (
	"context"
	"log/slog"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/location"
)

type LocationServiceImpl struct {
	locationRepo location.LocationRepository
	queryTimeout time.Duration
}

func NewLocationService(locationRepo location.LocationRepository, queryTimeout time.Duration) location.LocationService {
	return &LocationServiceImpl{
		locationRepo: locationRepo,
		queryTimeout: queryTimeout,
	}
}

func (s *LocationServiceImpl) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Create implements location.LocationService.
func (s *LocationServiceImpl) Create(ctx context.Context, req location.CreateLocationRequest) (location.LocationResponse, error) {
	if err := req.Validate(); err != nil {
		return location.LocationResponse{}, err
	}

	loc := location.Location{
		Name:         req.Name,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		WorkingHours: req.WorkingHours,
		Active:       true,
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	created, err := s.locationRepo.Create(qctx, loc)
	if err != nil {
		return location.LocationResponse{}, err
	}

	slog.Info("attendance location created", "location_id", created.ID, "name", created.Name)

	return toLocationResponse(created), nil
}

// Update implements location.LocationService. Edits never rewrite history:
// attendance validity was computed against the geofence as it stood at
// check-in time.
func (s *LocationServiceImpl) Update(ctx context.Context, req location.UpdateLocationRequest) (location.LocationResponse, error) {
	if err := req.Validate(); err != nil {
		return location.LocationResponse{}, err
	}

	qctx, cancel := s.queryCtx(ctx)
	loc, err := s.locationRepo.GetByID(qctx, req.ID)
	cancel()
	if err != nil {
		return location.LocationResponse{}, err
	}

	loc.Name = req.Name
	loc.Address = req.Address
	loc.Latitude = req.Latitude
	loc.Longitude = req.Longitude
	loc.RadiusMeters = req.RadiusMeters
	loc.WorkingHours = req.WorkingHours

	qctx, cancel = s.queryCtx(ctx)
	defer cancel()

	if err := s.locationRepo.Update(qctx, loc); err != nil {
		return location.LocationResponse{}, err
	}

	updated, err := s.locationRepo.GetByID(qctx, req.ID)
	if err != nil {
		return location.LocationResponse{}, err
	}

	return toLocationResponse(updated), nil
}

// Deactivate implements location.LocationService.
func (s *LocationServiceImpl) Deactivate(ctx context.Context, id string) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	if err := s.locationRepo.SetActive(qctx, id, false); err != nil {
		return err
	}

	slog.Info("attendance location deactivated", "location_id", id)
	return nil
}

// Get implements location.LocationService.
func (s *LocationServiceImpl) Get(ctx context.Context, id string) (location.LocationResponse, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	loc, err := s.locationRepo.GetByID(qctx, id)
	if err != nil {
		return location.LocationResponse{}, err
	}

	return toLocationResponse(loc), nil
}

// List implements location.LocationService.
func (s *LocationServiceImpl) List(ctx context.Context) ([]location.LocationResponse, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	locations, err := s.locationRepo.List(qctx)
	if err != nil {
		return nil, err
	}

	responses := make([]location.LocationResponse, 0, len(locations))
	for _, loc := range locations {
		responses = append(responses, toLocationResponse(loc))
	}

	return responses, nil
}

func toLocationResponse(loc location.Location) location.LocationResponse {
	return location.LocationResponse{
		ID:           loc.ID,
		Name:         loc.Name,
		Address:      loc.Address,
		Latitude:     loc.Latitude,
		Longitude:    loc.Longitude,
		RadiusMeters: loc.RadiusMeters,
		WorkingHours: loc.WorkingHours,
		Active:       loc.Active,
		CreatedAt:    loc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    loc.UpdatedAt.Format(time.RFC3339),
	}
}

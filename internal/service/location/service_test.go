package location

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/location"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocationRepo struct {
	mu    sync.Mutex
	seq   int
	sites map[string]location.Location
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{sites: make(map[string]location.Location)}
}

func (f *fakeLocationRepo) Create(_ context.Context, loc location.Location) (location.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	loc.ID = fmt.Sprintf("loc-%d", f.seq)
	f.sites[loc.ID] = loc
	return loc, nil
}

func (f *fakeLocationRepo) GetByID(_ context.Context, id string) (location.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.sites[id]
	if !ok {
		return location.Location{}, location.ErrLocationNotFound
	}
	return loc, nil
}

func (f *fakeLocationRepo) Update(_ context.Context, loc location.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sites[loc.ID]; !ok {
		return location.ErrLocationNotFound
	}
	f.sites[loc.ID] = loc
	return nil
}

func (f *fakeLocationRepo) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.sites[id]
	if !ok {
		return location.ErrLocationNotFound
	}
	loc.Active = active
	f.sites[id] = loc
	return nil
}

func (f *fakeLocationRepo) List(_ context.Context) ([]location.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []location.Location
	for _, loc := range f.sites {
		result = append(result, loc)
	}
	return result, nil
}

func (f *fakeLocationRepo) ListActive(_ context.Context) ([]location.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []location.Location
	for _, loc := range f.sites {
		if loc.Active {
			result = append(result, loc)
		}
	}
	return result, nil
}

func validCreateRequest() location.CreateLocationRequest {
	return location.CreateLocationRequest{
		Name:         "Main Cafe",
		Address:      "Jl. Sudirman 1",
		Latitude:     -6.2,
		Longitude:    106.8,
		RadiusMeters: 100,
		WorkingHours: location.WorkingHours{Start: "09:00", End: "21:00", Weekdays: []int{1, 2, 3, 4, 5}},
	}
}

func TestCreateLocation(t *testing.T) {
	svc := NewLocationService(newFakeLocationRepo(), 5*time.Second)

	resp, err := svc.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.Active)
	assert.Equal(t, 100.0, resp.RadiusMeters)
}

func TestCreateLocationRejectsNonPositiveRadius(t *testing.T) {
	svc := NewLocationService(newFakeLocationRepo(), 5*time.Second)

	for _, radius := range []float64{0, -10} {
		req := validCreateRequest()
		req.RadiusMeters = radius

		_, err := svc.Create(context.Background(), req)

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs, "radius %v", radius)
		assert.Contains(t, verrs.ToMap(), "radius_meters")
	}
}

func TestCreateLocationRejectsBadCoordinates(t *testing.T) {
	svc := NewLocationService(newFakeLocationRepo(), 5*time.Second)

	req := validCreateRequest()
	req.Latitude = 91
	req.Longitude = -181

	_, err := svc.Create(context.Background(), req)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "latitude")
	assert.Contains(t, verrs.ToMap(), "longitude")
}

func TestUpdateUnknownLocation(t *testing.T) {
	svc := NewLocationService(newFakeLocationRepo(), 5*time.Second)

	req := location.UpdateLocationRequest{
		ID:           "loc-missing",
		Name:         "Renamed",
		Latitude:     -6.2,
		Longitude:    106.8,
		RadiusMeters: 50,
	}

	_, err := svc.Update(context.Background(), req)
	assert.ErrorIs(t, err, location.ErrLocationNotFound)
}

func TestDeactivateHidesFromActiveList(t *testing.T) {
	repo := newFakeLocationRepo()
	svc := NewLocationService(repo, 5*time.Second)

	created, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	active, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	// Still visible on the full listing for history.
	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}

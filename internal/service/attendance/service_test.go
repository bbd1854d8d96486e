package attendance

import (
	"context"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/attendance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/location"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/clock"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/geo"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cafeLat = -6.2000
	cafeLon = 106.8000
)

// wib is the deployment timezone used throughout these tests (UTC+7).
var wib = time.FixedZone("WIB", 7*3600)

type fakeAttendanceRepo struct {
	mu   sync.Mutex
	seq  int
	recs map[string]attendance.Attendance
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{recs: make(map[string]attendance.Attendance)}
}

func (f *fakeAttendanceRepo) Create(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.recs {
		if r.UserID == att.UserID && r.Date.Equal(att.Date) {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
	}

	f.seq++
	att.ID = fmt.Sprintf("att-%d", f.seq)
	f.recs[att.ID] = att
	return att, nil
}

func (f *fakeAttendanceRepo) GetByID(_ context.Context, id string) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.recs[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

func (f *fakeAttendanceRepo) GetByUserAndDate(_ context.Context, userID string, date time.Time) (*attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.recs {
		if r.UserID == userID && r.Date.Equal(date) {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) CompleteCheckOut(_ context.Context, id string, out time.Time, lat, lon float64, photoURL string, workMinutes int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.recs[id]
	if !ok || rec.CheckOutTime != nil {
		return false, nil
	}

	rec.CheckOutTime = &out
	rec.CheckOutLatitude = &lat
	rec.CheckOutLongitude = &lon
	rec.CheckOutPhotoURL = &photoURL
	rec.WorkMinutes = &workMinutes
	f.recs[id] = rec
	return true, nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []attendance.Attendance
	for _, r := range f.recs {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		result = append(result, r)
	}
	return result, int64(len(result)), nil
}

func (f *fakeAttendanceRepo) CountValidDays(_ context.Context, userID string, month, year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, r := range f.recs {
		if r.UserID == userID && int(r.Date.Month()) == month && r.Date.Year() == year &&
			r.IsValid && r.CheckOutTime != nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttendanceRepo) ListForPeriod(_ context.Context, month, year int) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []attendance.Attendance
	for _, r := range f.recs {
		if int(r.Date.Month()) == month && r.Date.Year() == year {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeAttendanceRepo) FindOpenBefore(_ context.Context, date time.Time) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []attendance.Attendance
	for _, r := range f.recs {
		if r.CheckOutTime == nil && r.Date.Before(date) &&
			(r.Notes == nil || !strings.Contains(*r.Notes, "missing check-out")) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeAttendanceRepo) AppendNote(_ context.Context, id string, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.recs[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	if rec.Notes == nil || *rec.Notes == "" {
		rec.Notes = &note
	} else {
		joined := *rec.Notes + "; " + note
		rec.Notes = &joined
	}
	f.recs[id] = rec
	return nil
}

type fakeLocationRepo struct {
	sites []location.Location
}

func (f *fakeLocationRepo) Create(_ context.Context, loc location.Location) (location.Location, error) {
	return loc, nil
}

func (f *fakeLocationRepo) GetByID(_ context.Context, id string) (location.Location, error) {
	for _, s := range f.sites {
		if s.ID == id {
			return s, nil
		}
	}
	return location.Location{}, location.ErrLocationNotFound
}

func (f *fakeLocationRepo) Update(_ context.Context, _ location.Location) error { return nil }

func (f *fakeLocationRepo) SetActive(_ context.Context, _ string, _ bool) error { return nil }

func (f *fakeLocationRepo) List(_ context.Context) ([]location.Location, error) {
	return f.sites, nil
}

func (f *fakeLocationRepo) ListActive(_ context.Context) ([]location.Location, error) {
	var active []location.Location
	for _, s := range f.sites {
		if s.Active {
			active = append(active, s)
		}
	}
	return active, nil
}

type fakeFileService struct {
	mu      sync.Mutex
	seq     int
	deleted []string
}

func (f *fakeFileService) UploadAttendanceProof(_ context.Context, userID string, _ time.Time, _ io.Reader, _ string, kind string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("attendance/%s/%s-%d.jpg", userID, kind, f.seq), nil
}

func (f *fakeFileService) DeleteFile(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeFileService) GetFileURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return path, nil
}

func (f *fakeFileService) uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

func cafeSite() location.Location {
	return location.Location{
		ID:           "loc-cafe",
		Name:         "Main Cafe",
		Latitude:     cafeLat,
		Longitude:    cafeLon,
		RadiusMeters: 100,
		Active:       true,
	}
}

func newTestService(clk clock.Clock, sites ...location.Location) (attendance.AttendanceService, *fakeAttendanceRepo, *fakeFileService) {
	repo := newFakeAttendanceRepo()
	files := &fakeFileService{}
	svc := NewAttendanceService(repo, &fakeLocationRepo{sites: sites}, files, clk, wib, 5*time.Second)
	return svc, repo, files
}

func checkInReq(userID string, lat, lon, accuracy float64) attendance.CheckInRequest {
	return attendance.CheckInRequest{
		UserID:         userID,
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: accuracy,
		FileHeader:     &multipart.FileHeader{Filename: "proof.jpg", Size: 1024},
	}
}

func checkOutReq(userID string, lat, lon float64) attendance.CheckOutRequest {
	return attendance.CheckOutRequest{
		UserID:         userID,
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: 5,
		FileHeader:     &multipart.FileHeader{Filename: "proof.jpg", Size: 1024},
	}
}

// metersNorth shifts a latitude the given distance due north.
func metersNorth(lat, meters float64) float64 {
	return lat + meters/geo.EarthRadiusMeters*180/math.Pi
}

func TestCheckInWithinGeofence(t *testing.T) {
	// 09:00 WIB on 2026-04-06.
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clk, cafeSite())

	resp, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))

	require.NoError(t, err)
	assert.True(t, resp.IsValid)
	assert.Equal(t, "2026-04-06", resp.Date)
	require.NotNil(t, resp.NearestLocationID)
	assert.Equal(t, "loc-cafe", *resp.NearestLocationID)
	assert.NotEmpty(t, resp.CheckInPhotoURL)
}

func TestCheckInOutsideGeofenceRecordedButFlagged(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, repo, _ := newTestService(clk, cafeSite())

	resp, err := svc.CheckIn(context.Background(), checkInReq("user-1", metersNorth(cafeLat, 500), cafeLon, 5))

	require.NoError(t, err)
	assert.False(t, resp.IsValid)

	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsValid)
	require.NotNil(t, stored.DistanceMeters)
	assert.InDelta(t, 500, *stored.DistanceMeters, 1)
}

func TestCheckInFailsOpenWithoutSites(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clk)

	resp, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))

	require.NoError(t, err)
	assert.True(t, resp.IsValid)
	assert.Nil(t, resp.NearestLocationID)
}

func TestCheckInRejectsInvalidCoordinates(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, files := newTestService(clk, cafeSite())

	_, err := svc.CheckIn(context.Background(), checkInReq("user-1", 95, 200, 5))

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Zero(t, files.uploads())
}

func TestCheckInTwiceSameDay(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, files := newTestService(clk, cafeSite())

	_, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	// The duplicate was stopped before uploading another proof.
	assert.Equal(t, 1, files.uploads())
}

func TestConcurrentCheckInsOneWinner(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clk, cafeSite())

	const workers = 8
	results := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestCheckOutComputesWorkMinutes(t *testing.T) {
	// In at 09:00 WIB, out at 18:15 WIB: 555 minutes.
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clk, cafeSite())

	_, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))
	require.NoError(t, err)

	clk.Instant = clk.Instant.Add(9*time.Hour + 15*time.Minute)

	resp, err := svc.CheckOut(context.Background(), checkOutReq("user-1", cafeLat, cafeLon))
	require.NoError(t, err)
	require.NotNil(t, resp.WorkMinutes)
	assert.Equal(t, 555, *resp.WorkMinutes)
	require.NotNil(t, resp.CheckOutTime)
	assert.NotNil(t, resp.CheckOutPhotoURL)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clk, cafeSite())

	_, err := svc.CheckOut(context.Background(), checkOutReq("user-1", cafeLat, cafeLon))

	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
}

func TestCheckOutTwice(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, files := newTestService(clk, cafeSite())

	_, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))
	require.NoError(t, err)

	clk.Instant = clk.Instant.Add(8 * time.Hour)

	_, err = svc.CheckOut(context.Background(), checkOutReq("user-1", cafeLat, cafeLon))
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), checkOutReq("user-1", cafeLat, cafeLon))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	assert.Empty(t, files.deleted)
}

func TestCheckOutGeofenceNotRevalidated(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, repo, _ := newTestService(clk, cafeSite())

	resp, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))
	require.NoError(t, err)
	assert.True(t, resp.IsValid)

	clk.Instant = clk.Instant.Add(8 * time.Hour)

	// Checking out far away keeps the record valid: only entry is gated.
	out, err := svc.CheckOut(context.Background(), checkOutReq("user-1", metersNorth(cafeLat, 5000), cafeLon))
	require.NoError(t, err)
	assert.True(t, out.IsValid)

	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsValid)
}

func TestDayBoundaryUsesDeploymentTimezone(t *testing.T) {
	// 17:30 UTC on March 1 is already 00:30 on March 2 in WIB.
	clk := &clock.Fixed{Instant: time.Date(2026, 3, 1, 17, 30, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clk, cafeSite())

	resp, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))

	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", resp.Date)
}

func TestCheckOutAfterMidnightLeavesDayOpen(t *testing.T) {
	// In at 23:00 WIB on March 1; the attempt at 00:30 WIB lands on March 2,
	// which has no open record. The overnight janitor flags the stale day.
	clk := &clock.Fixed{Instant: time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clk, cafeSite())

	_, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))
	require.NoError(t, err)

	clk.Instant = time.Date(2026, 3, 1, 17, 30, 0, 0, time.UTC)

	_, err = svc.CheckOut(context.Background(), checkOutReq("user-1", cafeLat, cafeLon))
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
}

func TestGetMyAttendanceScopesToUser(t *testing.T) {
	clk := &clock.Fixed{Instant: time.Date(2026, 4, 6, 2, 0, 0, 0, time.UTC)}
	svc, _, _ := newTestService(clk, cafeSite())

	_, err := svc.CheckIn(context.Background(), checkInReq("user-1", cafeLat, cafeLon, 5))
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), checkInReq("user-2", cafeLat, cafeLon, 5))
	require.NoError(t, err)

	mine, err := svc.GetMyAttendance(context.Background(), "user-1", attendance.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "user-1", mine.Items[0].UserID)

	all, err := svc.ListAttendance(context.Background(), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

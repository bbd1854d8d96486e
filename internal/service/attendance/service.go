package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/attendance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/location"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/clock"
	"github.com/cybercafe-ops/cafe-backend-go/internal/service/file"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	locationRepo   location.LocationRepository
	fileService    file.FileService
	clock          clock.Clock
	timezone       *time.Location
	queryTimeout   time.Duration
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	locationRepo location.LocationRepository,
	fileService file.FileService,
	clk clock.Clock,
	timezone *time.Location,
	queryTimeout time.Duration,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		locationRepo:   locationRepo,
		fileService:    fileService,
		clock:          clk,
		timezone:       timezone,
		queryTimeout:   queryTimeout,
	}
}

// dayOf maps an instant to its calendar day in the deployment timezone. Two
// check-ins at 23:59 and 00:01 local time land on different days regardless
// of what the client clock says.
func (s *AttendanceServiceImpl) dayOf(t time.Time) time.Time {
	local := t.In(s.timezone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *AttendanceServiceImpl) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now().UTC()
	date := s.dayOf(now)

	qctx, cancel := s.queryCtx(ctx)
	existing, err := s.attendanceRepo.GetByUserAndDate(qctx, req.UserID, date)
	cancel()
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if existing != nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedIn
	}

	qctx, cancel = s.queryCtx(ctx)
	sites, err := s.locationRepo.ListActive(qctx)
	cancel()
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	result := location.EvaluateGeofence(location.Coordinate{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
	}, sites)

	photoURL, err := s.fileService.UploadAttendanceProof(ctx, req.UserID, date, req.File, req.FileHeader.Filename, "check-in")
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att := attendance.Attendance{
		UserID:           req.UserID,
		Date:             date,
		CheckInTime:      now,
		CheckInLatitude:  req.Latitude,
		CheckInLongitude: req.Longitude,
		CheckInAccuracy:  req.AccuracyMeters,
		CheckInPhotoURL:  photoURL,
		IsValid:          result.IsValid,
	}
	if result.Nearest != nil {
		nearestID := result.Nearest.ID
		distance := result.DistanceMeters
		radius := result.EffectiveRadius
		att.NearestLocationID = &nearestID
		att.DistanceMeters = &distance
		att.EffectiveRadius = &radius
	}
	if req.Notes != "" {
		att.Notes = &req.Notes
	}

	qctx, cancel = s.queryCtx(ctx)
	created, err := s.attendanceRepo.Create(qctx, att)
	cancel()
	if err != nil {
		// The record was not stored; the uploaded proof is orphaned.
		if delErr := s.fileService.DeleteFile(ctx, photoURL); delErr != nil {
			slog.Warn("failed to remove orphaned check-in photo", "path", photoURL, "error", delErr)
		}
		return attendance.AttendanceResponse{}, err
	}

	if !result.IsValid && result.Nearest != nil {
		slog.Warn("check-in recorded outside geofence",
			"user_id", req.UserID,
			"nearest_location_id", result.Nearest.ID,
			"distance_meters", result.DistanceMeters,
			"effective_radius", result.EffectiveRadius,
		)
	}

	return s.toResponse(created), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now().UTC()
	date := s.dayOf(now)

	qctx, cancel := s.queryCtx(ctx)
	existing, err := s.attendanceRepo.GetByUserAndDate(qctx, req.UserID, date)
	cancel()
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if existing == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNotCheckedIn
	}
	if existing.CheckedOut() {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedOut
	}

	photoURL, err := s.fileService.UploadAttendanceProof(ctx, req.UserID, date, req.File, req.FileHeader.Filename, "check-out")
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	workMinutes := int(now.Sub(existing.CheckInTime).Minutes())

	qctx, cancel = s.queryCtx(ctx)
	ok, err := s.attendanceRepo.CompleteCheckOut(qctx, existing.ID, now, req.Latitude, req.Longitude, photoURL, workMinutes)
	cancel()
	if err != nil {
		if delErr := s.fileService.DeleteFile(ctx, photoURL); delErr != nil {
			slog.Warn("failed to remove orphaned check-out photo", "path", photoURL, "error", delErr)
		}
		return attendance.AttendanceResponse{}, err
	}
	if !ok {
		// A concurrent request won the conditional update.
		if delErr := s.fileService.DeleteFile(ctx, photoURL); delErr != nil {
			slog.Warn("failed to remove orphaned check-out photo", "path", photoURL, "error", delErr)
		}
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedOut
	}

	qctx, cancel = s.queryCtx(ctx)
	updated, err := s.attendanceRepo.GetByID(qctx, existing.ID)
	cancel()
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return s.toResponse(updated), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, userID string, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	filter.UserID = &userID
	return s.ListAttendance(ctx, filter)
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	items, total, err := s.attendanceRepo.List(qctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	responses := make([]attendance.AttendanceResponse, 0, len(items))
	for _, att := range items {
		responses = append(responses, s.toResponse(att))
	}

	return attendance.ListAttendanceResponse{
		Items:      responses,
		TotalItems: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *AttendanceServiceImpl) toResponse(att attendance.Attendance) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:                att.ID,
		UserID:            att.UserID,
		UserName:          att.UserName,
		Date:              att.Date.Format("2006-01-02"),
		CheckInTime:       att.CheckInTime.Format(time.RFC3339),
		CheckInLatitude:   att.CheckInLatitude,
		CheckInLongitude:  att.CheckInLongitude,
		CheckOutLatitude:  att.CheckOutLatitude,
		CheckOutLongitude: att.CheckOutLongitude,
		CheckInPhotoURL:   att.CheckInPhotoURL,
		CheckOutPhotoURL:  att.CheckOutPhotoURL,
		NearestLocationID: att.NearestLocationID,
		DistanceMeters:    att.DistanceMeters,
		WorkMinutes:       att.WorkMinutes,
		IsValid:           att.IsValid,
		Notes:             att.Notes,
	}
	if att.CheckOutTime != nil {
		out := att.CheckOutTime.Format(time.RFC3339)
		resp.CheckOutTime = &out
	}
	return resp
}

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/allowance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

const (
	attendanceSheet = "Attendance"
	claimsSheet     = "Meal Allowance Claims"
)

// ReportService exports monthly attendance and meal-allowance data as an XLSX
// workbook for payroll handover.
type ReportService interface {
	// ExportMonthly builds the workbook and returns it with a suggested
	// download filename.
	ExportMonthly(ctx context.Context, month, year int) (*excelize.File, string, error)
}

type ReportServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	claimRepo      allowance.ClaimRepository
	queryTimeout   time.Duration
}

func NewReportService(
	attendanceRepo attendance.AttendanceRepository,
	claimRepo allowance.ClaimRepository,
	queryTimeout time.Duration,
) ReportService {
	return &ReportServiceImpl{
		attendanceRepo: attendanceRepo,
		claimRepo:      claimRepo,
		queryTimeout:   queryTimeout,
	}
}

// ExportMonthly implements ReportService.
func (s *ReportServiceImpl) ExportMonthly(ctx context.Context, month, year int) (*excelize.File, string, error) {
	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	records, err := s.attendanceRepo.ListForPeriod(qctx, month, year)
	cancel()
	if err != nil {
		return nil, "", err
	}

	qctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
	claims, err := s.claimRepo.ListForPeriod(qctx, month, year)
	cancel()
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		return nil, "", fmt.Errorf("failed to rename attendance sheet: %w", err)
	}
	if _, err := f.NewSheet(claimsSheet); err != nil {
		return nil, "", fmt.Errorf("failed to create claims sheet: %w", err)
	}

	if err := writeAttendanceSheet(f, records); err != nil {
		return nil, "", err
	}
	if err := writeClaimsSheet(f, claims); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("attendance-report-%04d-%02d.xlsx", year, month)
	return f, filename, nil
}

func writeAttendanceSheet(f *excelize.File, records []attendance.Attendance) error {
	header := []interface{}{
		"Date", "Employee", "Check In", "Check Out", "Work Minutes",
		"Distance (m)", "Valid", "Notes",
	}
	if err := setRow(f, attendanceSheet, 1, header); err != nil {
		return err
	}

	for i, rec := range records {
		name := rec.UserID
		if rec.UserName != nil {
			name = *rec.UserName
		}

		checkOut := ""
		if rec.CheckOutTime != nil {
			checkOut = rec.CheckOutTime.Format(time.RFC3339)
		}

		var workMinutes interface{}
		if rec.WorkMinutes != nil {
			workMinutes = *rec.WorkMinutes
		}

		var distance interface{}
		if rec.DistanceMeters != nil {
			distance = *rec.DistanceMeters
		}

		notes := ""
		if rec.Notes != nil {
			notes = *rec.Notes
		}

		row := []interface{}{
			rec.Date.Format("2006-01-02"),
			name,
			rec.CheckInTime.Format(time.RFC3339),
			checkOut,
			workMinutes,
			distance,
			rec.IsValid,
			notes,
		}
		if err := setRow(f, attendanceSheet, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

func writeClaimsSheet(f *excelize.File, claims []allowance.Claim) error {
	header := []interface{}{
		"Employee", "Period", "Valid Days", "Rate Per Day", "Amount",
		"Status", "Approved By", "Rejection Reason",
	}
	if err := setRow(f, claimsSheet, 1, header); err != nil {
		return err
	}

	for i, claim := range claims {
		name := claim.UserID
		if claim.UserName != nil {
			name = *claim.UserName
		}

		approver := ""
		if claim.ApproverName != nil {
			approver = *claim.ApproverName
		}

		reason := ""
		if claim.RejectionReason != nil {
			reason = *claim.RejectionReason
		}

		row := []interface{}{
			name,
			fmt.Sprintf("%04d-%02d", claim.PeriodYear, claim.PeriodMonth),
			claim.ValidDays,
			claim.RatePerDay.String(),
			claim.Amount.String(),
			string(claim.Status),
			approver,
			reason,
		}
		if err := setRow(f, claimsSheet, i+2, row); err != nil {
			return err
		}
	}

	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to resolve cell for row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", rowNum, sheet, err)
	}
	return nil
}

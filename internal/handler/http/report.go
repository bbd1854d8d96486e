package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cybercafe-ops/cafe-backend-go/internal/handler/http/response"
	"github.com/cybercafe-ops/cafe-backend-go/internal/service/report"
)

type ReportHandler interface {
	ExportMonthly(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// ExportMonthly implements ReportHandler. The workbook is streamed as an
// attachment; errors after the first written byte can only be logged.
func (h *reportHandlerImpl) ExportMonthly(w http.ResponseWriter, r *http.Request) {
	month, year, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	f, filename, err := h.reportService.ExportMonthly(r.Context(), month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := f.Write(w); err != nil {
		slog.Error("Failed to stream report workbook", "error", err)
	}
}

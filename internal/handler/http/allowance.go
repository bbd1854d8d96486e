package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/allowance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AllowanceHandler interface {
	Preview(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	GetMyClaims(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
	DirectApprove(w http.ResponseWriter, r *http.Request)
}

type allowanceHandlerImpl struct {
	allowanceService allowance.AllowanceService
}

func NewAllowanceHandler(allowanceService allowance.AllowanceService) AllowanceHandler {
	return &allowanceHandlerImpl{
		allowanceService: allowanceService,
	}
}

// Preview implements AllowanceHandler.
func (h *allowanceHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	month, year, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	result, err := h.allowanceService.Preview(r.Context(), userID, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Submit implements AllowanceHandler.
func (h *allowanceHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req allowance.SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.UserID = userID

	result, err := h.allowanceService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Claim submitted", result)
}

// GetMyClaims implements AllowanceHandler.
func (h *allowanceHandlerImpl) GetMyClaims(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := parseClaimFilter(r)

	results, err := h.allowanceService.GetMyClaims(r.Context(), userID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// List implements AllowanceHandler.
func (h *allowanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := parseClaimFilter(r)

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		filter.UserID = &userID
	}

	results, err := h.allowanceService.ListClaims(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Decide implements AllowanceHandler.
func (h *allowanceHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	adminID, err := userIDFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req allowance.DecideClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ClaimID = chi.URLParam(r, "id")
	req.AdminID = adminID

	result, err := h.allowanceService.Decide(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Claim decision recorded", result)
}

// MarkPaid implements AllowanceHandler.
func (h *allowanceHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	adminID, err := userIDFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	claimID := chi.URLParam(r, "id")

	result, err := h.allowanceService.MarkPaid(r.Context(), claimID, adminID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Claim marked as paid", result)
}

// DirectApprove implements AllowanceHandler.
func (h *allowanceHandlerImpl) DirectApprove(w http.ResponseWriter, r *http.Request) {
	adminID, err := userIDFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req allowance.DirectApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.AdminID = adminID

	result, err := h.allowanceService.DirectApprove(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Claim approved", result)
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (month, year int, ok bool) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		response.BadRequest(w, "Query parameter 'month' is required", nil)
		return 0, 0, false
	}
	year, err = strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		response.BadRequest(w, "Query parameter 'year' is required", nil)
		return 0, 0, false
	}
	return month, year, true
}

func parseClaimFilter(r *http.Request) allowance.ClaimFilter {
	filter := allowance.ClaimFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := allowance.ClaimStatus(s)
		filter.Status = &status
	}
	if m := r.URL.Query().Get("month"); m != "" {
		if month, err := strconv.Atoi(m); err == nil {
			filter.Month = &month
		}
	}
	if y := r.URL.Query().Get("year"); y != "" {
		if year, err := strconv.Atoi(y); err == nil {
			filter.Year = &year
		}
	}

	if p := r.URL.Query().Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	return filter
}

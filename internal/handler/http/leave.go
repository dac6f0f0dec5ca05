package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-leave-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	QuickCreate(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
	}
}

// Create implements LeaveHandler. The full form counts business days unless told otherwise.
func (h *LeaveHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, leave.DurationPolicyBusinessDays)
}

// QuickCreate implements LeaveHandler. Quick-add always counts calendar days.
func (h *LeaveHandlerImpl) QuickCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, leave.DurationPolicyCalendar)
}

func (h *LeaveHandlerImpl) create(w http.ResponseWriter, r *http.Request, policy leave.DurationPolicy) {
	var req leave.CreateLeaveRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateLeave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	req.CreatedBy = principal.UserID

	if policy == leave.DurationPolicyCalendar || req.DurationPolicy == "" {
		req.DurationPolicy = policy
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.CreateLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, leaveResultMessage("Leave record created", result), result)
}

// Update implements LeaveHandler.
func (h *LeaveHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req leave.UpdateLeaveRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateLeave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.UpdateLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, leaveResultMessage("Leave record updated", result), result)
}

// Delete implements LeaveHandler.
func (h *LeaveHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Leave ID is required", nil)
		return
	}

	result, err := h.leaveService.DeleteLeave(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave record deleted", result)
}

// Get implements LeaveHandler. Non-admin callers may only read their own records.
func (h *LeaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Leave ID is required", nil)
		return
	}

	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	record, err := h.leaveService.GetLeave(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !principal.CanAccessEmployee(record.EmployeeID) {
		// Records of other employees read as missing
		response.HandleError(w, leave.ErrLeaveRecordNotFound)
		return
	}

	response.Success(w, record)
}

func leaveResultMessage(base string, result leave.LeaveResult) string {
	switch {
	case result.Warning != nil:
		return base + " with warning: " + result.Warning.Message
	case result.BalanceStale:
		return base + "; balance will be refreshed by the next reconciliation"
	}
	return base
}

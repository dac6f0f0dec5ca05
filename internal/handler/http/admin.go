package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-leave-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-leave-engine/internal/service/transfer"
)

const maxImportSize = 10 << 20

type AdminHandler interface {
	ListYears(w http.ResponseWriter, r *http.Request)
	GetCurrentYear(w http.ResponseWriter, r *http.Request)
	Rollover(w http.ResponseWriter, r *http.Request)
	ResetBalances(w http.ResponseWriter, r *http.Request)
	ReconcileBalances(w http.ResponseWriter, r *http.Request)
	ImportLeaves(w http.ResponseWriter, r *http.Request)
	ExportBalances(w http.ResponseWriter, r *http.Request)
}

type AdminHandlerImpl struct {
	yearService     leave.YearService
	balanceService  leave.BalanceService
	transferService *transfer.Service
	hub             *sse.Hub
}

func NewAdminHandler(yearService leave.YearService, balanceService leave.BalanceService, transferService *transfer.Service, hub *sse.Hub) AdminHandler {
	return &AdminHandlerImpl{
		yearService:     yearService,
		balanceService:  balanceService,
		transferService: transferService,
		hub:             hub,
	}
}

// ListYears implements AdminHandler.
func (h *AdminHandlerImpl) ListYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.yearService.ListYears(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, years)
}

// GetCurrentYear implements AdminHandler.
func (h *AdminHandlerImpl) GetCurrentYear(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearService.GetCurrentYear(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, year)
}

// Rollover implements AdminHandler.
func (h *AdminHandlerImpl) Rollover(w http.ResponseWriter, r *http.Request) {
	var req leave.RolloverRequest

	if err := decodeOptionalJSON(r, &req); err != nil {
		slog.Error("Rollover decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.yearService.Rollover(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave year rolled over", result)
}

// ResetBalances implements AdminHandler.
func (h *AdminHandlerImpl) ResetBalances(w http.ResponseWriter, r *http.Request) {
	var req leave.ResetBalancesRequest

	if err := decodeOptionalJSON(r, &req); err != nil {
		slog.Error("ResetBalances decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.balanceService.ResetBalances(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Balances reset", result)
}

// ReconcileBalances implements AdminHandler.
func (h *AdminHandlerImpl) ReconcileBalances(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.balanceService.ReconcileAll(r.Context(), progressPublisher(h.hub, principal.UserID, "balance_reconcile"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, batchMessage("Reconciliation", result), result)
}

// ImportLeaves implements AdminHandler. Expects a multipart "file" field holding CSV or XLSX.
func (h *AdminHandlerImpl) ImportLeaves(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		response.BadRequest(w, "File too large or invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file field", nil)
		return
	}
	defer file.Close()

	name := header.Filename
	if v := r.FormValue("format"); v != "" {
		name = v
	}
	format, err := transfer.ParseFormat(name)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.transferService.Import(r.Context(), file, format, principal.UserID,
		progressPublisher(h.hub, principal.UserID, "leave_import"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, batchMessage("Import", result.Result), result)
}

// ExportBalances implements AdminHandler. The report is built in memory before any byte is sent.
func (h *AdminHandlerImpl) ExportBalances(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(transfer.FormatCSV)
	}
	format, err := transfer.ParseFormat(formatParam)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var buf bytes.Buffer
	result, err := h.transferService.ExportBalances(r.Context(), &buf, format,
		progressPublisher(h.hub, principal.UserID, "balance_export"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if result.Failed > 0 {
		slog.Warn("Balance export skipped employees", "failed", result.Failed, "total", result.Total)
	}

	filename := "leave-balances-" + time.Now().Format("20060102") + "." + string(format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write balance export", "error", err)
	}
}

// decodeOptionalJSON decodes the body into v, treating an empty body as zero values.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

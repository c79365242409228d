package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"auszug/internal/audit"
	"auszug/internal/fulfillment"
	dErrors "auszug/pkg/domain-errors"
)

// FulfillmentService runs the pipeline for one order.
type FulfillmentService interface {
	Fulfill(ctx context.Context, orderID uuid.UUID) (fulfillment.Result, error)
}

// Ledger reads an order's processing trail.
type Ledger interface {
	List(ctx context.Context, orderID uuid.UUID) ([]audit.Entry, error)
}

type Handler struct {
	fulfillment FulfillmentService
	ledger      Ledger
	log         *slog.Logger
}

func NewHandler(fulfillment FulfillmentService, ledger Ledger, log *slog.Logger) *Handler {
	return &Handler{fulfillment: fulfillment, ledger: ledger, log: log}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleFulfill(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fulfillment.Result{Error: "invalid order id"})
		return
	}

	result, err := h.fulfillment.Fulfill(r.Context(), orderID)
	if err != nil {
		h.log.Warn("fulfillment failed", "order_id", orderID, "error", err)
		result.Success = false
		result.Error = err.Error()
		writeJSON(w, statusFor(err), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleNotes returns the order's ledger both structured and rendered as the
// legacy processing-notes text block the admin UI displays.
func (h *Handler) handleNotes(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	entries, err := h.ledger.List(r.Context(), orderID)
	if err != nil {
		h.log.Error("list ledger entries", "order_id", orderID, "error", err)
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries":         entries,
		"processingNotes": audit.Render(entries),
		"totalCost":       audit.TotalCents(entries),
	})
}

// statusFor translates domain error codes to HTTP statuses. Pipeline
// failures that leave the order actionable surface as 422 so the admin layer
// shows them without treating the call itself as broken.
func statusFor(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeInsufficientInput, dErrors.CodeNoMatch, dErrors.CodeMalformedResponse:
		return http.StatusUnprocessableEntity
	case dErrors.CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

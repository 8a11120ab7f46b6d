package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pharmaledger/m/domain"
	"pharmaledger/m/internal/alerts"
	"pharmaledger/m/internal/inventory"
)

type transactionRequest struct {
	MedicineID int64  `json:"medicine_id"`
	Type       string `json:"type"`
	Quantity   int64  `json:"quantity"`
	Notes      string `json:"notes"`
}

type transactionResponse struct {
	PreviousStock int64                       `json:"previous_stock"`
	NewStock      int64                       `json:"new_stock"`
	Transaction   domain.InventoryTransaction `json:"transaction"`
}

func (h *Handler) applyTransaction(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner", "employee") {
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MedicineID <= 0 {
		respondError(w, http.StatusBadRequest, "medicine_id is required")
		return
	}

	txn, err := h.inventory.ApplyTransaction(r.Context(), inventory.ApplyRequest{
		MedicineID: req.MedicineID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	})
	if err != nil {
		respondInventoryError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, transactionResponse{
		PreviousStock: txn.PreviousStock,
		NewStock:      txn.NewStock,
		Transaction:   txn,
	})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	var medicineID int64
	if raw := r.URL.Query().Get("medicine_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "invalid medicine_id")
			return
		}
		medicineID = id
	}

	txns, err := h.inventory.ListTransactions(r.Context(), medicineID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list transactions")
		return
	}
	if txns == nil {
		txns = []domain.InventoryTransaction{}
	}
	respondJSON(w, http.StatusOK, txns)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	// Reconcile alerts with current medicine state before listing.
	if err := h.alerts.Sweep(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to evaluate alerts")
		return
	}

	var filter alerts.ListFilter
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "resolved must be true or false")
			return
		}
		filter.Resolved = &resolved
	}
	if alertType := r.URL.Query().Get("type"); alertType != "" {
		if !domain.ValidAlertType(alertType) {
			respondError(w, http.StatusBadRequest, "unknown alert type")
			return
		}
		filter.Type = alertType
	}

	list, err := h.alerts.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list alerts")
		return
	}
	if list == nil {
		list = []domain.Alert{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) resolveAlert(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner", "employee") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	alert, err := h.alerts.Resolve(r.Context(), id)
	if errors.Is(err, alerts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to resolve alert")
		return
	}
	respondJSON(w, http.StatusOK, alert)
}

// respondInventoryError maps engine errors onto HTTP statuses.
func respondInventoryError(w http.ResponseWriter, err error) {
	var insufficient *inventory.InsufficientStockError
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		respondError(w, http.StatusNotFound, "medicine not found")
	case errors.Is(err, inventory.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient):
		respondError(w, http.StatusBadRequest, insufficient.Error())
	case errors.Is(err, inventory.ErrConflict):
		respondError(w, http.StatusConflict, "stock changed concurrently, retry the operation")
	default:
		respondError(w, http.StatusInternalServerError, "unable to apply transaction")
	}
}

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pharmaledger/m/domain"
	"pharmaledger/m/internal/inventory"
)

const medicineColumns = `id, barcode, name, description, stock, threshold, expiry_date, category,
        supplier_id, status, low_stock_sent, expiry_sent, created_at, updated_at`

type medicineRequest struct {
	Barcode     string  `json:"barcode"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Stock       *int64  `json:"stock"`
	Threshold   *int64  `json:"threshold"`
	ExpiryDate  string  `json:"expiry_date"`
	Category    string  `json:"category"`
	SupplierID  *int64  `json:"supplier_id"`
	Status      *string `json:"status"`
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner", "employee") {
		return
	}
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Barcode) == "" || strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "barcode and name are required")
		return
	}
	if req.Category == "" {
		req.Category = domain.CategoryOther
	}
	if !domain.ValidCategory(req.Category) {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}
	threshold := int64(10)
	if req.Threshold != nil {
		if *req.Threshold < 0 {
			respondError(w, http.StatusBadRequest, "threshold must not be negative")
			return
		}
		threshold = *req.Threshold
	}
	if req.Stock != nil && *req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "stock must not be negative")
		return
	}

	// New medicines start at zero stock; the opening quantity is recorded as
	// a restock transaction so the audit chain covers the full history.
	var id int64
	err := h.db.QueryRowx(
		`INSERT INTO medicines (barcode, name, description, stock, threshold, expiry_date, category, supplier_id)
		 VALUES (?, ?, ?, 0, ?, ?, ?, ?) RETURNING id`,
		strings.TrimSpace(req.Barcode), strings.TrimSpace(req.Name), req.Description,
		threshold, nullIfEmpty(req.ExpiryDate), req.Category, req.SupplierID,
	).Scan(&id)
	if err != nil {
		respondError(w, http.StatusConflict, "barcode already exists")
		return
	}

	if req.Stock != nil && *req.Stock > 0 {
		_, err := h.inventory.ApplyTransaction(r.Context(), inventory.ApplyRequest{
			MedicineID: id,
			Type:       domain.TxRestock,
			Quantity:   *req.Stock,
			Notes:      "opening stock",
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to record opening stock")
			return
		}
	}

	medicine, err := h.loadMedicine(r, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load medicine")
		return
	}
	respondJSON(w, http.StatusCreated, medicine)
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	args := []any{}
	sqlQuery := `SELECT ` + medicineColumns + ` FROM medicines`
	if query != "" {
		like := "%" + query + "%"
		sqlQuery += ` WHERE name LIKE ? OR barcode LIKE ?`
		args = append(args, like, like)
	}
	sqlQuery += ` ORDER BY name LIMIT 100`

	var medicines []domain.Medicine
	if err := h.db.Select(&medicines, sqlQuery, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list medicines")
		return
	}
	if medicines == nil {
		medicines = []domain.Medicine{}
	}
	respondJSON(w, http.StatusOK, medicines)
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medicine id")
		return
	}
	medicine, err := h.loadMedicine(r, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "medicine not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load medicine")
		return
	}
	respondJSON(w, http.StatusOK, medicine)
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner", "employee") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medicine id")
		return
	}
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.loadMedicine(r, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "medicine not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load medicine")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Category == "" {
		req.Category = current.Category
	}
	if !domain.ValidCategory(req.Category) {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}
	status := current.Status
	if req.Status != nil {
		if !domain.ValidStatus(*req.Status) {
			respondError(w, http.StatusBadRequest, "unknown status")
			return
		}
		status = *req.Status
	}
	threshold := current.Threshold
	if req.Threshold != nil {
		if *req.Threshold < 0 {
			respondError(w, http.StatusBadRequest, "threshold must not be negative")
			return
		}
		threshold = *req.Threshold
	}
	barcode := current.Barcode
	if strings.TrimSpace(req.Barcode) != "" {
		barcode = strings.TrimSpace(req.Barcode)
	}

	_, err = h.db.Exec(
		`UPDATE medicines SET barcode = ?, name = ?, description = ?, threshold = ?,
		        expiry_date = ?, category = ?, supplier_id = ?, status = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		barcode, strings.TrimSpace(req.Name), req.Description, threshold,
		nullIfEmpty(req.ExpiryDate), req.Category, req.SupplierID, status, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update medicine")
		return
	}

	// Stock is never written directly. A manual correction on the edit form
	// becomes a recorded transaction: an adjustment for deductions, a restock
	// for additions.
	if req.Stock != nil && *req.Stock != current.Stock {
		apply := inventory.ApplyRequest{
			MedicineID: id,
			Notes:      "manual stock correction",
		}
		if delta := *req.Stock - current.Stock; delta > 0 {
			apply.Type = domain.TxRestock
			apply.Quantity = delta
		} else {
			apply.Type = domain.TxAdjustment
			apply.Quantity = -delta
		}
		if _, err := h.inventory.ApplyTransaction(r.Context(), apply); err != nil {
			respondInventoryError(w, err)
			return
		}
	}

	medicine, err := h.loadMedicine(r, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load medicine")
		return
	}
	respondJSON(w, http.StatusOK, medicine)
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medicine id")
		return
	}

	var refs int64
	err = h.db.Get(&refs,
		`SELECT (SELECT COUNT(*) FROM inventory_transactions WHERE medicine_id = ?)
		      + (SELECT COUNT(*) FROM alerts WHERE medicine_id = ?)`, id, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to check references")
		return
	}

	// Referenced medicines are soft-retired so the audit trail stays intact.
	if refs > 0 {
		res, err := h.db.Exec(`UPDATE medicines SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			domain.StatusDiscontinued, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to discontinue medicine")
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			respondError(w, http.StatusNotFound, "medicine not found")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "discontinued"})
		return
	}

	res, err := h.db.Exec(`DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete medicine")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "medicine not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) loadMedicine(r *http.Request, id int64) (domain.Medicine, error) {
	var medicine domain.Medicine
	err := h.db.GetContext(r.Context(), &medicine,
		`SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
	return medicine, err
}

// Supplier handlers

type supplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner", "employee") {
		return
	}
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	var id int64
	err := h.db.QueryRowx(
		`INSERT INTO suppliers (name, contact_person, phone, email, address) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		strings.TrimSpace(req.Name), req.ContactPerson, req.Phone, req.Email, req.Address,
	).Scan(&id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create supplier")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": strings.TrimSpace(req.Name)})
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	var suppliers []domain.Supplier
	err := h.db.Select(&suppliers,
		`SELECT id, name, contact_person, phone, email, address, created_at FROM suppliers ORDER BY name`)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list suppliers")
		return
	}
	if suppliers == nil {
		suppliers = []domain.Supplier{}
	}
	respondJSON(w, http.StatusOK, suppliers)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner", "employee") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid supplier id")
		return
	}
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	res, err := h.db.Exec(
		`UPDATE suppliers SET name = ?, contact_person = ?, phone = ?, email = ?, address = ? WHERE id = ?`,
		strings.TrimSpace(req.Name), req.ContactPerson, req.Phone, req.Email, req.Address, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update supplier")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "supplier not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pharmaledger/m/domain"
)

func validEntryDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// Petty cash

type pettyCashRequest struct {
	EntryDate   string          `json:"entry_date"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
}

func (h *Handler) createPettyCashEntry(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner", "employee") {
		return
	}
	var req pettyCashRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validEntryDate(req.EntryDate) {
		respondError(w, http.StatusBadRequest, "entry_date must be in YYYY-MM-DD format")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		respondError(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.Kind != domain.CashIn && req.Kind != domain.CashOut {
		respondError(w, http.StatusBadRequest, "kind must be in or out")
		return
	}
	if !req.Amount.IsPositive() {
		respondError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	var entry domain.PettyCashEntry
	err := h.db.QueryRowx(
		`INSERT INTO petty_cash_entries (entry_date, description, kind, amount)
		 VALUES (?, ?, ?, ?) RETURNING id, created_at`,
		req.EntryDate, strings.TrimSpace(req.Description), req.Kind, req.Amount.String(),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record entry")
		return
	}
	entry.EntryDate = req.EntryDate
	entry.Description = strings.TrimSpace(req.Description)
	entry.Kind = req.Kind
	entry.Amount = req.Amount
	respondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) listPettyCashEntries(w http.ResponseWriter, r *http.Request) {
	var entries []domain.PettyCashEntry
	err := h.db.Select(&entries,
		`SELECT id, entry_date, description, kind, amount, created_at
		 FROM petty_cash_entries ORDER BY entry_date DESC, id DESC`)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list entries")
		return
	}
	if entries == nil {
		entries = []domain.PettyCashEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// pettyCashBalance recomputes the balance from all entries. The balance is a
// derived view, never a stored running total.
func (h *Handler) pettyCashBalance(w http.ResponseWriter, r *http.Request) {
	var entries []domain.PettyCashEntry
	err := h.db.Select(&entries,
		`SELECT id, entry_date, description, kind, amount, created_at FROM petty_cash_entries`)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute balance")
		return
	}
	balance := decimal.Zero
	for _, entry := range entries {
		if entry.Kind == domain.CashIn {
			balance = balance.Add(entry.Amount)
		} else {
			balance = balance.Sub(entry.Amount)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"balance": balance, "entries": len(entries)})
}

// Bank book

type bankBookRequest struct {
	Account     string          `json:"account"`
	EntryDate   string          `json:"entry_date"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
}

func (h *Handler) createBankBookEntry(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner", "employee") {
		return
	}
	var req bankBookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Account) == "" {
		respondError(w, http.StatusBadRequest, "account is required")
		return
	}
	if !validEntryDate(req.EntryDate) {
		respondError(w, http.StatusBadRequest, "entry_date must be in YYYY-MM-DD format")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		respondError(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.Kind != domain.BankDeposit && req.Kind != domain.BankWithdrawal {
		respondError(w, http.StatusBadRequest, "kind must be deposit or withdrawal")
		return
	}
	if !req.Amount.IsPositive() {
		respondError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	var entry domain.BankBookEntry
	err := h.db.QueryRowx(
		`INSERT INTO bank_book_entries (account, entry_date, description, kind, amount, reference)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id, created_at`,
		strings.TrimSpace(req.Account), req.EntryDate, strings.TrimSpace(req.Description),
		req.Kind, req.Amount.String(), req.Reference,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record entry")
		return
	}
	entry.Account = strings.TrimSpace(req.Account)
	entry.EntryDate = req.EntryDate
	entry.Description = strings.TrimSpace(req.Description)
	entry.Kind = req.Kind
	entry.Amount = req.Amount
	entry.Reference = req.Reference
	respondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) listBankBookEntries(w http.ResponseWriter, r *http.Request) {
	args := []any{}
	query := `SELECT id, account, entry_date, description, kind, amount, reference, created_at
	          FROM bank_book_entries`
	if account := strings.TrimSpace(r.URL.Query().Get("account")); account != "" {
		query += ` WHERE account = ?`
		args = append(args, account)
	}
	query += ` ORDER BY entry_date DESC, id DESC`

	var entries []domain.BankBookEntry
	if err := h.db.Select(&entries, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list entries")
		return
	}
	if entries == nil {
		entries = []domain.BankBookEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) bankBookBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	var entries []domain.BankBookEntry
	err := h.db.Select(&entries,
		`SELECT id, account, entry_date, description, kind, amount, reference, created_at
		 FROM bank_book_entries WHERE account = ?`, account)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute balance")
		return
	}
	balance := decimal.Zero
	for _, entry := range entries {
		if entry.Kind == domain.BankDeposit {
			balance = balance.Add(entry.Amount)
		} else {
			balance = balance.Sub(entry.Amount)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"account": account, "balance": balance, "entries": len(entries)})
}

// Payroll

type payrollRequest struct {
	Employee   string          `json:"employee"`
	Month      string          `json:"month"`
	Gross      decimal.Decimal `json:"gross"`
	Deductions decimal.Decimal `json:"deductions"`
}

func (h *Handler) createPayrollEntry(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner") {
		return
	}
	var req payrollRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Employee) == "" {
		respondError(w, http.StatusBadRequest, "employee is required")
		return
	}
	if _, err := time.Parse("2006-01", req.Month); err != nil {
		respondError(w, http.StatusBadRequest, "month must be in YYYY-MM format")
		return
	}
	if !req.Gross.IsPositive() {
		respondError(w, http.StatusBadRequest, "gross must be positive")
		return
	}
	if req.Deductions.IsNegative() {
		respondError(w, http.StatusBadRequest, "deductions must not be negative")
		return
	}
	net := req.Gross.Sub(req.Deductions)
	if net.IsNegative() {
		respondError(w, http.StatusBadRequest, "deductions exceed gross salary")
		return
	}

	var entry domain.PayrollEntry
	err := h.db.QueryRowx(
		`INSERT INTO payroll_entries (employee, month, gross, deductions, net)
		 VALUES (?, ?, ?, ?, ?) RETURNING id, created_at`,
		strings.TrimSpace(req.Employee), req.Month, req.Gross.String(), req.Deductions.String(), net.String(),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record entry")
		return
	}
	entry.Employee = strings.TrimSpace(req.Employee)
	entry.Month = req.Month
	entry.Gross = req.Gross
	entry.Deductions = req.Deductions
	entry.Net = net
	respondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) listPayrollEntries(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner") {
		return
	}
	args := []any{}
	query := `SELECT id, employee, month, gross, deductions, net, created_at FROM payroll_entries`
	if month := strings.TrimSpace(r.URL.Query().Get("month")); month != "" {
		query += ` WHERE month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY month DESC, employee`

	var entries []domain.PayrollEntry
	if err := h.db.Select(&entries, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list entries")
		return
	}
	if entries == nil {
		entries = []domain.PayrollEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// General ledger

type ledgerEntryRequest struct {
	Account     string          `json:"account"`
	EntryDate   string          `json:"entry_date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

func (h *Handler) createLedgerEntry(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner") {
		return
	}
	var req ledgerEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Account) == "" {
		respondError(w, http.StatusBadRequest, "account is required")
		return
	}
	if !validEntryDate(req.EntryDate) {
		respondError(w, http.StatusBadRequest, "entry_date must be in YYYY-MM-DD format")
		return
	}
	if req.Debit.IsNegative() || req.Credit.IsNegative() {
		respondError(w, http.StatusBadRequest, "debit and credit must not be negative")
		return
	}
	if req.Debit.IsZero() == req.Credit.IsZero() {
		respondError(w, http.StatusBadRequest, "exactly one of debit or credit must be set")
		return
	}

	var entry domain.LedgerEntry
	err := h.db.QueryRowx(
		`INSERT INTO ledger_entries (account, entry_date, description, debit, credit)
		 VALUES (?, ?, ?, ?, ?) RETURNING id, created_at`,
		strings.TrimSpace(req.Account), req.EntryDate, req.Description,
		req.Debit.String(), req.Credit.String(),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record entry")
		return
	}
	entry.Account = strings.TrimSpace(req.Account)
	entry.EntryDate = req.EntryDate
	entry.Description = req.Description
	entry.Debit = req.Debit
	entry.Credit = req.Credit
	respondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) listLedgerEntries(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner") {
		return
	}
	args := []any{}
	query := `SELECT id, account, entry_date, description, debit, credit, created_at FROM ledger_entries`
	if account := strings.TrimSpace(r.URL.Query().Get("account")); account != "" {
		query += ` WHERE account = ?`
		args = append(args, account)
	}
	query += ` ORDER BY entry_date DESC, id DESC`

	var entries []domain.LedgerEntry
	if err := h.db.Select(&entries, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list entries")
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

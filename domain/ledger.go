package domain

import "github.com/shopspring/decimal"

// Petty cash and bank book entry kinds.
const (
	CashIn  = "in"
	CashOut = "out"

	BankDeposit    = "deposit"
	BankWithdrawal = "withdrawal"
)

// PettyCashEntry is an append-only cash movement. The cash balance is always
// recomputed from entries, never stored.
type PettyCashEntry struct {
	ID          int64           `db:"id" json:"id"`
	EntryDate   string          `db:"entry_date" json:"entry_date"`
	Description string          `db:"description" json:"description"`
	Kind        string          `db:"kind" json:"kind"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
}

// BankBookEntry is an append-only movement on a named bank account.
type BankBookEntry struct {
	ID          int64           `db:"id" json:"id"`
	Account     string          `db:"account" json:"account"`
	EntryDate   string          `db:"entry_date" json:"entry_date"`
	Description string          `db:"description" json:"description"`
	Kind        string          `db:"kind" json:"kind"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Reference   string          `db:"reference" json:"reference,omitempty"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
}

// PayrollEntry records one salary payment. Net is derived from gross minus
// deductions when the entry is recorded.
type PayrollEntry struct {
	ID         int64           `db:"id" json:"id"`
	Employee   string          `db:"employee" json:"employee"`
	Month      string          `db:"month" json:"month"`
	Gross      decimal.Decimal `db:"gross" json:"gross"`
	Deductions decimal.Decimal `db:"deductions" json:"deductions"`
	Net        decimal.Decimal `db:"net" json:"net"`
	CreatedAt  string          `db:"created_at" json:"created_at"`
}

// LedgerEntry is a general ledger line with a debit or credit amount against
// a named account.
type LedgerEntry struct {
	ID          int64           `db:"id" json:"id"`
	Account     string          `db:"account" json:"account"`
	EntryDate   string          `db:"entry_date" json:"entry_date"`
	Description string          `db:"description" json:"description"`
	Debit       decimal.Decimal `db:"debit" json:"debit"`
	Credit      decimal.Decimal `db:"credit" json:"credit"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
}

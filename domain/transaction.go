package domain

// Inventory transaction types. Restocks add to stock, every other type
// deducts from it.
const (
	TxSale            = "sale"
	TxRestock         = "restock"
	TxAdjustment      = "adjustment"
	TxExpiredWriteoff = "expired-writeoff"
)

// InventoryTransaction is an append-only audit entry recording one stock
// change. PreviousStock and NewStock are computed when the transaction is
// applied, never taken from the caller.
type InventoryTransaction struct {
	ID            int64  `db:"id" json:"id"`
	MedicineID    int64  `db:"medicine_id" json:"medicine_id"`
	Type          string `db:"type" json:"type"`
	Quantity      int64  `db:"quantity" json:"quantity"`
	PreviousStock int64  `db:"previous_stock" json:"previous_stock"`
	NewStock      int64  `db:"new_stock" json:"new_stock"`
	Notes         string `db:"notes" json:"notes,omitempty"`
	CreatedAt     string `db:"created_at" json:"created_at"`
}

// ValidTransactionType reports whether t is one of the known transaction types.
func ValidTransactionType(t string) bool {
	switch t {
	case TxSale, TxRestock, TxAdjustment, TxExpiredWriteoff:
		return true
	}
	return false
}

package domain

// Alert types.
const (
	AlertLowStock   = "low-stock"
	AlertNearExpiry = "near-expiry"
	AlertExpired    = "expired"
)

// Alert is a resolvable notification derived from medicine state. At most one
// unresolved alert of a given type exists per medicine.
type Alert struct {
	ID         int64  `db:"id" json:"id"`
	MedicineID int64  `db:"medicine_id" json:"medicine_id"`
	Type       string `db:"type" json:"type"`
	Message    string `db:"message" json:"message"`
	Resolved   bool   `db:"resolved" json:"resolved"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}

// ValidAlertType reports whether t is one of the known alert types.
func ValidAlertType(t string) bool {
	switch t {
	case AlertLowStock, AlertNearExpiry, AlertExpired:
		return true
	}
	return false
}

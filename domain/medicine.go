package domain

// Medicine categories.
const (
	CategoryTablet       = "Tablet"
	CategorySyrup        = "Syrup"
	CategoryCapsule      = "Capsule"
	CategoryInjection    = "Injection"
	CategoryOTC          = "OTC"
	CategoryPrescription = "Prescription"
	CategoryOther        = "Other"
)

// Medicine statuses.
const (
	StatusActive       = "active"
	StatusDiscontinued = "discontinued"
	StatusRecalled     = "recalled"
)

// Medicine is the stock-keeping record for one pharmacy product. Stock is
// only ever changed by applying an inventory transaction.
type Medicine struct {
	ID           int64   `db:"id" json:"id"`
	Barcode      string  `db:"barcode" json:"barcode"`
	Name         string  `db:"name" json:"name"`
	Description  string  `db:"description" json:"description,omitempty"`
	Stock        int64   `db:"stock" json:"stock"`
	Threshold    int64   `db:"threshold" json:"threshold"`
	ExpiryDate   *string `db:"expiry_date" json:"expiry_date,omitempty"`
	Category     string  `db:"category" json:"category"`
	SupplierID   *int64  `db:"supplier_id" json:"supplier_id,omitempty"`
	Status       string  `db:"status" json:"status"`
	LowStockSent bool    `db:"low_stock_sent" json:"low_stock_sent"`
	ExpirySent   bool    `db:"expiry_sent" json:"expiry_sent"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
	UpdatedAt    string  `db:"updated_at" json:"updated_at"`
}

// ValidCategory reports whether c is one of the known medicine categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryTablet, CategorySyrup, CategoryCapsule, CategoryInjection,
		CategoryOTC, CategoryPrescription, CategoryOther:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known medicine statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusDiscontinued, StatusRecalled:
		return true
	}
	return false
}

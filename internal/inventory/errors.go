package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the referenced medicine does not exist.
	ErrNotFound = errors.New("medicine not found")

	// ErrInvalidArgument is returned for a malformed quantity or unknown
	// transaction type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict is returned when concurrent stock updates kept colliding
	// and the retry budget ran out. The caller can safely retry the same
	// operation.
	ErrConflict = errors.New("concurrent stock update conflict")
)

// InsufficientStockError is returned when a deduction would drive stock
// negative. It carries the current stock and the attempted deduction so
// callers can report a precise message.
type InsufficientStockError struct {
	MedicineID int64
	Current    int64
	Requested  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for medicine %d: have %d, need %d",
		e.MedicineID, e.Current, e.Requested)
}

package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pharmaledger/m/domain"
)

// maxRetries bounds the optimistic retry loop in ApplyTransaction.
const maxRetries = 3

// errStockMoved signals that the compare-and-swap on stock matched no row,
// meaning another transaction committed between our read and write.
var errStockMoved = errors.New("stock changed during apply")

// Service applies stock-changing operations to medicines. It is the only
// writer of the medicines.stock column: every change commits together with
// its audit entry or not at all.
type Service struct {
	db *sqlx.DB
}

// New constructs a Service.
func New(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// ApplyRequest describes one stock-changing operation.
type ApplyRequest struct {
	MedicineID int64
	Type       string
	Quantity   int64
	Notes      string
}

// ApplyTransaction validates and applies req atomically: the medicine's stock
// update and the inventory transaction insert either both commit or neither
// does. Lost updates are prevented with a compare-and-swap on stock, retried
// from a fresh read a bounded number of times before giving up with
// ErrConflict.
func (s *Service) ApplyTransaction(ctx context.Context, req ApplyRequest) (domain.InventoryTransaction, error) {
	if req.Quantity < 1 {
		return domain.InventoryTransaction{}, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidArgument)
	}
	if !domain.ValidTransactionType(req.Type) {
		return domain.InventoryTransaction{}, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidArgument, req.Type)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		txn, err := s.apply(ctx, req)
		if errors.Is(err, errStockMoved) {
			continue
		}
		return txn, err
	}
	return domain.InventoryTransaction{}, ErrConflict
}

func (s *Service) apply(ctx context.Context, req ApplyRequest) (domain.InventoryTransaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.InventoryTransaction{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var medicine struct {
		Stock     int64 `db:"stock"`
		Threshold int64 `db:"threshold"`
	}
	err = tx.GetContext(ctx, &medicine,
		`SELECT stock, threshold FROM medicines WHERE id = ?`, req.MedicineID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.InventoryTransaction{}, ErrNotFound
	}
	if err != nil {
		return domain.InventoryTransaction{}, fmt.Errorf("loading medicine %d: %w", req.MedicineID, err)
	}

	previous := medicine.Stock
	var next int64
	if req.Type == domain.TxRestock {
		next = previous + req.Quantity
	} else {
		next = previous - req.Quantity
	}
	if next < 0 {
		return domain.InventoryTransaction{}, &InsufficientStockError{
			MedicineID: req.MedicineID,
			Current:    previous,
			Requested:  req.Quantity,
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE medicines SET stock = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND stock = ?`, next, req.MedicineID, previous)
	if err != nil {
		return domain.InventoryTransaction{}, fmt.Errorf("updating stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.InventoryTransaction{}, fmt.Errorf("checking stock update: %w", err)
	}
	if affected == 0 {
		return domain.InventoryTransaction{}, errStockMoved
	}

	// A restock that lifts stock back above the threshold re-arms the
	// low-stock notification flag.
	if req.Type == domain.TxRestock && next > medicine.Threshold {
		if _, err := tx.ExecContext(ctx,
			`UPDATE medicines SET low_stock_sent = 0 WHERE id = ?`, req.MedicineID); err != nil {
			return domain.InventoryTransaction{}, fmt.Errorf("clearing low stock flag: %w", err)
		}
	}

	txn := domain.InventoryTransaction{
		MedicineID:    req.MedicineID,
		Type:          req.Type,
		Quantity:      req.Quantity,
		PreviousStock: previous,
		NewStock:      next,
		Notes:         req.Notes,
	}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO inventory_transactions (medicine_id, type, quantity, previous_stock, new_stock, notes)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id, created_at`,
		txn.MedicineID, txn.Type, txn.Quantity, txn.PreviousStock, txn.NewStock, txn.Notes,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return domain.InventoryTransaction{}, fmt.Errorf("recording transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.InventoryTransaction{}, fmt.Errorf("committing transaction: %w", err)
	}
	return txn, nil
}

// ListTransactions returns transactions newest first, optionally filtered by
// medicine.
func (s *Service) ListTransactions(ctx context.Context, medicineID int64) ([]domain.InventoryTransaction, error) {
	query := `SELECT id, medicine_id, type, quantity, previous_stock, new_stock, notes, created_at
	          FROM inventory_transactions`
	args := []any{}
	if medicineID > 0 {
		query += ` WHERE medicine_id = ?`
		args = append(args, medicineID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var txns []domain.InventoryTransaction
	if err := s.db.SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return txns, nil
}

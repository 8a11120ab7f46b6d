package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pharmaledger/m/domain"
)

// nearExpiryDays is the window before expiry in which a near-expiry alert is
// raised.
const nearExpiryDays = 30

// ErrNotFound is returned when the referenced alert does not exist.
var ErrNotFound = errors.New("alert not found")

// Evaluator reconciles alert records with current medicine state. It never
// auto-resolves: when a condition clears, existing unresolved alerts stay for
// human resolution and only duplicate creation is suppressed.
type Evaluator struct {
	db  *sqlx.DB
	now func() time.Time
}

// New constructs an Evaluator.
func New(db *sqlx.DB) *Evaluator {
	return &Evaluator{db: db, now: time.Now}
}

// Evaluate derives the desired alert state for one medicine and creates any
// missing unresolved alerts. Repeated evaluation of an unchanged condition
// is a no-op.
func (e *Evaluator) Evaluate(ctx context.Context, m domain.Medicine) error {
	if m.Stock <= m.Threshold {
		msg := fmt.Sprintf("%s stock is %d, at or below reorder point %d", m.Name, m.Stock, m.Threshold)
		if err := e.ensure(ctx, m.ID, domain.AlertLowStock, msg); err != nil {
			return err
		}
	}

	if m.ExpiryDate == nil || *m.ExpiryDate == "" {
		return nil
	}
	days, err := e.daysUntil(*m.ExpiryDate)
	if err != nil {
		return fmt.Errorf("medicine %d: %w", m.ID, err)
	}
	switch {
	case days <= 0:
		msg := fmt.Sprintf("%s expired on %s", m.Name, *m.ExpiryDate)
		return e.ensure(ctx, m.ID, domain.AlertExpired, msg)
	case days < nearExpiryDays:
		msg := fmt.Sprintf("%s expires in %d days (%s)", m.Name, days, *m.ExpiryDate)
		return e.ensure(ctx, m.ID, domain.AlertNearExpiry, msg)
	}
	return nil
}

// ensure creates an unresolved alert of the given type unless one already
// exists. The partial unique index on (medicine_id, type) for unresolved
// rows makes the insert a no-op on duplicates.
func (e *Evaluator) ensure(ctx context.Context, medicineID int64, alertType, message string) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning alert upsert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO alerts (medicine_id, type, message) VALUES (?, ?, ?)
		 ON CONFLICT (medicine_id, type) WHERE resolved = 0 DO NOTHING`,
		medicineID, alertType, message)
	if err != nil {
		return fmt.Errorf("creating %s alert: %w", alertType, err)
	}
	created, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking alert insert: %w", err)
	}

	if created > 0 {
		flag := "low_stock_sent"
		if alertType != domain.AlertLowStock {
			flag = "expiry_sent"
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE medicines SET `+flag+` = 1 WHERE id = ?`, medicineID); err != nil {
			return fmt.Errorf("marking %s notified: %w", alertType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing alert upsert: %w", err)
	}
	return nil
}

// Sweep evaluates every medicine that is still stocked or sellable.
func (e *Evaluator) Sweep(ctx context.Context) error {
	var medicines []domain.Medicine
	err := e.db.SelectContext(ctx, &medicines,
		`SELECT id, barcode, name, description, stock, threshold, expiry_date, category,
		        supplier_id, status, low_stock_sent, expiry_sent, created_at, updated_at
		 FROM medicines WHERE status != ?`, domain.StatusDiscontinued)
	if err != nil {
		return fmt.Errorf("loading medicines for sweep: %w", err)
	}
	for _, m := range medicines {
		if err := e.Evaluate(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Resolve marks an alert resolved. Resolving an already-resolved alert
// succeeds without changing anything.
func (e *Evaluator) Resolve(ctx context.Context, id int64) (domain.Alert, error) {
	var alert domain.Alert
	err := e.db.GetContext(ctx, &alert,
		`SELECT id, medicine_id, type, message, resolved, created_at FROM alerts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Alert{}, ErrNotFound
	}
	if err != nil {
		return domain.Alert{}, fmt.Errorf("loading alert %d: %w", id, err)
	}
	if alert.Resolved {
		return alert, nil
	}

	if _, err := e.db.ExecContext(ctx, `UPDATE alerts SET resolved = 1 WHERE id = ?`, id); err != nil {
		return domain.Alert{}, fmt.Errorf("resolving alert %d: %w", id, err)
	}
	alert.Resolved = true
	return alert, nil
}

// ListFilter narrows List results. Resolved nil means both resolved and
// unresolved alerts.
type ListFilter struct {
	Resolved *bool
	Type     string
}

// List returns alerts newest first.
func (e *Evaluator) List(ctx context.Context, filter ListFilter) ([]domain.Alert, error) {
	query := `SELECT id, medicine_id, type, message, resolved, created_at FROM alerts`
	var (
		clauses []string
		args    []any
	)
	if filter.Resolved != nil {
		clauses = append(clauses, `resolved = ?`)
		args = append(args, *filter.Resolved)
	}
	if filter.Type != "" {
		clauses = append(clauses, `type = ?`)
		args = append(args, filter.Type)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var list []domain.Alert
	if err := e.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return list, nil
}

// daysUntil returns whole days from today until the given YYYY-MM-DD date.
// Zero or negative means the date has passed.
func (e *Evaluator) daysUntil(date string) (int, error) {
	expiry, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry date %q: %w", date, err)
	}
	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(today).Hours() / 24), nil
}

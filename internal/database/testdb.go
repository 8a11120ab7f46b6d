package database

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"pharmaledger/m/internal/migrations"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db := Connect(":memory:")
	migrations.Run(db)
	t.Cleanup(func() { db.Close() })

	return db
}

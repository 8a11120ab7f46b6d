package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema for the pharmacy back office.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS suppliers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            contact_person TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS medicines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            barcode TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
            threshold INTEGER NOT NULL DEFAULT 10,
            expiry_date TEXT,
            category TEXT NOT NULL DEFAULT 'Other'
                CHECK (category IN ('Tablet', 'Syrup', 'Capsule', 'Injection', 'OTC', 'Prescription', 'Other')),
            supplier_id INTEGER REFERENCES suppliers(id),
            status TEXT NOT NULL DEFAULT 'active'
                CHECK (status IN ('active', 'discontinued', 'recalled')),
            low_stock_sent INTEGER NOT NULL DEFAULT 0,
            expiry_sent INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS inventory_transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            medicine_id INTEGER NOT NULL REFERENCES medicines(id),
            type TEXT NOT NULL
                CHECK (type IN ('sale', 'restock', 'adjustment', 'expired-writeoff')),
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            previous_stock INTEGER NOT NULL,
            new_stock INTEGER NOT NULL,
            notes TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS alerts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            medicine_id INTEGER NOT NULL REFERENCES medicines(id),
            type TEXT NOT NULL CHECK (type IN ('low-stock', 'near-expiry', 'expired')),
            message TEXT NOT NULL,
            resolved INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		// One unresolved alert per medicine and type.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open
            ON alerts(medicine_id, type) WHERE resolved = 0;`,
		`CREATE TABLE IF NOT EXISTS petty_cash_entries (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            entry_date TEXT NOT NULL,
            description TEXT NOT NULL,
            kind TEXT NOT NULL CHECK (kind IN ('in', 'out')),
            amount TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS bank_book_entries (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            account TEXT NOT NULL,
            entry_date TEXT NOT NULL,
            description TEXT NOT NULL,
            kind TEXT NOT NULL CHECK (kind IN ('deposit', 'withdrawal')),
            amount TEXT NOT NULL,
            reference TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS payroll_entries (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            employee TEXT NOT NULL,
            month TEXT NOT NULL,
            gross TEXT NOT NULL,
            deductions TEXT NOT NULL,
            net TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            account TEXT NOT NULL,
            entry_date TEXT NOT NULL,
            description TEXT NOT NULL,
            debit TEXT NOT NULL DEFAULT '0',
            credit TEXT NOT NULL DEFAULT '0',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}

package seed

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"pharmaledger/m/domain"
)

// LoadCatalog ingests a medicine catalog CSV into the medicines table,
// ignoring barcodes that already exist. Expected columns: barcode, name,
// category, description, threshold, expiry_date. Seeded rows start at zero
// stock; opening quantities are recorded through inventory transactions.
func LoadCatalog(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load medicine catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read catalog header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start catalog transaction: %v", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO medicines (barcode, name, category, description, threshold, expiry_date)
	                          VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("unable to prepare catalog insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read catalog row: %v", err)
			continue
		}
		if len(record) < 2 {
			continue
		}
		barcode := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		if barcode == "" || name == "" {
			continue
		}

		category := domain.CategoryOther
		if len(record) > 2 && domain.ValidCategory(strings.TrimSpace(record[2])) {
			category = strings.TrimSpace(record[2])
		}
		description := ""
		if len(record) > 3 {
			description = strings.TrimSpace(record[3])
		}
		threshold := int64(10)
		if len(record) > 4 {
			if parsed, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64); err == nil && parsed >= 0 {
				threshold = parsed
			}
		}
		var expiry *string
		if len(record) > 5 {
			if trimmed := strings.TrimSpace(record[5]); trimmed != "" {
				expiry = &trimmed
			}
		}

		if _, err := stmt.Exec(barcode, name, category, description, threshold, expiry); err != nil {
			log.Printf("unable to insert catalog row %s: %v", barcode, err)
			continue
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit catalog load: %v", err)
		return
	}
	log.Printf("seeded %d medicines from %s", rows, csvPath)
}

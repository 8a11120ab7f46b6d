package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"pharmaledger/m/domain"
	"pharmaledger/m/internal/database"
)

const testSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	db := database.NewTestDB(t)
	handler := New(db, testSecret)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	body, _ := json.Marshal(map[string]string{
		"username": "owner",
		"email":    "owner@example.com",
		"password": "password",
		"role":     "owner",
	})
	resp, err := http.Post(server.URL+"/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: %d", resp.StatusCode)
	}

	var auth struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&auth)
	if auth.Token == "" {
		t.Fatal("empty token from register")
	}
	return server, auth.Token
}

func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp
}

func createTestMedicine(t *testing.T, server *httptest.Server, token, barcode string, stock, threshold int64) domain.Medicine {
	t.Helper()
	var medicine domain.Medicine
	resp := doJSON(t, "POST", server.URL+"/medicines", token, map[string]any{
		"barcode":   barcode,
		"name":      "Medicine " + barcode,
		"category":  domain.CategoryTablet,
		"stock":     stock,
		"threshold": threshold,
	}, &medicine)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating medicine: %d", resp.StatusCode)
	}
	return medicine
}

func TestAuthRequired(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/medicines")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestTransactionFlow(t *testing.T) {
	server, token := setupTestServer(t)

	medicine := createTestMedicine(t, server, token, "TXN-001", 10, 5)
	if medicine.Stock != 10 {
		t.Fatalf("expected opening stock 10, got %d", medicine.Stock)
	}

	var applied transactionResponse
	resp := doJSON(t, "POST", server.URL+"/transactions", token, map[string]any{
		"medicine_id": medicine.ID,
		"type":        domain.TxSale,
		"quantity":    3,
	}, &applied)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if applied.PreviousStock != 10 || applied.NewStock != 7 {
		t.Errorf("expected previous 10 and new 7, got %d and %d", applied.PreviousStock, applied.NewStock)
	}

	var loaded domain.Medicine
	doJSON(t, "GET", server.URL+"/medicines/"+itoa(medicine.ID), token, nil, &loaded)
	if loaded.Stock != 7 {
		t.Errorf("expected stock 7, got %d", loaded.Stock)
	}

	// Insufficient stock leaves everything untouched.
	var failure map[string]string
	resp = doJSON(t, "POST", server.URL+"/transactions", token, map[string]any{
		"medicine_id": medicine.ID,
		"type":        domain.TxSale,
		"quantity":    20,
	}, &failure)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for insufficient stock, got %d", resp.StatusCode)
	}
	if failure["error"] == "" {
		t.Error("expected error message reporting stock state")
	}

	doJSON(t, "GET", server.URL+"/medicines/"+itoa(medicine.ID), token, nil, &loaded)
	if loaded.Stock != 7 {
		t.Errorf("stock changed after failed transaction: %d", loaded.Stock)
	}

	// Opening restock plus one sale.
	var txns []domain.InventoryTransaction
	doJSON(t, "GET", server.URL+"/transactions?medicine_id="+itoa(medicine.ID), token, nil, &txns)
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}

	resp = doJSON(t, "POST", server.URL+"/transactions", token, map[string]any{
		"medicine_id": int64(9999),
		"type":        domain.TxSale,
		"quantity":    1,
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown medicine, got %d", resp.StatusCode)
	}
}

func TestMedicineUpdateRoutesStockThroughTransactions(t *testing.T) {
	server, token := setupTestServer(t)

	medicine := createTestMedicine(t, server, token, "TXN-002", 7, 5)

	var updated domain.Medicine
	resp := doJSON(t, "PUT", server.URL+"/medicines/"+itoa(medicine.ID), token, map[string]any{
		"name":  "Medicine TXN-002",
		"stock": 4,
	}, &updated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if updated.Stock != 4 {
		t.Errorf("expected stock 4 after correction, got %d", updated.Stock)
	}

	var txns []domain.InventoryTransaction
	doJSON(t, "GET", server.URL+"/transactions?medicine_id="+itoa(medicine.ID), token, nil, &txns)
	if len(txns) != 2 {
		t.Fatalf("expected opening restock plus adjustment, got %d transactions", len(txns))
	}
	if txns[0].Type != domain.TxAdjustment || txns[0].Quantity != 3 {
		t.Errorf("expected adjustment of 3, got %s of %d", txns[0].Type, txns[0].Quantity)
	}
	if txns[0].PreviousStock != 7 || txns[0].NewStock != 4 {
		t.Errorf("expected previous 7 and new 4, got %d and %d", txns[0].PreviousStock, txns[0].NewStock)
	}

	// Raising stock records a restock.
	doJSON(t, "PUT", server.URL+"/medicines/"+itoa(medicine.ID), token, map[string]any{
		"name":  "Medicine TXN-002",
		"stock": 20,
	}, &updated)
	if updated.Stock != 20 {
		t.Errorf("expected stock 20, got %d", updated.Stock)
	}
	doJSON(t, "GET", server.URL+"/transactions?medicine_id="+itoa(medicine.ID), token, nil, &txns)
	if len(txns) != 3 || txns[0].Type != domain.TxRestock || txns[0].Quantity != 16 {
		t.Errorf("expected restock of 16 on top, got %+v", txns)
	}
}

func TestAlertLifecycle(t *testing.T) {
	server, token := setupTestServer(t)

	medicine := createTestMedicine(t, server, token, "ALR-100", 2, 5)

	var alerts []domain.Alert
	resp := doJSON(t, "GET", server.URL+"/alerts?resolved=false", token, nil, &alerts)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(alerts) != 1 || alerts[0].Type != domain.AlertLowStock {
		t.Fatalf("expected one low-stock alert, got %+v", alerts)
	}

	// Listing again does not duplicate.
	doJSON(t, "GET", server.URL+"/alerts?resolved=false", token, nil, &alerts)
	if len(alerts) != 1 {
		t.Fatalf("expected alert dedup, got %d alerts", len(alerts))
	}
	alertID := alerts[0].ID

	// Restock above the threshold, then resolve: no unresolved alerts remain
	// and none are recreated.
	doJSON(t, "POST", server.URL+"/transactions", token, map[string]any{
		"medicine_id": medicine.ID,
		"type":        domain.TxRestock,
		"quantity":    50,
	}, nil)

	var resolved domain.Alert
	resp = doJSON(t, "PATCH", server.URL+"/alerts/"+itoa(alertID)+"/resolve", token, nil, &resolved)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 resolving alert, got %d", resp.StatusCode)
	}
	if !resolved.Resolved {
		t.Error("expected alert to be resolved")
	}

	// Idempotent.
	resp = doJSON(t, "PATCH", server.URL+"/alerts/"+itoa(alertID)+"/resolve", token, nil, &resolved)
	if resp.StatusCode != http.StatusOK || !resolved.Resolved {
		t.Errorf("expected second resolve to succeed, got %d", resp.StatusCode)
	}

	doJSON(t, "GET", server.URL+"/alerts?resolved=false", token, nil, &alerts)
	if len(alerts) != 0 {
		t.Errorf("expected no unresolved alerts, got %+v", alerts)
	}

	resp = doJSON(t, "PATCH", server.URL+"/alerts/999/resolve", token, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown alert, got %d", resp.StatusCode)
	}
}

func TestDeleteMedicine(t *testing.T) {
	server, token := setupTestServer(t)

	// No transactions reference it: hard delete.
	fresh := createTestMedicine(t, server, token, "DEL-001", 0, 5)
	var status map[string]string
	resp := doJSON(t, "DELETE", server.URL+"/medicines/"+itoa(fresh.ID), token, nil, &status)
	if resp.StatusCode != http.StatusOK || status["status"] != "deleted" {
		t.Errorf("expected hard delete, got %d %v", resp.StatusCode, status)
	}

	// Referenced by its opening restock: soft retire.
	used := createTestMedicine(t, server, token, "DEL-002", 5, 5)
	resp = doJSON(t, "DELETE", server.URL+"/medicines/"+itoa(used.ID), token, nil, &status)
	if resp.StatusCode != http.StatusOK || status["status"] != "discontinued" {
		t.Errorf("expected soft retire, got %d %v", resp.StatusCode, status)
	}

	var loaded domain.Medicine
	doJSON(t, "GET", server.URL+"/medicines/"+itoa(used.ID), token, nil, &loaded)
	if loaded.Status != domain.StatusDiscontinued {
		t.Errorf("expected discontinued status, got %s", loaded.Status)
	}
}

func TestPettyCashBalanceIsDerived(t *testing.T) {
	server, token := setupTestServer(t)

	entries := []map[string]any{
		{"entry_date": "2026-03-01", "description": "float top-up", "kind": "in", "amount": "100.50"},
		{"entry_date": "2026-03-02", "description": "stationery", "kind": "out", "amount": "25.25"},
	}
	for _, entry := range entries {
		resp := doJSON(t, "POST", server.URL+"/ledger/petty-cash", token, entry, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
	}

	var balance struct {
		Balance decimal.Decimal `json:"balance"`
		Entries int             `json:"entries"`
	}
	doJSON(t, "GET", server.URL+"/ledger/petty-cash/balance", token, nil, &balance)
	if !balance.Balance.Equal(decimal.RequireFromString("75.25")) {
		t.Errorf("expected balance 75.25, got %s", balance.Balance)
	}
	if balance.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", balance.Entries)
	}

	resp := doJSON(t, "POST", server.URL+"/ledger/petty-cash", token, map[string]any{
		"entry_date": "2026-03-03", "description": "bad", "kind": "sideways", "amount": "1",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", resp.StatusCode)
	}
}

func TestBankBookBalancePerAccount(t *testing.T) {
	server, token := setupTestServer(t)

	entries := []map[string]any{
		{"account": "operating", "entry_date": "2026-03-01", "description": "opening deposit", "kind": "deposit", "amount": "1000"},
		{"account": "operating", "entry_date": "2026-03-05", "description": "rent", "kind": "withdrawal", "amount": "400.10"},
		{"account": "savings", "entry_date": "2026-03-05", "description": "reserve", "kind": "deposit", "amount": "99"},
	}
	for _, entry := range entries {
		resp := doJSON(t, "POST", server.URL+"/ledger/bank-book", token, entry, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
	}

	var balance struct {
		Account string          `json:"account"`
		Balance decimal.Decimal `json:"balance"`
	}
	doJSON(t, "GET", server.URL+"/ledger/bank-book/operating/balance", token, nil, &balance)
	if !balance.Balance.Equal(decimal.RequireFromString("599.90")) {
		t.Errorf("expected balance 599.90, got %s", balance.Balance)
	}

	var list []domain.BankBookEntry
	doJSON(t, "GET", server.URL+"/ledger/bank-book?account=savings", token, nil, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 savings entry, got %d", len(list))
	}
}

func TestPayrollDerivesNet(t *testing.T) {
	server, token := setupTestServer(t)

	var entry domain.PayrollEntry
	resp := doJSON(t, "POST", server.URL+"/ledger/payroll", token, map[string]any{
		"employee":   "R. Ahmed",
		"month":      "2026-03",
		"gross":      "1000",
		"deductions": "150",
	}, &entry)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if !entry.Net.Equal(decimal.RequireFromString("850")) {
		t.Errorf("expected net 850, got %s", entry.Net)
	}

	resp = doJSON(t, "POST", server.URL+"/ledger/payroll", token, map[string]any{
		"employee":   "R. Ahmed",
		"month":      "2026-03",
		"gross":      "100",
		"deductions": "150",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 when deductions exceed gross, got %d", resp.StatusCode)
	}
}

func TestGeneralLedgerEntryValidation(t *testing.T) {
	server, token := setupTestServer(t)

	resp := doJSON(t, "POST", server.URL+"/ledger/entries", token, map[string]any{
		"account":     "sales",
		"entry_date":  "2026-03-01",
		"description": "daily takings",
		"debit":       "10",
		"credit":      "10",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 when both debit and credit set, got %d", resp.StatusCode)
	}

	var entry domain.LedgerEntry
	resp = doJSON(t, "POST", server.URL+"/ledger/entries", token, map[string]any{
		"account":     "sales",
		"entry_date":  "2026-03-01",
		"description": "daily takings",
		"credit":      "250.00",
	}, &entry)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var list []domain.LedgerEntry
	doJSON(t, "GET", server.URL+"/ledger/entries?account=sales", token, nil, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 ledger entry, got %d", len(list))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

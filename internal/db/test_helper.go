package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

// SetupTestDB connects to the holdings database, creating the schema if
// needed. Tests that need Postgres are skipped when it is unreachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Connect()
	if err != nil {
		t.Skipf("holdings database unavailable: %v", err)
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS holdings (
            client_id TEXT NOT NULL,
            symbol    TEXT NOT NULL,
            quantity  NUMERIC NOT NULL,
            PRIMARY KEY (client_id, symbol)
        )
    `)
	if err != nil {
		t.Fatalf("Failed to create holdings table: %v", err)
	}

	return db
}

// CleanupTestHoldings removes a test client's rows.
func CleanupTestHoldings(t *testing.T, db *sql.DB, clientID string) {
	t.Helper()

	if _, err := db.Exec("DELETE FROM holdings WHERE client_id = $1", clientID); err != nil {
		t.Logf("Warning: failed to cleanup holdings for %s: %v", clientID, err)
	}
}

// SeedTestHoldings inserts positions for a test client.
func SeedTestHoldings(t *testing.T, store *HoldingsStore, clientID string, quantities map[string]float64) {
	t.Helper()

	for symbol, qty := range quantities {
		h := Holding{
			ClientID: clientID,
			Symbol:   symbol,
			Quantity: decimal.NewFromFloat(qty),
		}
		if err := store.UpsertHolding(context.Background(), h); err != nil {
			t.Fatalf("Failed to seed holding %s: %v", fmt.Sprintf("%s/%s", clientID, symbol), err)
		}
	}
}

// Package db implements the client/portfolio store collaborator: a Postgres
// table of per-client holdings that the HTTP layer prices with the market
// feed. The analytics engine itself never touches this store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/shopspring/decimal"
)

// Connect opens the holdings database using env-driven settings.
func Connect() (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "analytics"),
		getEnv("DB_PASSWORD", "analytics123"),
		getEnv("DB_NAME", "portfolio_db"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Helper function to get environment variable with default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Holding is one client position: a symbol and the quantity held.
type Holding struct {
	ClientID string          `json:"client_id"`
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
}

// HoldingsStore reads and writes client holdings.
type HoldingsStore struct {
	db *sql.DB
}

// NewHoldingsStore wraps an open database handle.
func NewHoldingsStore(db *sql.DB) *HoldingsStore {
	return &HoldingsStore{db: db}
}

// Holdings returns the client's positions ordered by symbol.
func (s *HoldingsStore) Holdings(ctx context.Context, clientID string) ([]Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT client_id, symbol, quantity
        FROM holdings
        WHERE client_id = $1 AND quantity > 0
        ORDER BY symbol
    `, clientID)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]Holding, 0)
	for rows.Next() {
		var h Holding
		var quantity string
		if err := rows.Scan(&h.ClientID, &h.Symbol, &quantity); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h.Quantity, err = decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return holdings, nil
}

// UpsertHolding inserts or replaces one position.
func (s *HoldingsStore) UpsertHolding(ctx context.Context, h Holding) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO holdings (client_id, symbol, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (client_id, symbol)
        DO UPDATE SET quantity = $3
    `, h.ClientID, h.Symbol, h.Quantity.String())
	if err != nil {
		return fmt.Errorf("upsert holding: %w", err)
	}
	return nil
}

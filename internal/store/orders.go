package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Registers the "libsql" driver for remote URLs (libsql://, wss://, https://).
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	// Registers the "sqlite" driver for local file: URLs.
	_ "modernc.org/sqlite"

	"greenlife/internal/domain"
)

// driverFor selects the database/sql driver by URL scheme: local files go to
// the embedded SQLite driver, everything else to the remote libSQL client.
func driverFor(dbURL string) string {
	if strings.HasPrefix(dbURL, "file:") {
		return "sqlite"
	}
	return "libsql"
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	total      REAL NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS order_lines (
	order_id   TEXT NOT NULL REFERENCES orders(id),
	product_id TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	unit_price REAL NOT NULL,
	line_total REAL NOT NULL
);
`

// OrderStore persists checked-out orders to a libSQL database.
//
// Supported URL schemes:
//
//	Local file:   "file:orders.db"
//	Remote Turso: "libsql://[db-name].turso.io?authToken=[token]"
type OrderStore struct {
	db *sql.DB
}

// Open connects to the database, verifies the connection with a ping, and
// ensures the order tables exist.
func Open(dbURL string) (*OrderStore, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("store: database URL must not be empty")
	}

	db, err := sql.Open(driverFor(dbURL), dbURL)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to create schema: %w", err)
	}

	return &OrderStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *OrderStore) Close() error {
	return s.db.Close()
}

// SaveOrder writes the order header and its lines in a single transaction.
func (s *OrderStore) SaveOrder(ctx context.Context, order domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, session_id, total, created_at) VALUES (?, ?, ?, ?)`,
		order.ID, order.SessionID, order.Total, order.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, product_id, quantity, unit_price, line_total) VALUES (?, ?, ?, ?, ?)`,
			order.ID, line.ProductID, line.Quantity, line.UnitPrice, line.LineTotal)
		if err != nil {
			return fmt.Errorf("store: insert order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// RecentOrders returns up to limit orders, newest first, without their lines.
func (s *OrderStore) RecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, total, created_at FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var created string
		if err := rows.Scan(&o.ID, &o.SessionID, &o.Total, &created); err != nil {
			return nil, fmt.Errorf("store: scan order: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			o.CreatedAt = t
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Ensure OrderStore implements domain.OrderStore.
var _ domain.OrderStore = (*OrderStore)(nil)

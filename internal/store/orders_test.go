package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"greenlife/internal/domain"
)

func openTestStore(t *testing.T) *OrderStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.db")
	s, err := Open("file:" + path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleOrder(id, sessionID string) domain.Order {
	return domain.Order{
		ID:        id,
		SessionID: sessionID,
		Lines: []domain.CartLine{
			{ProductID: "rice-1kg", Quantity: 2, UnitPrice: 120, LineTotal: 240},
			{ProductID: "milk-1l", Quantity: 1, UnitPrice: 80, LineTotal: 80},
		},
		Total:     320,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestOpen_WhenEmptyURL_ShouldReturnError(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("Open(\"\") should return error")
	}
}

func TestDriverFor_ShouldSelectByScheme(t *testing.T) {
	if got := driverFor("file:orders.db"); got != "sqlite" {
		t.Errorf("driverFor(file:) = %q, want sqlite", got)
	}
	if got := driverFor("libsql://db.example.turso.io"); got != "libsql" {
		t.Errorf("driverFor(libsql://) = %q, want libsql", got)
	}
}

func TestSaveOrder_ShouldPersistHeaderAndLines(t *testing.T) {
	s := openTestStore(t)
	order := sampleOrder("order-1", "session-1")

	if err := s.SaveOrder(context.Background(), order); err != nil {
		t.Fatalf("SaveOrder() error: %v", err)
	}

	var lineCount int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM order_lines WHERE order_id = ?`, "order-1").Scan(&lineCount)
	if err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if lineCount != 2 {
		t.Errorf("persisted %d lines, want 2", lineCount)
	}

	recent, err := s.RecentOrders(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentOrders() error: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("RecentOrders() returned %d orders, want 1", len(recent))
	}
	got := recent[0]
	if got.ID != "order-1" || got.SessionID != "session-1" || got.Total != 320 {
		t.Errorf("unexpected order: %+v", got)
	}
	if !got.CreatedAt.Equal(order.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, order.CreatedAt)
	}
}

func TestSaveOrder_WhenDuplicateID_ShouldReturnError(t *testing.T) {
	s := openTestStore(t)
	order := sampleOrder("order-1", "session-1")

	if err := s.SaveOrder(context.Background(), order); err != nil {
		t.Fatalf("first SaveOrder() error: %v", err)
	}
	if err := s.SaveOrder(context.Background(), order); err == nil {
		t.Fatal("duplicate order ID should return error")
	}

	// The failed transaction must not leave partial lines behind.
	var lineCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM order_lines`).Scan(&lineCount); err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if lineCount != 2 {
		t.Errorf("line count = %d, want 2 (no partial writes)", lineCount)
	}
}

func TestRecentOrders_ShouldReturnNewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"order-a", "order-b", "order-c"} {
		o := sampleOrder(id, "session-1")
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.SaveOrder(context.Background(), o); err != nil {
			t.Fatalf("SaveOrder(%s) error: %v", id, err)
		}
	}

	recent, err := s.RecentOrders(context.Background(), 2)
	if err != nil {
		t.Fatalf("RecentOrders() error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("RecentOrders(2) returned %d orders", len(recent))
	}
	if recent[0].ID != "order-c" || recent[1].ID != "order-b" {
		t.Errorf("order = [%s %s], want [order-c order-b]", recent[0].ID, recent[1].ID)
	}
}

func TestRecentOrders_WhenLimitZero_ShouldReturnNothing(t *testing.T) {
	s := openTestStore(t)

	recent, err := s.RecentOrders(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentOrders(0) error: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("RecentOrders(0) returned %d orders, want 0", len(recent))
	}
}

func TestOpen_ShouldBeIdempotentOnSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.db")
	s1, err := Open("file:" + path)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	if err := s1.SaveOrder(context.Background(), sampleOrder("order-1", "s")); err != nil {
		t.Fatalf("SaveOrder() error: %v", err)
	}
	s1.Close()

	s2, err := Open("file:" + path)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	defer s2.Close()
	recent, err := s2.RecentOrders(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentOrders() error: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("reopened store has %d orders, want 1", len(recent))
	}
}

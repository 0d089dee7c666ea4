package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"greenlife/internal/cart"
	"greenlife/internal/domain"
)

// mockOrderStore records saved orders and can be primed to fail.
type mockOrderStore struct {
	saved   []domain.Order
	saveErr error
}

func (m *mockOrderStore) SaveOrder(ctx context.Context, order domain.Order) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, order)
	return nil
}

func TestRegisterShopTools_ShouldRegisterAllToolsInAdvertisedOrder(t *testing.T) {
	reg := NewToolRegistry()
	cat := testCatalog(t)

	err := RegisterShopTools(reg, cat, cart.NewManager(), nil, "session-1", "₹")
	if err != nil {
		t.Fatalf("RegisterShopTools() error: %v", err)
	}

	want := []string{
		"get_product_info",
		"search_products",
		"add_to_cart",
		"get_cart_summary",
		"remove_from_cart",
		"checkout",
	}
	defs := reg.Definitions()
	if len(defs) != len(want) {
		t.Fatalf("registered %d tools, want %d", len(defs), len(want))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("defs[%d].Name = %q, want %q", i, defs[i].Name, name)
		}
	}
}

func TestGetProductInfoTool_WhenNoCategory_ShouldListAllProducts(t *testing.T) {
	tool := &GetProductInfoTool{Catalog: testCatalog(t), Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if !strings.Contains(res.Data, "Organic Rice") || !strings.Contains(res.Data, "Organic Milk") {
		t.Errorf("listing should include both products, got: %q", res.Data)
	}
	if res.Metadata["count"] != "2" {
		t.Errorf("count metadata = %q, want 2", res.Metadata["count"])
	}
}

func TestGetProductInfoTool_WhenCategoryGiven_ShouldFilter(t *testing.T) {
	tool := &GetProductInfoTool{Catalog: testCatalog(t), Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{"category":"dairy"}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if strings.Contains(res.Data, "Organic Rice") {
		t.Errorf("dairy listing should not include rice, got: %q", res.Data)
	}
	if !strings.Contains(res.Data, "Organic Milk") {
		t.Errorf("dairy listing should include milk, got: %q", res.Data)
	}
}

func TestGetProductInfoTool_WhenCategoryEmpty_ShouldReportNoProducts(t *testing.T) {
	tool := &GetProductInfoTool{Catalog: testCatalog(t), Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{"category":"electronics"}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if res.Metadata["count"] != "0" {
		t.Errorf("count metadata = %q, want 0", res.Metadata["count"])
	}
}

func TestSearchProductsTool_ShouldMatchDescriptions(t *testing.T) {
	tool := &SearchProductsTool{Catalog: testCatalog(t), Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{"term":"basmati"}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if !strings.Contains(res.Data, "Organic Rice") {
		t.Errorf("search should match the rice description, got: %q", res.Data)
	}
}

func TestSearchProductsTool_WhenNoMatch_ShouldSaySo(t *testing.T) {
	tool := &SearchProductsTool{Catalog: testCatalog(t), Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{"term":"quinoa"}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if res.Metadata["count"] != "0" {
		t.Errorf("count metadata = %q, want 0", res.Metadata["count"])
	}
}

func TestAddToCartTool_ShouldAddAndReportTotal(t *testing.T) {
	mgr := cart.NewManager()
	tool := &AddToCartTool{Catalog: testCatalog(t), Cart: mgr, Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{"product_name":"Organic Rice","quantity":2}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if !strings.Contains(res.Data, "₹240.00") {
		t.Errorf("result should report the cart total, got: %q", res.Data)
	}
	if res.Metadata["status"] != "ok" {
		t.Errorf("status metadata = %q, want ok", res.Metadata["status"])
	}
	if mgr.Summary().Total != 240 {
		t.Errorf("cart total = %v, want 240", mgr.Summary().Total)
	}
}

func TestAddToCartTool_WhenUnknownProduct_ShouldReturnError(t *testing.T) {
	tool := &AddToCartTool{Catalog: testCatalog(t), Cart: cart.NewManager(), Currency: "₹"}

	_, err := tool.Call(json.RawMessage(`{"product_name":"Dragon Fruit","quantity":2}`))
	if err == nil {
		t.Fatal("unknown product should return error")
	}
}

func TestAddToCartTool_WhenBelowMinimumOrder_ShouldReturnRejectedResult(t *testing.T) {
	mgr := cart.NewManager()
	tool := &AddToCartTool{Catalog: testCatalog(t), Cart: mgr, Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{"product_name":"Organic Rice","quantity":1}`))
	if err != nil {
		t.Fatalf("validation rejection should not be an error: %v", err)
	}
	if res.Metadata["status"] != "rejected" || res.Metadata["reason"] != "quantity_too_low" {
		t.Errorf("metadata = %v, want rejected/quantity_too_low", res.Metadata)
	}
	if len(mgr.Summary().Lines) != 0 {
		t.Error("cart should be unchanged after rejected add")
	}
}

func TestAddToCartTool_WhenInsufficientStock_ShouldReturnRejectedResult(t *testing.T) {
	tool := &AddToCartTool{Catalog: testCatalog(t), Cart: cart.NewManager(), Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{"product_name":"Organic Milk","quantity":25}`))
	if err != nil {
		t.Fatalf("validation rejection should not be an error: %v", err)
	}
	if res.Metadata["reason"] != "insufficient_stock" {
		t.Errorf("reason metadata = %q, want insufficient_stock", res.Metadata["reason"])
	}
}

func TestRemoveFromCartTool_ShouldRemoveLine(t *testing.T) {
	mgr := cart.NewManager()
	cat := testCatalog(t)
	add := &AddToCartTool{Catalog: cat, Cart: mgr, Currency: "₹"}
	if _, err := add.Call(json.RawMessage(`{"product_name":"Organic Rice","quantity":2}`)); err != nil {
		t.Fatalf("seed add failed: %v", err)
	}

	tool := &RemoveFromCartTool{Catalog: cat, Cart: mgr, Currency: "₹"}
	res, err := tool.Call(json.RawMessage(`{"product_name":"Organic Rice"}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if !strings.Contains(res.Data, "₹0.00") {
		t.Errorf("result should report the new total, got: %q", res.Data)
	}
	if len(mgr.Summary().Lines) != 0 {
		t.Error("cart should be empty after removal")
	}
}

func TestGetCartSummaryTool_WhenEmpty_ShouldSayEmpty(t *testing.T) {
	tool := &GetCartSummaryTool{Catalog: testCatalog(t), Cart: cart.NewManager(), Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if res.Data != "Your cart is empty." {
		t.Errorf("Data = %q", res.Data)
	}
}

func TestCheckoutTool_WhenCartEmpty_ShouldReturnRejectedResult(t *testing.T) {
	tool := &CheckoutTool{Cart: cart.NewManager(), SessionID: "s1", Currency: "₹"}

	res, err := tool.Call(json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("empty checkout should not be an error: %v", err)
	}
	if res.Metadata["reason"] != "empty_cart" {
		t.Errorf("reason metadata = %q, want empty_cart", res.Metadata["reason"])
	}
}

func TestCheckoutTool_ShouldPersistOrderAndResetCart(t *testing.T) {
	mgr := cart.NewManager()
	cat := testCatalog(t)
	add := &AddToCartTool{Catalog: cat, Cart: mgr, Currency: "₹"}
	if _, err := add.Call(json.RawMessage(`{"product_name":"Organic Rice","quantity":2}`)); err != nil {
		t.Fatalf("seed add failed: %v", err)
	}
	store := &mockOrderStore{}

	tool := &CheckoutTool{Cart: mgr, Orders: store, SessionID: "s1", Currency: "₹"}
	res, err := tool.Call(json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if res.Metadata["status"] != "ok" {
		t.Errorf("status metadata = %q, want ok", res.Metadata["status"])
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d orders, want 1", len(store.saved))
	}
	order := store.saved[0]
	if order.SessionID != "s1" || order.Total != 240 || order.ID == "" {
		t.Errorf("unexpected order: %+v", order)
	}
	if len(mgr.Summary().Lines) != 0 {
		t.Error("cart should be empty after checkout")
	}
}

func TestCheckoutTool_WhenSaveFails_ShouldReturnError(t *testing.T) {
	mgr := cart.NewManager()
	cat := testCatalog(t)
	add := &AddToCartTool{Catalog: cat, Cart: mgr, Currency: "₹"}
	if _, err := add.Call(json.RawMessage(`{"product_name":"Organic Rice","quantity":2}`)); err != nil {
		t.Fatalf("seed add failed: %v", err)
	}
	store := &mockOrderStore{saveErr: errors.New("db down")}

	tool := &CheckoutTool{Cart: mgr, Orders: store, SessionID: "s1", Currency: "₹"}
	if _, err := tool.Call(json.RawMessage(`{}`)); err == nil {
		t.Fatal("failed save should return error")
	}

	summary := mgr.Summary()
	if len(summary.Lines) != 1 || summary.Total != 240 {
		t.Errorf("cart should be untouched after a failed save, got %d lines total %v",
			len(summary.Lines), summary.Total)
	}
	if summary.Status != domain.CartActive {
		t.Errorf("cart status = %q, want active", summary.Status)
	}
}

func TestCheckoutTool_WhenNoOrderStore_ShouldStillCheckout(t *testing.T) {
	mgr := cart.NewManager()
	cat := testCatalog(t)
	add := &AddToCartTool{Catalog: cat, Cart: mgr, Currency: "₹"}
	if _, err := add.Call(json.RawMessage(`{"product_name":"Organic Rice","quantity":2}`)); err != nil {
		t.Fatalf("seed add failed: %v", err)
	}

	tool := &CheckoutTool{Cart: mgr, SessionID: "s1", Currency: "₹"}
	res, err := tool.Call(json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if res.Metadata["status"] != "ok" {
		t.Errorf("status metadata = %q, want ok", res.Metadata["status"])
	}
}

package tooling

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"greenlife/internal/catalog"
	"greenlife/internal/domain"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	data := `{
		"grains": {
			"rice-1kg": {
				"name": "Organic Rice",
				"description": "Premium organic basmati rice",
				"price": 120,
				"unit_size": "1kg",
				"stock": 50,
				"min_order_quantity": 2
			}
		},
		"dairy": {
			"milk-1l": {
				"name": "Organic Milk",
				"description": "Farm-fresh organic milk",
				"price": 80,
				"unit_size": "1L",
				"stock": 20,
				"min_order_quantity": 1
			}
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	c, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("load fixture catalog: %v", err)
	}
	return c
}

func TestFormatPrice_ShouldUseTwoDecimals(t *testing.T) {
	if got := FormatPrice("₹", 120); got != "₹120.00" {
		t.Errorf("FormatPrice = %q, want ₹120.00", got)
	}
	if got := FormatPrice("₹", 99.5); got != "₹99.50" {
		t.Errorf("FormatPrice = %q, want ₹99.50", got)
	}
}

func TestFormatCart_WhenEmpty_ShouldSayEmpty(t *testing.T) {
	cat := testCatalog(t)

	got := FormatCart(domain.Cart{Status: domain.CartActive}, cat, "₹")
	if got != "Your cart is empty." {
		t.Errorf("FormatCart(empty) = %q", got)
	}
}

func TestFormatCart_ShouldRenderLinesAndTotal(t *testing.T) {
	cat := testCatalog(t)
	c := domain.Cart{
		Lines: []domain.CartLine{
			{ProductID: "rice-1kg", Quantity: 2, UnitPrice: 120, LineTotal: 240},
		},
		Total:  240,
		Status: domain.CartActive,
	}

	got := FormatCart(c, cat, "₹")
	if !strings.Contains(got, "Organic Rice x2 @ ₹120.00 = ₹240.00") {
		t.Errorf("FormatCart missing line rendering, got: %q", got)
	}
	if !strings.Contains(got, "Total: ₹240.00") {
		t.Errorf("FormatCart missing total, got: %q", got)
	}
}

func TestFormatCart_WhenProductNoLongerInCatalog_ShouldFallBackToID(t *testing.T) {
	cat := testCatalog(t)
	c := domain.Cart{
		Lines: []domain.CartLine{
			{ProductID: "gone-product", Quantity: 1, UnitPrice: 10, LineTotal: 10},
		},
		Total: 10,
	}

	got := FormatCart(c, cat, "₹")
	if !strings.Contains(got, "gone-product") {
		t.Errorf("FormatCart should fall back to the product ID, got: %q", got)
	}
}

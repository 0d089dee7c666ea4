package tooling

import (
	"fmt"
	"strings"

	"greenlife/internal/catalog"
	"greenlife/internal/domain"
)

// FormatPrice renders an amount with the configured currency symbol and two
// decimal places (e.g. "₹120.00").
func FormatPrice(currency string, amount float64) string {
	return fmt.Sprintf("%s%.2f", currency, amount)
}

// FormatProduct renders one product line for the model and the user.
func FormatProduct(p domain.Product, currency string) string {
	return fmt.Sprintf("%s (%s) - %s per %s, %d in stock, minimum order %d",
		p.Name, p.ID, FormatPrice(currency, p.Price), p.UnitSize, p.Stock, p.MinOrderQuantity)
}

// FormatCart renders the cart summary with per-line and running totals.
// Product display names are resolved through the catalog; lines whose product
// is no longer in the catalog fall back to the product ID.
func FormatCart(c domain.Cart, cat *catalog.Catalog, currency string) string {
	if len(c.Lines) == 0 {
		return "Your cart is empty."
	}
	var sb strings.Builder
	for _, line := range c.Lines {
		name := line.ProductID
		if p, ok := cat.Lookup(line.ProductID); ok {
			name = p.Name
		}
		fmt.Fprintf(&sb, "%s x%d @ %s = %s\n",
			name, line.Quantity,
			FormatPrice(currency, line.UnitPrice),
			FormatPrice(currency, line.LineTotal))
	}
	fmt.Fprintf(&sb, "Total: %s", FormatPrice(currency, c.Total))
	return sb.String()
}

package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"greenlife/internal/cart"
	"greenlife/internal/catalog"
	"greenlife/internal/domain"
)

// unmarshalFunc is the JSON unmarshaler used by tool Call methods.
// Package-level so tests can inject a failing unmarshaler to cover the
// defense-in-depth error path.
var unmarshalFunc = json.Unmarshal

// saveTimeout bounds the order-store write during checkout.
const saveTimeout = 10 * time.Second

// =============================================================================
// Inputs
// =============================================================================

// GetProductInfoInput filters the product listing by category when given.
type GetProductInfoInput struct {
	Category string `json:"category,omitempty" jsonschema:"description=Optional category filter (e.g. grains/spices/pulses)"`
}

// SearchProductsInput is a free-text search over names and descriptions.
type SearchProductsInput struct {
	Term string `json:"term" jsonschema:"description=Search term matched against product name and description"`
}

// AddToCartInput names a product and a quantity of packs.
type AddToCartInput struct {
	ProductName string `json:"product_name" jsonschema:"description=Exact name of the product to add"`
	Quantity    int    `json:"quantity" jsonschema:"minimum=1,description=Number of packs to add"`
}

// RemoveFromCartInput names the product to remove.
type RemoveFromCartInput struct {
	ProductName string `json:"product_name" jsonschema:"description=Exact name of the product to remove"`
}

// GetCartSummaryInput takes no arguments.
type GetCartSummaryInput struct{}

// CheckoutInput takes no arguments.
type CheckoutInput struct{}

// =============================================================================
// get_product_info
// =============================================================================

// GetProductInfoTool lists catalog products, optionally by category.
type GetProductInfoTool struct {
	Catalog  *catalog.Catalog
	Currency string
}

func (t *GetProductInfoTool) Name() string { return "get_product_info" }

func (t *GetProductInfoTool) Description() string {
	return "Get formatted list of products, by category if specified"
}

func (t *GetProductInfoTool) Definition() string {
	return GenerateSchema(GetProductInfoInput{})
}

func (t *GetProductInfoTool) Call(args json.RawMessage) (*domain.ToolResult, error) {
	var input GetProductInfoInput
	if err := unmarshalFunc(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	products := t.Catalog.All()
	if input.Category != "" {
		products = t.Catalog.ByCategory(input.Category)
	}
	if len(products) == 0 {
		return &domain.ToolResult{
			Data:     fmt.Sprintf("No products found in category %q.", input.Category),
			Metadata: map[string]string{"count": "0"},
		}, nil
	}

	var sb strings.Builder
	for _, p := range products {
		sb.WriteString(FormatProduct(p, t.Currency))
		sb.WriteByte('\n')
	}
	return &domain.ToolResult{
		Data:     strings.TrimRight(sb.String(), "\n"),
		Metadata: map[string]string{"count": fmt.Sprintf("%d", len(products))},
	}, nil
}

// =============================================================================
// search_products
// =============================================================================

// SearchProductsTool runs a case-insensitive substring search.
type SearchProductsTool struct {
	Catalog  *catalog.Catalog
	Currency string
}

func (t *SearchProductsTool) Name() string { return "search_products" }

func (t *SearchProductsTool) Description() string {
	return "Search products by name or description"
}

func (t *SearchProductsTool) Definition() string {
	return GenerateSchema(SearchProductsInput{})
}

func (t *SearchProductsTool) Call(args json.RawMessage) (*domain.ToolResult, error) {
	var input SearchProductsInput
	if err := unmarshalFunc(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	matches := t.Catalog.Search(input.Term)
	if len(matches) == 0 {
		return &domain.ToolResult{
			Data:     fmt.Sprintf("No products matched %q.", input.Term),
			Metadata: map[string]string{"count": "0"},
		}, nil
	}
	var sb strings.Builder
	for _, p := range matches {
		sb.WriteString(FormatProduct(p, t.Currency))
		sb.WriteByte('\n')
	}
	return &domain.ToolResult{
		Data:     strings.TrimRight(sb.String(), "\n"),
		Metadata: map[string]string{"count": fmt.Sprintf("%d", len(matches))},
	}, nil
}

// =============================================================================
// add_to_cart
// =============================================================================

// AddToCartTool adds a product to the session cart. Validation rejections
// (minimum order, stock) are reported in the result data, not as errors:
// the dispatcher reserves errors for failures that should be masked by the
// generic error message.
type AddToCartTool struct {
	Catalog  *catalog.Catalog
	Cart     *cart.Manager
	Currency string
}

func (t *AddToCartTool) Name() string { return "add_to_cart" }

func (t *AddToCartTool) Description() string { return "Add a product to cart" }

func (t *AddToCartTool) Definition() string {
	return GenerateSchema(AddToCartInput{})
}

func (t *AddToCartTool) Call(args json.RawMessage) (*domain.ToolResult, error) {
	var input AddToCartInput
	if err := unmarshalFunc(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	product, ok := t.Catalog.FindByName(input.ProductName)
	if !ok {
		return nil, fmt.Errorf("unknown product: %q", input.ProductName)
	}

	if err := t.Cart.AddItem(product, input.Quantity); err != nil {
		if errors.Is(err, cart.ErrQuantityTooLow) {
			return &domain.ToolResult{
				Data: fmt.Sprintf("Cannot add %s: minimum order quantity is %d packs.",
					product.Name, product.MinOrderQuantity),
				Metadata: map[string]string{"status": "rejected", "reason": "quantity_too_low"},
			}, nil
		}
		if errors.Is(err, cart.ErrInsufficientStock) {
			return &domain.ToolResult{
				Data: fmt.Sprintf("Cannot add %s: only %d packs in stock.",
					product.Name, product.Stock),
				Metadata: map[string]string{"status": "rejected", "reason": "insufficient_stock"},
			}, nil
		}
		return nil, err
	}

	summary := t.Cart.Summary()
	return &domain.ToolResult{
		Data: fmt.Sprintf("Added %d x %s (%s each). Cart total: %s.",
			input.Quantity, product.Name,
			FormatPrice(t.Currency, product.Price),
			FormatPrice(t.Currency, summary.Total)),
		Metadata: map[string]string{"status": "ok", "product_id": product.ID},
	}, nil
}

// =============================================================================
// remove_from_cart
// =============================================================================

// RemoveFromCartTool removes a product's line from the cart.
type RemoveFromCartTool struct {
	Catalog  *catalog.Catalog
	Cart     *cart.Manager
	Currency string
}

func (t *RemoveFromCartTool) Name() string { return "remove_from_cart" }

func (t *RemoveFromCartTool) Description() string { return "Remove a product from cart" }

func (t *RemoveFromCartTool) Definition() string {
	return GenerateSchema(RemoveFromCartInput{})
}

func (t *RemoveFromCartTool) Call(args json.RawMessage) (*domain.ToolResult, error) {
	var input RemoveFromCartInput
	if err := unmarshalFunc(args, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	product, ok := t.Catalog.FindByName(input.ProductName)
	if !ok {
		return nil, fmt.Errorf("unknown product: %q", input.ProductName)
	}

	t.Cart.RemoveItem(product.ID)
	summary := t.Cart.Summary()
	return &domain.ToolResult{
		Data: fmt.Sprintf("Removed %s from the cart. Cart total: %s.",
			product.Name, FormatPrice(t.Currency, summary.Total)),
		Metadata: map[string]string{"status": "ok", "product_id": product.ID},
	}, nil
}

// =============================================================================
// get_cart_summary
// =============================================================================

// GetCartSummaryTool renders the current cart contents and total.
type GetCartSummaryTool struct {
	Catalog  *catalog.Catalog
	Cart     *cart.Manager
	Currency string
}

func (t *GetCartSummaryTool) Name() string { return "get_cart_summary" }

func (t *GetCartSummaryTool) Description() string {
	return "Get current cart contents and total"
}

func (t *GetCartSummaryTool) Definition() string {
	return GenerateSchema(GetCartSummaryInput{})
}

func (t *GetCartSummaryTool) Call(args json.RawMessage) (*domain.ToolResult, error) {
	summary := t.Cart.Summary()
	return &domain.ToolResult{
		Data:     FormatCart(summary, t.Catalog, t.Currency),
		Metadata: map[string]string{"lines": fmt.Sprintf("%d", len(summary.Lines))},
	}, nil
}

// =============================================================================
// checkout
// =============================================================================

// CheckoutTool persists the order when a store is configured, then finalises
// and resets the cart. The cart is cleared only after a successful save, so a
// failed save leaves it intact for retry. Orders is optional (nil skips
// persistence).
type CheckoutTool struct {
	Cart      *cart.Manager
	Orders    domain.OrderStore
	SessionID string
	Currency  string
}

func (t *CheckoutTool) Name() string { return "checkout" }

func (t *CheckoutTool) Description() string { return "Process checkout for current cart" }

func (t *CheckoutTool) Definition() string {
	return GenerateSchema(CheckoutInput{})
}

func (t *CheckoutTool) Call(args json.RawMessage) (*domain.ToolResult, error) {
	summary := t.Cart.Summary()
	if len(summary.Lines) == 0 {
		return &domain.ToolResult{
			Data:     "Your cart is empty, there is nothing to check out.",
			Metadata: map[string]string{"status": "rejected", "reason": "empty_cart"},
		}, nil
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		SessionID: t.SessionID,
		Lines:     summary.Lines,
		Total:     summary.Total,
		CreatedAt: time.Now().UTC(),
	}
	// Save first: a failed save must leave the cart intact.
	if t.Orders != nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := t.Orders.SaveOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("saving order: %w", err)
		}
	}
	if _, err := t.Cart.Checkout(); err != nil {
		return nil, fmt.Errorf("finalising cart: %w", err)
	}

	return &domain.ToolResult{
		Data: fmt.Sprintf("Order %s placed. Total: %s. Your cart is now empty.",
			order.ID, FormatPrice(t.Currency, order.Total)),
		Metadata: map[string]string{"status": "ok", "order_id": order.ID},
	}, nil
}

// RegisterShopTools registers the full shop tool set on reg in the order it
// is advertised to the model. Orders may be nil.
func RegisterShopTools(reg *ToolRegistry, cat *catalog.Catalog, mgr *cart.Manager, orders domain.OrderStore, sessionID, currency string) error {
	tools := []SchemaTool{
		&GetProductInfoTool{Catalog: cat, Currency: currency},
		&SearchProductsTool{Catalog: cat, Currency: currency},
		&AddToCartTool{Catalog: cat, Cart: mgr, Currency: currency},
		&GetCartSummaryTool{Catalog: cat, Cart: mgr, Currency: currency},
		&RemoveFromCartTool{Catalog: cat, Cart: mgr, Currency: currency},
		&CheckoutTool{Cart: mgr, Orders: orders, SessionID: sessionID, Currency: currency},
	}
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

package cart

import (
	"errors"
	"fmt"

	"greenlife/internal/domain"
)

// Validation sentinels. Callers use errors.Is to decide whether to surface
// the message verbatim or translate it to conversational language.
var (
	ErrQuantityTooLow    = errors.New("cart: quantity below minimum order")
	ErrInsufficientStock = errors.New("cart: insufficient stock")
)

// Manager owns one session's cart. It is not safe for concurrent use; each
// session gets its own Manager and processes turns sequentially.
type Manager struct {
	cart domain.Cart
}

// NewManager returns a Manager with an empty active cart.
func NewManager() *Manager {
	return &Manager{cart: domain.Cart{Status: domain.CartActive}}
}

// AddItem validates quantity against the product's minimum order and stock,
// then merges into an existing line or appends a new one with the unit price
// snapshotted from the product. The cart total is recomputed afterwards.
// On a validation error the cart is left unchanged.
func (m *Manager) AddItem(product domain.Product, quantity int) error {
	if quantity < product.MinOrderQuantity {
		return fmt.Errorf("%w: minimum order quantity for %s is %d",
			ErrQuantityTooLow, product.Name, product.MinOrderQuantity)
	}
	if quantity > product.Stock {
		return fmt.Errorf("%w: only %d available for %s",
			ErrInsufficientStock, product.Stock, product.Name)
	}

	for i := range m.cart.Lines {
		if m.cart.Lines[i].ProductID == product.ID {
			m.cart.Lines[i].Quantity += quantity
			m.cart.Lines[i].LineTotal = float64(m.cart.Lines[i].Quantity) * m.cart.Lines[i].UnitPrice
			m.recomputeTotal()
			return nil
		}
	}

	m.cart.Lines = append(m.cart.Lines, domain.CartLine{
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		LineTotal: float64(quantity) * product.Price,
	})
	m.recomputeTotal()
	return nil
}

// RemoveItem removes the line for productID if present. Removing an absent
// product is a no-op, not an error. The total is recomputed either way.
func (m *Manager) RemoveItem(productID string) {
	kept := m.cart.Lines[:0]
	for _, line := range m.cart.Lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	m.cart.Lines = kept
	m.recomputeTotal()
}

// Clear resets to an empty active cart.
func (m *Manager) Clear() {
	m.cart = domain.Cart{Status: domain.CartActive}
}

// Checkout marks the cart checked out and returns its final state, then
// resets to a fresh active cart. Returns an error when the cart is empty.
func (m *Manager) Checkout() (domain.Cart, error) {
	if len(m.cart.Lines) == 0 {
		return domain.Cart{}, errors.New("cart: nothing to check out")
	}
	m.cart.Status = domain.CartCheckedOut
	done := m.Summary()
	done.Status = domain.CartCheckedOut
	m.Clear()
	return done, nil
}

// Summary returns a read-only snapshot of the cart. The returned lines are
// a copy, so callers cannot corrupt internal state through it.
func (m *Manager) Summary() domain.Cart {
	lines := make([]domain.CartLine, len(m.cart.Lines))
	copy(lines, m.cart.Lines)
	return domain.Cart{
		Lines:  lines,
		Total:  m.cart.Total,
		Status: m.cart.Status,
	}
}

// recomputeTotal recalculates the running total from the current lines.
// Called after every mutation so the total never drifts incrementally.
func (m *Manager) recomputeTotal() {
	total := 0.0
	for _, line := range m.cart.Lines {
		total += line.LineTotal
	}
	m.cart.Total = total
}

package cart

import "math"

// Quantity bounds for a single cart line.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// LineItem is one purchasable line in the cart. A line is identified by the
// (ProductID, SizeVariant) pair, so a 5ml and a 10ml decant of the same
// fragrance are distinct lines. Price and display attributes are fixed at
// add time and do not track later product changes.
type LineItem struct {
	ProductID      uint   `json:"product_id"`
	Name           string `json:"name"`
	Brand          string `json:"brand"`
	SizeVariant    string `json:"size"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	ImageURL       string `json:"image_url"`
}

func (li LineItem) sameLine(productID uint, size string) bool {
	return li.ProductID == productID && li.SizeVariant == size
}

// State holds the cart lines together with their derived totals. Totals are
// recomputed inside every transition, so a State observed by any reader is
// always internally consistent.
type State struct {
	Items         []LineItem `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	ShippingCents int64      `json:"shipping_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
}

func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Pricing carries the store-wide rates applied when deriving totals.
type Pricing struct {
	ShippingFeeCents int64
	TaxRate          float64
}

// Store applies pure transitions over cart State. One Store is shared across
// sessions (it only holds pricing); the per-session state lives with the
// session and is passed in explicitly.
type Store struct {
	pricing Pricing
}

func NewStore(pricing Pricing) *Store {
	return &Store{pricing: pricing}
}

// Empty returns the initial cart state with totals already derived.
func (s *Store) Empty() State {
	return s.finalize(nil)
}

// AddItem merges the candidate into the cart. An existing line for the same
// (product, size) pair has its quantity bumped by one and keeps its
// first-added price and display attributes; a new line always starts at
// quantity one. AddItem cannot fail.
func (s *Store) AddItem(state State, candidate LineItem) State {
	items := cloneItems(state.Items)

	for i := range items {
		if items[i].sameLine(candidate.ProductID, candidate.SizeVariant) {
			if items[i].Quantity < MaxQuantity {
				items[i].Quantity++
			}
			return s.finalize(items)
		}
	}

	candidate.Quantity = MinQuantity
	items = append(items, candidate)
	return s.finalize(items)
}

// RemoveItem drops the matching line. Removing an absent line is a no-op,
// not an error.
func (s *Store) RemoveItem(state State, productID uint, size string) State {
	items := make([]LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.sameLine(productID, size) {
			continue
		}
		items = append(items, item)
	}
	return s.finalize(items)
}

// UpdateQuantity sets the quantity of the matching line. Quantities outside
// [MinQuantity, MaxQuantity] are rejected silently and leave the state
// untouched, mirroring how the storefront UI clamps its steppers.
func (s *Store) UpdateQuantity(state State, productID uint, size string, quantity int) State {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return state
	}

	items := cloneItems(state.Items)
	for i := range items {
		if items[i].sameLine(productID, size) {
			items[i].Quantity = quantity
			return s.finalize(items)
		}
	}
	return state
}

// Clear resets the cart to its initial empty state.
func (s *Store) Clear() State {
	return s.Empty()
}

// finalize derives subtotal, shipping, tax and total from the given lines.
// Shipping is a flat fee charged only for non-empty carts; tax is rounded to
// the nearest cent.
func (s *Store) finalize(items []LineItem) State {
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPriceCents * int64(item.Quantity)
	}

	var shipping int64
	if len(items) > 0 {
		shipping = s.pricing.ShippingFeeCents
	}

	tax := int64(math.Round(float64(subtotal) * s.pricing.TaxRate))

	return State{
		Items:         items,
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TaxCents:      tax,
		TotalCents:    subtotal + shipping + tax,
	}
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	cloned := make([]LineItem, len(items))
	copy(cloned, items)
	return cloned
}

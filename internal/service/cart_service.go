package service

import (
	"errors"
	"fmt"

	"decant-store-backend/internal/cart"
	"decant-store-backend/internal/metrics"
	"decant-store-backend/internal/models"
	"decant-store-backend/internal/repository"
)

var ErrOutOfStock = errors.New("product is out of stock")

// CartService owns the per-session cart lifecycle: it loads the session's
// state, applies one pure transition, and persists the result. Requests for
// the same session are serialized by the browser, so there is exactly one
// writer per cart.
type CartService struct {
	store    *cart.Store
	carts    repository.CartStore
	products repository.ProductRepository
}

func NewCartService(store *cart.Store, carts repository.CartStore, products repository.ProductRepository) *CartService {
	return &CartService{
		store:    store,
		carts:    carts,
		products: products,
	}
}

// Get returns the session's cart, falling back to the empty state for
// sessions that have never touched their cart.
func (s *CartService) Get(sessionID string) (cart.State, error) {
	state, err := s.carts.Load(sessionID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return s.store.Empty(), nil
	}
	if err != nil {
		return cart.State{}, err
	}
	return state, nil
}

// AddItem resolves the product and merges it into the cart. The line price
// is fixed at this moment; later catalog price changes do not follow it.
func (s *CartService) AddItem(sessionID string, req models.AddItemRequest) (cart.State, error) {
	product, err := s.products.GetByID(req.ProductID)
	if err != nil {
		return cart.State{}, err
	}
	if product.Stock <= 0 {
		return cart.State{}, ErrOutOfStock
	}

	state, err := s.Get(sessionID)
	if err != nil {
		return cart.State{}, err
	}

	state = s.store.AddItem(state, cart.LineItem{
		ProductID:      product.ID,
		Name:           product.Name,
		Brand:          product.Brand,
		SizeVariant:    req.Size,
		UnitPriceCents: product.PriceCents,
		ImageURL:       product.ImageURL,
	})

	if err := s.carts.Save(sessionID, state); err != nil {
		return cart.State{}, fmt.Errorf("failed to persist cart: %w", err)
	}

	metrics.CartOperation("add_item")
	return state, nil
}

// UpdateQuantity applies the new quantity. Out-of-bounds quantities leave
// the cart untouched and are not an error.
func (s *CartService) UpdateQuantity(sessionID string, req models.UpdateQuantityRequest) (cart.State, error) {
	state, err := s.Get(sessionID)
	if err != nil {
		return cart.State{}, err
	}

	state = s.store.UpdateQuantity(state, req.ProductID, req.Size, req.Quantity)

	if err := s.carts.Save(sessionID, state); err != nil {
		return cart.State{}, fmt.Errorf("failed to persist cart: %w", err)
	}

	metrics.CartOperation("update_quantity")
	return state, nil
}

// RemoveItem drops the line if present.
func (s *CartService) RemoveItem(sessionID string, req models.RemoveItemRequest) (cart.State, error) {
	state, err := s.Get(sessionID)
	if err != nil {
		return cart.State{}, err
	}

	state = s.store.RemoveItem(state, req.ProductID, req.Size)

	if err := s.carts.Save(sessionID, state); err != nil {
		return cart.State{}, fmt.Errorf("failed to persist cart: %w", err)
	}

	metrics.CartOperation("remove_item")
	return state, nil
}

// Clear resets the session's cart to the empty state.
func (s *CartService) Clear(sessionID string) (cart.State, error) {
	if err := s.carts.Delete(sessionID); err != nil {
		return cart.State{}, fmt.Errorf("failed to clear cart: %w", err)
	}

	metrics.CartOperation("clear")
	return s.store.Empty(), nil
}

package service

import (
	"context"

	"decant-store-backend/internal/models"
	"decant-store-backend/internal/payments"
	"decant-store-backend/internal/repository"
)

type mockProductRepo struct {
	products map[uint]models.Product
}

func newMockProductRepo(products ...models.Product) *mockProductRepo {
	repo := &mockProductRepo{products: make(map[uint]models.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (m *mockProductRepo) Create(product *models.Product) error {
	m.products[product.ID] = *product
	return nil
}

func (m *mockProductRepo) GetByID(id uint) (*models.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := product
	return &copied, nil
}

func (m *mockProductRepo) List(filter models.ProductFilter) ([]models.Product, error) {
	var result []models.Product
	for _, p := range m.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Brand != "" && p.Brand != filter.Brand {
			continue
		}
		if filter.Featured != nil && p.Featured != *filter.Featured {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *mockProductRepo) Brands() ([]string, error) {
	seen := make(map[string]bool)
	var brands []string
	for _, p := range m.products {
		if !seen[p.Brand] {
			seen[p.Brand] = true
			brands = append(brands, p.Brand)
		}
	}
	return brands, nil
}

func (m *mockProductRepo) Count() (int64, error) {
	return int64(len(m.products)), nil
}

// mockProvider scripts gateway responses and records every request it saw.
type mockProvider struct {
	requests []payments.Request
	payment  *payments.Payment
	err      error

	// block, when set, stalls CreatePayment until released. Lets tests hold
	// an attempt in flight.
	block   chan struct{}
	entered chan struct{}

	healthErr error
}

func (m *mockProvider) CreatePayment(ctx context.Context, req payments.Request) (*payments.Payment, error) {
	m.requests = append(m.requests, req)
	if m.block != nil {
		if m.entered != nil {
			m.entered <- struct{}{}
		}
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.payment != nil {
		return m.payment, nil
	}
	return &payments.Payment{ID: "pay_test", Status: "COMPLETED"}, nil
}

func (m *mockProvider) Health(ctx context.Context) error {
	return m.healthErr
}

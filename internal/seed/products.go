package seed

import (
	"decant-store-backend/internal/models"
	"decant-store-backend/internal/repository"
	"decant-store-backend/pkg/logger"
)

// EnsureDefaultProducts loads the starter catalog into an empty database.
// A database that already has products is left alone.
func EnsureDefaultProducts(products repository.ProductRepository) {
	if products == nil {
		return
	}

	count, err := products.Count()
	if err != nil {
		logger.Error(err, "Failed to count products", nil)
		return
	}
	if count > 0 {
		logger.Debug("Catalog already seeded", map[string]interface{}{"count": count})
		return
	}

	created := 0
	for _, product := range defaultProducts() {
		if err := products.Create(&product); err != nil {
			logger.Error(err, "Failed to seed product", map[string]interface{}{
				"name": product.Name,
				"size": product.Size,
			})
			continue
		}
		created++
	}

	logger.Info("Seeded default catalog", map[string]interface{}{"created": created})
}

// defaultProducts lists every decant variant as its own row. Prices are in
// cents, one price per (fragrance, size).
func defaultProducts() []models.Product {
	type fragrance struct {
		name        string
		brand       string
		description string
		category    string
		image       string
		featured    bool
		prices      map[string]int64
	}

	fragrances := []fragrance{
		{
			name:        "Aventus",
			brand:       "Creed",
			description: "A timeless blend of fruity and woody notes",
			category:    "Fruity & Rich",
			image:       "/products/cologne1.jpg",
			featured:    true,
			prices:      map[string]int64{"1ml": 1299, "5ml": 4999, "10ml": 8999},
		},
		{
			name:        "Oud Wood",
			brand:       "Tom Ford",
			description: "Rare, exotic, distinctive",
			category:    "Woody & Spicy",
			image:       "/products/cologne2.jpg",
			featured:    true,
			prices:      map[string]int64{"1ml": 1199, "5ml": 4599, "10ml": 8599},
		},
		{
			name:        "Baccarat Rouge 540",
			brand:       "Maison Francis Kurkdjian",
			description: "A masterful blend of jasmine and woody notes",
			category:    "Sweet & Amber",
			image:       "/products/cologne3.jpg",
			featured:    true,
			prices:      map[string]int64{"1ml": 1399, "5ml": 5299, "10ml": 9599},
		},
		{
			name:        "Enclave",
			brand:       "Amouage",
			description: "A luxurious fragrance from the House of Amouage",
			category:    "Oriental & Spicy",
			image:       "/images/fragrances/amouage-enclave.jpg",
			prices:      map[string]int64{"1ml": 1200, "5ml": 2500, "10ml": 4000},
		},
	}

	sizes := []string{"1ml", "5ml", "10ml"}

	var products []models.Product
	for _, f := range fragrances {
		for _, size := range sizes {
			products = append(products, models.Product{
				Name:        f.name,
				Brand:       f.brand,
				Description: f.description,
				Category:    f.category,
				ImageURL:    f.image,
				Featured:    f.featured,
				Size:        size,
				PriceCents:  f.prices[size],
				Stock:       25,
			})
		}
	}

	return products
}

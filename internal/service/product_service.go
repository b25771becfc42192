package service

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"decant-store-backend/internal/models"
	"decant-store-backend/internal/repository"
	"decant-store-backend/pkg/cache"
	"decant-store-backend/pkg/logger"
)

const productCacheTTL = 5 * time.Minute

// ProductService serves catalog reads. Listings are cached; concurrent
// misses for the same filter collapse into a single database query.
type ProductService struct {
	repo  repository.ProductRepository
	cache *cache.Cache
	sfg   singleflight.Group
}

func NewProductService(repo repository.ProductRepository, c *cache.Cache) *ProductService {
	return &ProductService{repo: repo, cache: c}
}

func listCacheKey(filter models.ProductFilter) string {
	featured := "any"
	if filter.Featured != nil {
		featured = fmt.Sprintf("%t", *filter.Featured)
	}
	return fmt.Sprintf("products:category=%s:brand=%s:featured=%s", filter.Category, filter.Brand, featured)
}

func (s *ProductService) List(filter models.ProductFilter) ([]models.Product, error) {
	key := listCacheKey(filter)

	var cached []models.Product
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		products, err := s.repo.List(filter)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(key, products, productCacheTTL); err != nil {
			logger.Warn("Failed to cache product listing", map[string]interface{}{"key": key, "error": err.Error()})
		}

		return products, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]models.Product), nil
}

func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

func (s *ProductService) Brands() ([]string, error) {
	return s.repo.Brands()
}

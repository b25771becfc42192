package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a fragrance decant listing. Prices are stored in integer cents.
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"not null" json:"name"`
	Brand       string `gorm:"index;not null" json:"brand"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"index" json:"category"`

	Size       string `gorm:"not null" json:"size"`
	PriceCents int64  `gorm:"not null" json:"price_cents"`
	Stock      int    `gorm:"default:0" json:"stock"`
	ImageURL   string `json:"image_url"`
	Featured   bool   `gorm:"index;default:false" json:"featured"`
}

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Brand    string
	Featured *bool
}

// AddItemRequest adds one product line to the cart. Quantity is always one
// per add; the size selects the decant variant.
type AddItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
}

// UpdateQuantityRequest changes the quantity of an existing cart line.
type UpdateQuantityRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// RemoveItemRequest drops one cart line.
type RemoveItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
}

// SubmitPaymentRequest carries the tokenized instrument reference produced
// by the client-side capture SDK.
type SubmitPaymentRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

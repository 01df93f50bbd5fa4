package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog
type Product struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name" validate:"required"`
	Description    string          `json:"description" db:"description"`
	Price          Price           `json:"price"`
	Images         []Image         `json:"images" db:"images" validate:"dive"`
	Specifications []Specification `json:"specifications" db:"specifications"`
	Category       string          `json:"category" db:"category" validate:"required"`
	Stock          int             `json:"stock" db:"stock" validate:"gte=0"`
	Rating         float64         `json:"rating" db:"rating" validate:"gte=0,lte=5"`
	ReviewCount    int             `json:"reviewCount" db:"review_count" validate:"gte=0"`
	SEO            SEO             `json:"seo"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// Price is the list price and the percentage taken off it
type Price struct {
	Amount          float64 `json:"amount" db:"price_amount" validate:"gte=0"`
	DiscountPercent float64 `json:"discountPercent" db:"discount_percent" validate:"gte=0,lte=100"`
}

type Image struct {
	URL string `json:"url" validate:"required"`
	Alt string `json:"alt"`
}

// Specification is one row of the product's technical table
type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SEO struct {
	Title       string   `json:"title" db:"seo_title"`
	Description string   `json:"description" db:"seo_description"`
	ImageURL    string   `json:"imageUrl" db:"seo_image_url"`
	Keywords    []string `json:"keywords" db:"seo_keywords"`
	Slug        string   `json:"slug" db:"seo_slug" validate:"required"`
}

// ProductName is the id/name projection scanned by keyword search
type ProductName struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
}

// CategorySummary is a category together with how many products it holds
type CategorySummary struct {
	Name         string `json:"name" db:"category"`
	ProductCount int    `json:"productCount" db:"product_count"`
}

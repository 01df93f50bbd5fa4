package catalog

import (
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ProductListItem carries only the fields a product card needs
type ProductListItem struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Price           domain.Price `json:"price"`
	Image           domain.Image `json:"image"`
	Category        string       `json:"category"`
	Rating          float64      `json:"rating"`
	DiscountedPrice float64      `json:"discountedPrice"`
}

// ProductDetail is the full public view of a product
type ProductDetail struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Price           domain.Price           `json:"price"`
	Images          []domain.Image         `json:"images"`
	Specifications  []domain.Specification `json:"specifications"`
	Category        string                 `json:"category"`
	Stock           int                    `json:"stock"`
	Rating          float64                `json:"rating"`
	ReviewCount     int                    `json:"reviewCount"`
	SEO             domain.SEO             `json:"seo"`
	DiscountedPrice float64                `json:"discountedPrice"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// ListPage is the body of every list and search response, including failures
type ListPage struct {
	Data       []ProductListItem `json:"data"`
	Pagination Pagination        `json:"pagination"`
	Message    string            `json:"message,omitempty"`
}

// DiscountedPrice returns amount - amount*discountPercent/100
func DiscountedPrice(p domain.Price) float64 {
	amount := decimal.NewFromFloat(p.Amount)
	off := amount.Mul(decimal.NewFromFloat(p.DiscountPercent)).Div(hundred)
	return amount.Sub(off).InexactFloat64()
}

// FormatListItem surfaces the first image, or an empty placeholder
func FormatListItem(p domain.Product) ProductListItem {
	image := domain.Image{URL: "", Alt: ""}
	if len(p.Images) > 0 {
		image = p.Images[0]
	}

	return ProductListItem{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		Image:           image,
		Category:        p.Category,
		Rating:          p.Rating,
		DiscountedPrice: DiscountedPrice(p.Price),
	}
}

// FormatList formats products in order and never returns a nil slice
func FormatList(products []domain.Product) []ProductListItem {
	items := make([]ProductListItem, 0, len(products))
	for _, p := range products {
		items = append(items, FormatListItem(p))
	}
	return items
}

func FormatDetail(p domain.Product) ProductDetail {
	images := p.Images
	if images == nil {
		images = []domain.Image{}
	}
	specs := p.Specifications
	if specs == nil {
		specs = []domain.Specification{}
	}
	seo := p.SEO
	if seo.Keywords == nil {
		seo.Keywords = []string{}
	}

	return ProductDetail{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Images:          images,
		Specifications:  specs,
		Category:        p.Category,
		Stock:           p.Stock,
		Rating:          p.Rating,
		ReviewCount:     p.ReviewCount,
		SEO:             seo,
		DiscountedPrice: DiscountedPrice(p.Price),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// NewListPage wraps formatted items with their pagination envelope
func NewListPage(products []domain.Product, totalItems, page, limit int) ListPage {
	return ListPage{
		Data:       FormatList(products),
		Pagination: NewPagination(totalItems, page, limit),
	}
}

// EmptyListPage is the degraded response used for validation and fault paths
func EmptyListPage(page, limit int, message string) ListPage {
	return ListPage{
		Data:       []ProductListItem{},
		Pagination: EmptyPagination(page, limit),
		Message:    message,
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/keyword"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrKeywordRequired = errors.New("search keyword is required")

// ListResult is one page of products and the size of the full result set
type ListResult struct {
	Products   []domain.Product
	TotalItems int
}

// ProductService defines the interface for catalog reads and seeding
type ProductService interface {
	ListProducts(ctx context.Context, query catalog.ListQuery) (*ListResult, error)
	SearchProducts(ctx context.Context, query catalog.SearchQuery) (*ListResult, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.CategorySummary, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logger       *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// ListProducts returns a filtered, sorted page of the catalog
func (s *productService) ListProducts(ctx context.Context, query catalog.ListQuery) (*ListResult, error) {
	products, total, err := s.productRepo.List(ctx, query.Filter(), query.Sort(), query.Window())
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &ListResult{Products: products, TotalItems: total}, nil
}

// SearchProducts scans every product name for the keyword. A name matches when
// either folded string contains the other. Matches keep storage order.
func (s *productService) SearchProducts(ctx context.Context, query catalog.SearchQuery) (*ListResult, error) {
	if strings.TrimSpace(query.Keyword) == "" {
		return nil, ErrKeywordRequired
	}

	started := time.Now()
	matcher := keyword.NewMatcher(query.Keyword)

	names, err := s.productRepo.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product names: %w", err)
	}

	var matched []uuid.UUID
	for _, n := range names {
		if matcher.Match(n.Name) {
			matched = append(matched, n.ID)
		}
	}

	start, end := query.Window().Apply(len(matched))
	products, err := s.productRepo.FindListItemsByIDs(ctx, matched[start:end])
	if err != nil {
		return nil, fmt.Errorf("failed to load matched products: %w", err)
	}

	s.logger.Debug("Product search completed",
		zap.String("keyword", matcher.Keyword()),
		zap.Int("scanned", len(names)),
		zap.Int("matched", len(matched)),
		zap.Duration("duration", time.Since(started)),
	)

	return &ListResult{Products: products, TotalItems: len(matched)}, nil
}

// GetProduct retrieves the full product record
func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// ListCategories returns each category with its product count
func (s *productService) ListCategories(ctx context.Context) ([]domain.CategorySummary, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateProduct stores a catalog entry, assigning an id and timestamps when missing
func (s *productService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrSlugAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("slug", product.SEO.Slug))
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/catalog"
	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSlugAlreadyExists = errors.New("product with this slug already exists")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// List returns one page of list-view rows and the number of rows matching the filter
	List(ctx context.Context, filter catalog.Filter, sort catalog.Sort, window catalog.Window) ([]domain.Product, int, error)
	// ListNames returns the id/name projection of every product in storage order
	ListNames(ctx context.Context) ([]domain.ProductName, error)
	// FindListItemsByIDs returns list-view rows in the order of ids, skipping unknown ids
	FindListItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error)
}

// sortColumns whitelists the ORDER BY targets
var sortColumns = map[catalog.SortField]string{
	catalog.SortByName:   "name",
	catalog.SortByPrice:  "price_amount",
	catalog.SortByRating: "rating",
}

const (
	productColumns = `id, name, description, price_amount, discount_percent, images, specifications,
		category, stock, rating, review_count, seo_title, seo_description, seo_image_url,
		seo_keywords, seo_slug, created_at, updated_at`
	listItemColumns = `id, name, price_amount, discount_percent, images, category, rating`
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	images, err := marshalJSON(product.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}
	specs, err := marshalJSON(product.Specifications)
	if err != nil {
		return fmt.Errorf("failed to encode specifications: %w", err)
	}
	keywords, err := marshalJSON(product.SEO.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode seo keywords: %w", err)
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price.Amount,
		product.Price.DiscountPercent,
		images,
		specs,
		product.Category,
		product.Stock,
		product.Rating,
		product.ReviewCount,
		product.SEO.Title,
		product.SEO.Description,
		product.SEO.ImageURL,
		keywords,
		product.SEO.Slug,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_seo_slug_key") {
			return ErrSlugAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves products with filtering, sorting and pagination
func (r *productRepository) List(ctx context.Context, filter catalog.Filter, sort catalog.Sort, window catalog.Window) ([]domain.Product, int, error) {
	column, ok := sortColumns[sort.Field]
	if !ok {
		column = sortColumns[catalog.SortByName]
	}
	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}

	whereClause, args := buildWhere(filter)
	argIndex := len(args) + 1

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s, id ASC
		LIMIT $%d OFFSET $%d
	`, listItemColumns, whereClause, column, direction, argIndex, argIndex+1)

	args = append(args, window.Take, window.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := scanListItems(rows)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListNames loads the search projection. Cancelling ctx stops the scan between rows.
func (r *productRepository) ListNames(ctx context.Context) ([]domain.ProductName, error) {
	query := `SELECT id, name FROM products ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list product names: %w", err)
	}
	defer rows.Close()

	names := []domain.ProductName{}
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var n domain.ProductName
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, fmt.Errorf("failed to scan product name: %w", err)
		}
		names = append(names, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product names: %w", err)
	}

	return names, nil
}

// FindListItemsByIDs fetches one page of search hits
func (r *productRepository) FindListItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id IN (%s)`,
		listItemColumns, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}
	defer rows.Close()

	found, err := scanListItems(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}

	return products, nil
}

// buildWhere renders a catalog filter as a WHERE clause with positional arguments
func buildWhere(filter catalog.Filter) (string, []interface{}) {
	var conditions []string
	args := []interface{}{}

	add := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filter.MinPrice != nil {
		add("price_amount >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price_amount <= $%d", *filter.MaxPrice)
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.InStockOnly {
		conditions = append(conditions, "stock > 0")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product                  domain.Product
		images, specs, keywords []byte
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price.Amount,
		&product.Price.DiscountPercent,
		&images,
		&specs,
		&product.Category,
		&product.Stock,
		&product.Rating,
		&product.ReviewCount,
		&product.SEO.Title,
		&product.SEO.Description,
		&product.SEO.ImageURL,
		&keywords,
		&product.SEO.Slug,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSON(images, &product.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if err := unmarshalJSON(specs, &product.Specifications); err != nil {
		return nil, fmt.Errorf("failed to decode specifications: %w", err)
	}
	if err := unmarshalJSON(keywords, &product.SEO.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode seo keywords: %w", err)
	}

	return &product, nil
}

func scanListItems(rows *sql.Rows) ([]domain.Product, error) {
	products := []domain.Product{}
	for rows.Next() {
		var (
			product domain.Product
			images  []byte
		)
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Price.Amount,
			&product.Price.DiscountPercent,
			&images,
			&product.Category,
			&product.Rating,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if err := unmarshalJSON(images, &product.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// marshalJSON encodes a JSONB column value, storing nil slices as []
func marshalJSON[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalJSON(raw []byte, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

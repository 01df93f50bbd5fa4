package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"
)

// CategoryRepository defines the interface for category data access.
// Categories are not stored on their own; they are derived from products.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.CategorySummary, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// List retrieves every category with its product count, ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]domain.CategorySummary, error) {
	query := `
		SELECT category, COUNT(*) AS product_count
		FROM products
		GROUP BY category
		ORDER BY category ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.CategorySummary{}
	for rows.Next() {
		var category domain.CategorySummary
		if err := rows.Scan(&category.Name, &category.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Validate a JSON product file and insert it into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()

		products, err := loadSeedProducts(f)
		if err != nil {
			return err
		}

		_, log, dbService, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Sync()
		defer dbService.Close()

		db := dbService.DB()
		productService := service.NewProductService(
			repository.NewProductRepository(db),
			repository.NewCategoryRepository(db),
			log,
		)

		n, err := seedProducts(cmd.Context(), productService, products)
		log.Info("Seed finished", zap.Int("inserted", n), zap.Int("total", len(products)))
		return err
	},
}

// loadSeedProducts decodes a JSON array of products and validates every entry,
// including slug uniqueness within the file
func loadSeedProducts(r io.Reader) ([]domain.Product, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var products []domain.Product
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	if len(products) == 0 {
		return nil, errors.New("seed file contains no products")
	}

	var errs []error
	slugs := make(map[string]int, len(products))
	for i, p := range products {
		if err := middleware.ValidateRequest(p); err != nil {
			fields := middleware.FormatValidationErrors(err)
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				msgs = append(msgs, f.Field+": "+f.Message)
			}
			errs = append(errs, fmt.Errorf("product %d (%q): %s", i, p.Name, strings.Join(msgs, "; ")))
		}
		if first, ok := slugs[p.SEO.Slug]; ok && p.SEO.Slug != "" {
			errs = append(errs, fmt.Errorf("product %d (%q): slug %q already used by product %d", i, p.Name, p.SEO.Slug, first))
			continue
		}
		slugs[p.SEO.Slug] = i
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return products, nil
}

// seedProducts inserts products in file order and stops at the first failure
func seedProducts(ctx context.Context, svc service.ProductService, products []domain.Product) (int, error) {
	for i := range products {
		if err := svc.CreateProduct(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("product %d (%q): %w", i, products[i].Name, err)
		}
	}
	return len(products), nil
}

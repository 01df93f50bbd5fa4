package transport

import (
	"errors"
	"net/http"

	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for catalog reads
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. The catalog is public.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchProducts)
		r.Get("/categories", h.ListCategories)
		r.Get("/{id}", h.GetProduct)
	})
}

// ListProducts handles GET /api/products. Failures still answer with an
// empty, well-formed page.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query, err := catalog.ParseListQuery(r.URL.Query())
	if err != nil {
		h.logger.Debug("Invalid product list query", zap.Error(err))
		middleware.RespondWithJSON(w, http.StatusBadRequest, catalog.EmptyListPage(query.Page, query.Limit, err.Error()))
		return
	}

	result, err := h.productService.ListProducts(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithJSON(w, http.StatusInternalServerError, catalog.EmptyListPage(catalog.DefaultPage, query.Limit, "error fetching products"))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, catalog.NewListPage(result.Products, result.TotalItems, query.Page, query.Limit))
}

// SearchProducts handles GET /api/products/search
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query, err := catalog.ParseSearchQuery(r.URL.Query())
	if err != nil {
		h.logger.Debug("Invalid product search query", zap.Error(err))
		middleware.RespondWithJSON(w, http.StatusBadRequest, catalog.EmptyListPage(query.Page, query.Limit, err.Error()))
		return
	}

	result, err := h.productService.SearchProducts(r.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrKeywordRequired) {
			middleware.RespondWithJSON(w, http.StatusBadRequest, catalog.EmptyListPage(query.Page, query.Limit, err.Error()))
			return
		}
		h.logger.Error("Failed to search products", zap.Error(err), zap.String("keyword", query.Keyword))
		middleware.RespondWithJSON(w, http.StatusInternalServerError, catalog.EmptyListPage(catalog.DefaultPage, query.Limit, "error searching products"))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, catalog.NewListPage(result.Products, result.TotalItems, query.Page, query.Limit))
}

// ListCategories handles GET /api/products/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "error fetching categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": categories})
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err), zap.String("product_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "error fetching product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": catalog.FormatDetail(*product)})
}

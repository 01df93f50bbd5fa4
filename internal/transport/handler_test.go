package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var catalogEpoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	router   chi.Router
	products *repository.MemoryProductRepository
	users    *repository.MemoryUserRepository
}

func newTestEnv(products ...domain.Product) *testEnv {
	logger := zap.NewNop()
	productRepo := repository.NewMemoryProductRepository(products...)
	userRepo := repository.NewMemoryUserRepository()

	userService := service.NewUserService(
		userRepo,
		repository.NewMemoryRevokedTokenRepository(),
		config.JWTConfig{Secret: "handler-test-secret", Expiry: 24 * time.Hour},
		logger,
	)
	productService := service.NewProductService(productRepo, productRepo.Categories(), logger)

	r := chi.NewRouter()
	r.NotFound(middleware.NotFoundHandler)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler)
	NewProductHandler(productService, logger).RegisterRoutes(r)
	NewUserHandler(userService, logger).RegisterRoutes(r, middleware.AuthMiddleware(userService, logger))

	return &testEnv{router: r, products: productRepo, users: userRepo}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func catalogProduct(i int, name, category string) domain.Product {
	return domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: "mô tả " + name,
		Price:       domain.Price{Amount: float64(10000 * (i + 1)), DiscountPercent: 10},
		Images:      []domain.Image{{URL: fmt.Sprintf("https://cdn.example/%d.jpg", i), Alt: name}},
		Category:    category,
		Stock:       i % 3,
		Rating:      float64(i%5) + 0.5,
		SEO:         domain.SEO{Slug: fmt.Sprintf("product-%d", i)},
		CreatedAt:   catalogEpoch.Add(time.Duration(i) * time.Minute),
		UpdatedAt:   catalogEpoch.Add(time.Duration(i) * time.Minute),
	}
}

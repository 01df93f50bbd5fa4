package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		RateLimit: config.RateLimitConfig{Requests: 2, Window: time.Minute},
		JWT:       config.JWTConfig{Secret: "server-test-secret", Expiry: 24 * time.Hour},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func testDeps(t *testing.T) (Deps, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	cfg := testConfig()
	products := repository.NewMemoryProductRepository(domain.Product{
		ID:       uuid.New(),
		Name:     "Cá Betta",
		Price:    domain.Price{Amount: 50000},
		Category: "ca-canh",
		SEO:      domain.SEO{Slug: "ca-betta"},
	})

	return Deps{
		Config:         cfg,
		Logger:         logger,
		DB:             database.NewFromDB(db),
		UserService:    service.NewUserService(repository.NewMemoryUserRepository(), repository.NewMemoryRevokedTokenRepository(), cfg.JWT, logger),
		ProductService: service.NewProductService(products, products.Categories(), logger),
	}, mock
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.7:51000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_RootAndCatalog(t *testing.T) {
	deps, _ := testDeps(t)
	router := NewRouter(deps)

	w := get(t, router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome")

	w = get(t, router, "/api/products")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cá Betta")
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRouter_Health(t *testing.T) {
	deps, mock := testDeps(t)
	router := NewRouter(deps)

	mock.ExpectPing()
	w := get(t, router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string            `json:"status"`
		Database map[string]string `json:"database"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "up", body.Database["status"])

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	w = get(t, router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"down"`)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_UnknownRouteUsesEnvelope(t *testing.T) {
	deps, _ := testDeps(t)
	router := NewRouter(deps)

	w := get(t, router, "/api/orders")
	require.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body.Error.Code)
	assert.Contains(t, body.Error.Message, "/api/orders")
}

func TestRouter_RateLimitedWhenRedisConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	deps, _ := testDeps(t)
	deps.Redis = client
	router := NewRouter(deps)

	assert.Equal(t, http.StatusOK, get(t, router, "/").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/").Code)

	w := get(t, router, "/")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.True(t, mr.Exists(rateLimitKeyPrefix+":203.0.113.7"))
}

func TestRouter_NoRateLimitWithoutRedis(t *testing.T) {
	deps, _ := testDeps(t)
	router := NewRouter(deps)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(t, router, "/").Code)
	}
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitKeyPrefix = "storefront:ratelimit"

// Deps are the collaborators the router is assembled from
type Deps struct {
	Config         *config.Config
	Logger         *zap.Logger
	DB             database.Service
	Redis          redis.Cmdable // nil disables rate limiting
	UserService    service.UserService
	ProductService service.ProductService
}

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          database.Service
	redis       *redis.Client
	userService service.UserService
}

// NewServer wires repositories, services and handlers on top of the database pool
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	// Initialize repositories
	productRepo := repository.NewProductRepository(db.DB())
	categoryRepo := repository.NewCategoryRepository(db.DB())
	userRepo := repository.NewUserRepository(db.DB())
	revokedRepo := repository.NewRevokedTokenRepository(db.DB())

	// Initialize services
	userService := service.NewUserService(userRepo, revokedRepo, cfg.JWT, logger)
	productService := service.NewProductService(productRepo, categoryRepo, logger)

	deps := Deps{
		Config:         cfg,
		Logger:         logger,
		DB:             db,
		UserService:    userService,
		ProductService: productService,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redis:       redisClient,
		userService: userService,
	}
}

// NewRouter builds the HTTP handler tree
func NewRouter(deps Deps) http.Handler {
	cfg, logger := deps.Config, deps.Logger

	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))

	if deps.Redis != nil {
		router.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         rateLimitKeyPrefix,
		}, logger))
	}

	router.NotFound(custommiddleware.NotFoundHandler)
	router.MethodNotAllowed(custommiddleware.MethodNotAllowedHandler)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to the storefront API",
		})
	})

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := deps.DB.Health(r.Context())
		if health["status"] != "up" {
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "degraded",
				"database": health,
			})
			return
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"database": health,
		})
	})

	// Initialize handlers
	productHandler := transport.NewProductHandler(deps.ProductService, logger)
	userHandler := transport.NewUserHandler(deps.UserService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(deps.UserService, logger)

	// Register routes
	productHandler.RegisterRoutes(router)
	userHandler.RegisterRoutes(router, authMiddleware)

	return router
}

// PurgeRevokedTokens drops expired revocations every interval until ctx is done
func (s *Server) PurgeRevokedTokens(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.userService.PurgeRevokedTokens(ctx)
			if err != nil {
				s.logger.Error("Failed to purge revoked tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("Purged revoked tokens", zap.Int64("count", n))
			}
		}
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

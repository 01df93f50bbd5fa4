package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	ClaimsKey contextKey = "claims"
)

// Authenticator resolves a bearer token to the claims of a live session
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*service.Claims, error)
}

// AuthMiddleware validates bearer tokens and stores the caller's claims in the context
func AuthMiddleware(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			// Check for Bearer token format
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := auth.Authenticate(r.Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, service.ErrTokenExpired):
					logger.Debug("Token expired", zap.Error(err))
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				case errors.Is(err, service.ErrTokenRevoked):
					logger.Debug("Token revoked", zap.Error(err))
					RespondWithError(w, http.StatusUnauthorized, "token has been revoked")
				case errors.Is(err, service.ErrInvalidToken):
					logger.Debug("Token validation failed", zap.Error(err))
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				default:
					logger.Error("Failed to authenticate request", zap.Error(err))
					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			logger.Debug("User authenticated", zap.String("user_id", claims.UserID.String()))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetClaims extracts the token claims from request context
func GetClaims(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*service.Claims)
	return claims, ok
}

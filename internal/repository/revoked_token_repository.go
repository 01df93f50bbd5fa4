package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// RevokedTokenRepository records access tokens that were logged out before expiry
type RevokedTokenRepository interface {
	Create(ctx context.Context, token *domain.RevokedToken) error
	IsRevoked(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type revokedTokenRepository struct {
	db *sql.DB
}

// NewRevokedTokenRepository creates a new instance of RevokedTokenRepository
func NewRevokedTokenRepository(db *sql.DB) RevokedTokenRepository {
	return &revokedTokenRepository{db: db}
}

// Create stores the token id. Revoking the same token twice is a no-op.
func (r *revokedTokenRepository) Create(ctx context.Context, token *domain.RevokedToken) error {
	query := `
		INSERT INTO revoked_tokens (id, user_id, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		token.ID,
		token.UserID,
		token.ExpiresAt,
		token.RevokedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsRevoked reports whether the token id has been logged out
func (r *revokedTokenRepository) IsRevoked(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE id = $1)`

	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&revoked); err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}

	return revoked, nil
}

// DeleteExpired prunes entries whose token would be rejected for expiry anyway
func (r *revokedTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

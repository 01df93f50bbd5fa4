package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "email", "password_hash", "first_name", "last_name", "phone_number", "address", "created_at", "updated_at"}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &domain.User{ID: uuid.New(), Email: "a@b.vn"})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestUserRepository_CreateOtherConstraintIsNotDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "users_phone_number_format"})

	err := repo.Create(context.Background(), &domain.User{ID: uuid.New(), Email: "a@b.vn"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("an@shop.vn").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(id.String(), "an@shop.vn", "hash", "An", "Nguyễn", "0912345678", "Hà Nội", now, now))

	user, err := repo.FindByEmail(context.Background(), "an@shop.vn")

	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, domain.FullName{LastName: "Nguyễn", FirstName: "An"}, user.FullName)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestUserRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_UpdateProfileOnlySendsPresentFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	phone := "0987654321"
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("phone_number = COALESCE($4, phone_number)")).
		WithArgs(id, nil, nil, phone, nil).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(id.String(), "an@shop.vn", "hash", "An", "Nguyễn", phone, "Hà Nội", now, now))

	user, err := repo.UpdateProfile(context.Background(), id, domain.ProfileUpdate{PhoneNumber: &phone})

	require.NoError(t, err)
	assert.Equal(t, phone, user.PhoneNumber)
	assert.Equal(t, "Hà Nội", user.Address)
}

func TestUserRepository_UpdatePasswordMissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $2")).
		WithArgs(id, "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), id, "new-hash")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRevokedTokenRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRevokedTokenRepository(db)

	token := &domain.RevokedToken{ID: uuid.New(), UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour), RevokedAt: time.Now()}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO revoked_tokens")).
		WithArgs(token.ID, token.UserID, token.ExpiresAt, token.RevokedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE id = $1)")).
		WithArgs(token.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens WHERE expires_at < $1")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, token))

	revoked, err := repo.IsRevoked(ctx, token.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	n, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

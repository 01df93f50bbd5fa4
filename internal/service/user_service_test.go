package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key"

// countingUserRepository records lookups so tests can assert a call never reached storage
type countingUserRepository struct {
	repository.UserRepository
	findByIDCalls int
}

func (c *countingUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	c.findByIDCalls++
	return c.UserRepository.FindByID(ctx, id)
}

func newTestUserService() (*userService, *repository.MemoryUserRepository, *repository.MemoryRevokedTokenRepository) {
	users := repository.NewMemoryUserRepository()
	revoked := repository.NewMemoryRevokedTokenRepository()
	svc := NewUserService(users, revoked, config.JWTConfig{Secret: testSecret, Expiry: 24 * time.Hour}, zap.NewNop())
	return svc.(*userService), users, revoked
}

func registerInput(email, password string) RegisterInput {
	return RegisterInput{
		Email:       email,
		Password:    password,
		FullName:    domain.FullName{LastName: "Nguyễn", FirstName: "An"},
		PhoneNumber: "0912345678",
		Address:     "12 Lê Lợi, Huế",
	}
}

func propertyParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	// every case pays for at least one bcrypt hash
	params.MinSuccessfulTests = 20
	return params
}

// Feature: storefront, Property: registration stores bcrypt hashes, never plaintext
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email string, password string) bool {
			svc, users, _ := newTestUserService()
			ctx := context.Background()

			result, err := svc.Register(ctx, registerInput(email, password))
			if err != nil {
				t.Logf("FAIL: Register failed: %v", err)
				return false
			}

			stored, err := users.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("FAIL: Could not find stored user: %v", err)
				return false
			}

			if stored.PasswordHash == password || result.User.PasswordHash != stored.PasswordHash {
				t.Logf("FAIL: Password stored as plaintext or hash mismatch")
				return false
			}

			if cost, err := bcrypt.Cost([]byte(stored.PasswordHash)); err != nil || cost != BcryptCost {
				t.Logf("FAIL: Unexpected bcrypt cost %d: %v", cost, err)
				return false
			}

			return bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)) == nil
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|vn|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{6,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: storefront, Property: duplicate registration is rejected and the first account still logs in
func TestProperty_DuplicateEmailKeepsOriginalCredentials(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("second registration fails, original password still works", prop.ForAll(
		func(email string, first string, second string) bool {
			svc, _, _ := newTestUserService()
			ctx := context.Background()

			original, err := svc.Register(ctx, registerInput(email, first))
			if err != nil {
				t.Logf("FAIL: first Register failed: %v", err)
				return false
			}

			if _, err := svc.Register(ctx, registerInput(email, second)); !errors.Is(err, repository.ErrEmailAlreadyExists) {
				t.Logf("FAIL: expected ErrEmailAlreadyExists, got %v", err)
				return false
			}

			login, err := svc.Login(ctx, email, first)
			if err != nil {
				t.Logf("FAIL: original credentials rejected: %v", err)
				return false
			}
			return login.User.ID == original.User.ID
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|vn|net)`),
		gen.RegexMatch(`[A-Za-z0-9]{6,20}`),
		gen.RegexMatch(`[A-Za-z0-9]{6,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: storefront, Property: wrong password and unknown email fail identically
func TestProperty_LoginFailuresAreIndistinguishable(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("both failures return ErrInvalidCredentials with the same text", prop.ForAll(
		func(email string, password string) bool {
			svc, _, _ := newTestUserService()
			ctx := context.Background()

			if _, err := svc.Register(ctx, registerInput(email, password)); err != nil {
				t.Logf("FAIL: Register failed: %v", err)
				return false
			}

			_, wrongPassword := svc.Login(ctx, email, password+"x")
			_, unknownEmail := svc.Login(ctx, "nobody-"+email, password)

			return errors.Is(wrongPassword, ErrInvalidCredentials) &&
				errors.Is(unknownEmail, ErrInvalidCredentials) &&
				wrongPassword.Error() == unknownEmail.Error()
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|vn|net)`),
		gen.RegexMatch(`[A-Za-z0-9]{6,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLogin_NormalizesEmail(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("  An@Shop.VN ", "secret1"))
	require.NoError(t, err)

	result, err := svc.Login(ctx, "an@shop.vn", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "an@shop.vn", result.User.Email)
}

func TestToken_ClaimsAndLifetime(t *testing.T) {
	svc, _, _ := newTestUserService()
	issued := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	result, err := svc.Register(context.Background(), registerInput("an@shop.vn", "secret1"))
	require.NoError(t, err)

	claims, err := svc.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.True(t, issued.Add(24*time.Hour).Equal(claims.ExpiresAt.Time), "expires 24h after issue")
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err, "token id is a uuid")

	svc.now = func() time.Time { return issued.Add(24*time.Hour + time.Second) }
	_, err = svc.ValidateToken(result.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_RejectsForeignTokens(t *testing.T) {
	svc, _, _ := newTestUserService()

	claims := &Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": otherSecret,
		"alg none":     unsigned,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateToken_RequiresExpiry(t *testing.T) {
	svc, _, _ := newTestUserService()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: uuid.New()}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, _, revoked := newTestUserService()
	ctx := context.Background()

	result, err := svc.Register(ctx, registerInput("an@shop.vn", "secret1"))
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.Authenticate(ctx, result.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	jti := uuid.MustParse(claims.ID)
	isRevoked, _ := revoked.IsRevoked(ctx, jti)
	assert.True(t, isRevoked)

	// a fresh login is unaffected
	again, err := svc.Login(ctx, "an@shop.vn", "secret1")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, again.Token)
	assert.NoError(t, err)
}

func TestPurgeRevokedTokens(t *testing.T) {
	svc, _, revoked := newTestUserService()
	ctx := context.Background()

	require.NoError(t, revoked.Create(ctx, &domain.RevokedToken{ID: uuid.New(), ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, revoked.Create(ctx, &domain.RevokedToken{ID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := svc.PurgeRevokedTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	svc, users, _ := newTestUserService()
	ctx := context.Background()

	result, err := svc.Register(ctx, registerInput("an@shop.vn", "secret1"))
	require.NoError(t, err)
	users.Delete(result.User.ID)

	_, err = svc.Authenticate(ctx, result.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword_SameValueRejectedBeforeLookup(t *testing.T) {
	users := &countingUserRepository{UserRepository: repository.NewMemoryUserRepository()}
	svc := NewUserService(users, repository.NewMemoryRevokedTokenRepository(), config.JWTConfig{Secret: testSecret}, zap.NewNop())

	err := svc.ChangePassword(context.Background(), uuid.New(), "secret1", "secret1")

	assert.ErrorIs(t, err, ErrSamePassword)
	assert.Zero(t, users.findByIDCalls)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	result, err := svc.Register(ctx, registerInput("an@shop.vn", "secret1"))
	require.NoError(t, err)
	userID := result.User.ID

	err = svc.ChangePassword(ctx, userID, "wrong-current", "secret2")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	require.NoError(t, svc.ChangePassword(ctx, userID, "secret1", "secret2"))

	_, err = svc.Login(ctx, "an@shop.vn", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "an@shop.vn", "secret2")
	assert.NoError(t, err)
}

func TestPasswordOverBcryptLimit(t *testing.T) {
	svc, users, _ := newTestUserService()
	ctx := context.Background()
	long := strings.Repeat("ư", 40) // 40 runes, 80 bytes

	_, err := svc.Register(ctx, registerInput("dai@shop.vn", long))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	_, err = users.FindByEmail(ctx, "dai@shop.vn")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	result, err := svc.Register(ctx, registerInput("ngan@shop.vn", "secret1"))
	require.NoError(t, err)
	err = svc.ChangePassword(ctx, result.User.ID, "secret1", long)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = svc.Login(ctx, "ngan@shop.vn", "secret1")
	assert.NoError(t, err)
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()

	result, err := svc.Register(ctx, registerInput("an@shop.vn", "secret1"))
	require.NoError(t, err)

	phone := "0987654321"
	updated, err := svc.UpdateProfile(ctx, result.User.ID, domain.ProfileUpdate{PhoneNumber: &phone})
	require.NoError(t, err)

	assert.Equal(t, phone, updated.PhoneNumber)
	assert.Equal(t, result.User.Address, updated.Address)
	assert.Equal(t, result.User.FullName, updated.FullName)

	_, err = svc.GetProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

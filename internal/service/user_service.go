package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// DefaultTokenExpiration applies when the configuration leaves it unset
	DefaultTokenExpiration = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSamePassword       = errors.New("new password must be different from the current password")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// dummyHash is compared against when the email is unknown so both login
// failures cost one bcrypt comparison
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("storefront-placeholder-password"), BcryptCost)
	if err != nil {
		panic(fmt.Sprintf("failed to build placeholder hash: %v", err))
	}
	return hash
})

// UserService defines the interface for account business logic
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	Logout(ctx context.Context, claims *Claims) error
	ValidateToken(tokenString string) (*Claims, error)
	Authenticate(ctx context.Context, tokenString string) (*Claims, error)
	PurgeRevokedTokens(ctx context.Context) (int64, error)
}

// RegisterInput is a validated registration request
type RegisterInput struct {
	Email       string
	Password    string
	FullName    domain.FullName
	PhoneNumber string
	Address     string
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  *domain.User
	Token string
}

// Claims represents the JWT claims. RegisteredClaims.ID carries the token id
// used for logout.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo    repository.UserRepository
	revokedRepo repository.RevokedTokenRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewUserService creates a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	revokedRepo repository.RevokedTokenRepository,
	cfg config.JWTConfig,
	logger *zap.Logger,
) UserService {
	ttl := cfg.Expiry
	if ttl <= 0 {
		ttl = DefaultTokenExpiration
	}
	return &userService{
		userRepo:    userRepo,
		revokedRepo: revokedRepo,
		jwtSecret:   []byte(cfg.Secret),
		tokenTTL:    ttl,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates a new account with a hashed password and signs it in
func (s *userService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, repository.ErrEmailAlreadyExists
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     input.FullName,
		PhoneNumber:  input.PhoneNumber,
		Address:      input.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// a concurrent registration can still win the unique index
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials. Unknown email and wrong password return the same error.
func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := verifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetProfile retrieves the account of the authenticated user
func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes only the fields present in update
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	user, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if currentPassword == newPassword {
		return ErrSamePassword
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := verifyPassword(user.PasswordHash, currentPassword); err != nil {
		return ErrIncorrectPassword
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed", zap.String("user_id", userID.String()))
	return nil
}

// Logout revokes the presented token until it would have expired anyway
func (s *userService) Logout(ctx context.Context, claims *Claims) error {
	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return ErrInvalidToken
	}

	expiresAt := s.now().Add(s.tokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	revoked := &domain.RevokedToken{
		ID:        jti,
		UserID:    claims.UserID,
		ExpiresAt: expiresAt,
		RevokedAt: s.now(),
	}
	if err := s.revokedRepo.Create(ctx, revoked); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.Info("User logged out", zap.String("user_id", claims.UserID.String()))
	return nil
}

// ValidateToken checks the signature and expiry of a token and returns its claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Authenticate validates the token, rejects revoked tokens and tokens of
// accounts that no longer exist
func (s *userService) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.revokedRepo.IsRevoked(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if _, err := s.userRepo.FindByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return claims, nil
}

// PurgeRevokedTokens drops revocations of tokens that have expired
func (s *userService) PurgeRevokedTokens(ctx context.Context) (int64, error) {
	n, err := s.revokedRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return n, nil
}

func (s *userService) generateToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

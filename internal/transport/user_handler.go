package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email       string           `json:"email" validate:"required,email"`
	Password    string           `json:"password" validate:"required,min=6,bcryptlen"`
	FullName    *FullNameRequest `json:"fullName" validate:"required"`
	PhoneNumber string           `json:"phoneNumber" validate:"required,phone"`
	Address     string           `json:"address" validate:"required"`
}

type FullNameRequest struct {
	LastName  string `json:"lastName" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries only the fields the caller wants to change
type UpdateProfileRequest struct {
	FullName    *FullNameRequest `json:"fullName" validate:"omitempty"`
	PhoneNumber *string          `json:"phoneNumber" validate:"omitempty,phone"`
	Address     *string          `json:"address" validate:"omitempty,min=1"`
}

// ChangePasswordRequest represents the change-password payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,bcryptlen"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// UserResponse wraps a single account
type UserResponse struct {
	User *domain.User `json:"user"`
}

// UserHandler handles HTTP requests for account operations
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		// Public routes
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Put("/change-password", h.ChangePassword)
			r.Post("/logout", h.Logout)
		})
	})
}

// Register handles account creation and signs the new user in
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req, "Registration") {
		return
	}

	result, err := h.userService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: domain.FullName{
			LastName:  req.FullName.LastName,
			FirstName: req.FullName.FirstName,
		},
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailAlreadyExists) {
			middleware.RespondWithError(w, http.StatusBadRequest, repository.ErrEmailAlreadyExists.Error())
			return
		}
		if errors.Is(err, service.ErrPasswordTooLong) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, AuthResponse{User: result.User, Token: result.Token})
}

// Login handles user authentication. Unknown email and wrong password get the
// same answer.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req, "Login") {
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadRequest, service.ErrInvalidCredentials.Error())
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.logger.Info("User logged in", zap.String("user_id", result.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, AuthResponse{User: result.User, Token: result.Token})
}

// GetProfile returns the authenticated account
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		h.respondAccountError(w, err, "Failed to get user profile", "failed to get user profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{User: user})
}

// UpdateProfile applies a partial update to the authenticated account
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if !h.decode(w, r, &req, "Profile update") {
		return
	}

	update := domain.ProfileUpdate{
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}
	if req.FullName != nil {
		update.FullName = &domain.FullName{
			LastName:  req.FullName.LastName,
			FirstName: req.FullName.FirstName,
		}
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		h.respondAccountError(w, err, "Failed to update profile", "failed to update profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{User: user})
}

// ChangePassword replaces the password of the authenticated account
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if !h.decode(w, r, &req, "Change password") {
		return
	}

	err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "password changed successfully"})
	case errors.Is(err, service.ErrSamePassword), errors.Is(err, service.ErrIncorrectPassword),
		errors.Is(err, service.ErrPasswordTooLong):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.respondAccountError(w, err, "Failed to change password", "failed to change password")
	}
}

// Logout revokes the token the request was authenticated with
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.userService.Logout(r.Context(), claims); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to logout")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// decode reads and validates the body, answering 400 itself on failure
func (h *UserHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}, action string) bool {
	err := middleware.DecodeAndValidate(r, v)
	if err == nil {
		return true
	}

	h.logger.Debug(action+" validation failed", zap.Error(err))
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return false
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
	return false
}

func (h *UserHandler) respondAccountError(w http.ResponseWriter, err error, logMsg, message string) {
	if errors.Is(err, repository.ErrUserNotFound) {
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")
		return
	}
	h.logger.Error(logMsg, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, message)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicchain/civic-service/internal/api/dto"
	"github.com/civicchain/civic-service/internal/auth"
	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/service"
	apperrors "github.com/civicchain/civic-service/pkg/util"
)

// UsersHandler manages registration, login, and profile endpoints.
type UsersHandler struct {
	service *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{service: authService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, token, exp, err := h.service.RegisterUser(c.Context(), req.Name, req.Email, req.Password, domain.UserRole(req.Role))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AuthResponse{
		User:      userResponse(user),
		Token:     token,
		ExpiresAt: exp,
	}})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, token, exp, err := h.service.LoginUser(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		User:      userResponse(user),
		Token:     token,
		ExpiresAt: exp,
	}})
}

// Profile GET /users/me.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	user, err := h.service.GetProfile(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Role:              user.Role,
		Reputation:        user.Reputation,
		IssuesReported:    user.IssuesReported,
		IssuesResolved:    user.IssuesResolved,
		TotalUpvotes:      user.TotalUpvotes,
		VerificationsDone: user.VerificationsDone,
		Badges:            user.Badges,
		WalletRef:         user.WalletRef,
		CreatedAt:         user.CreatedAt,
	}
}

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/re-allocator/internal/api/dto"
	"github.com/spec-kit/re-allocator/internal/config"
	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/service"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// UsersHandler exposes account and signin endpoints.
type UsersHandler struct {
	auth *service.AuthService
	cfg  config.AuthConfig
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, cfg config.AuthConfig) *UsersHandler {
	return &UsersHandler{auth: authService, cfg: cfg}
}

// CreateUser handles POST /users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return apperrors.NewValidationError("name, email, password, role required", nil)
	}

	user, err := h.auth.CreateUser(c.Context(), service.UserCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    userResponse(user),
		"message": "user created successfully",
	})
}

// SignIn handles POST /auth/signin and sets the session cookie.
func (h *UsersHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, err := h.auth.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
		MaxAge:   h.cfg.AccessTokenTTLMinutes * 60,
	})
	return c.JSON(fiber.Map{
		"success": true,
		"data":    userResponse(user),
	})
}

// SignOut handles POST /auth/signout.
func (h *UsersHandler) SignOut(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		HTTPOnly: true,
		MaxAge:   -1,
	})
	return c.JSON(fiber.Map{"success": true, "message": "signed out"})
}

// ListUsers handles GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.auth.ListUsers(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// GetUser handles GET /users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.auth.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": userResponse(user)})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		CreatedAt:    user.CreatedAt,
	}
}

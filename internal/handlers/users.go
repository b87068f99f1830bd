package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/hash"
	"github.com/casamorales/restaurant-backend/internal/models"
)

// UserHandler serves the admin-only account management endpoints.
type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) List(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("username ASC").Find(&users).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		RoleID   uint   `json:"role_id"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}
	if req.Username == "" || req.Email == "" || req.Name == "" {
		return fail(c, apperrors.ValidationError("username, name and email are required"))
	}
	if len(req.Password) < 6 {
		return fail(c, apperrors.ValidationError("La contraseña debe tener al menos 6 caracteres"))
	}
	if req.RoleID == 0 {
		return fail(c, apperrors.ValidationError("role_id is required"))
	}
	var role models.Role
	if err := h.DB.First(&role, req.RoleID).Error; err != nil {
		return fail(c, notFound(err, "Role"))
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return fail(c, err)
	}
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Name:         req.Name,
		RoleID:       req.RoleID,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, apperrors.ConflictError("El nombre de usuario ya existe"))
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) ListRoles(c echo.Context) error {
	var roles []models.Role
	if err := h.DB.Order("id ASC").Find(&roles).Error; err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, roles)
}

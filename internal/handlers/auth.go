package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/hash"
	"github.com/casamorales/restaurant-backend/internal/logging"
	"github.com/casamorales/restaurant-backend/internal/middleware/auth"
	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/mykafka"
	"github.com/casamorales/restaurant-backend/internal/session"
	"github.com/casamorales/restaurant-backend/internal/token"
)

type AuthHandler struct {
	DB        *gorm.DB
	Sessions  *session.Manager
	JWTSecret []byte
	Producer  *mykafka.Producer
}

// Register creates an administrative account and logs it in right away.
func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
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

	var existing models.User
	err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		return fail(c, apperrors.ConflictError("El nombre de usuario ya existe"))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, err)
	}

	var adminRole models.Role
	if err := h.DB.Where("name = ?", "admin").First(&adminRole).Error; err != nil {
		return fail(c, err)
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
		RoleID:       adminRole.ID,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, apperrors.ConflictError("El nombre de usuario ya existe"))
		}
		return fail(c, err)
	}

	ck, err := h.Sessions.Create(user.ID)
	if err != nil {
		return fail(c, err)
	}
	c.SetCookie(ck)

	publish(c, h.Producer, "user_events", user.Username, map[string]interface{}{
		"type":    "user_registered",
		"user_id": user.ID,
	})

	return c.JSON(http.StatusCreated, echo.Map{"user": user})
}

// Login is the session scheme: email + password, cookie on success.
// Unknown email and wrong password answer identically.
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return fail(c, apperrors.AuthError("Credenciales inválidas"))
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return fail(c, apperrors.AuthError("Credenciales inválidas"))
	}

	ck, err := h.Sessions.Create(user.ID)
	if err != nil {
		return fail(c, err)
	}
	c.SetCookie(ck)

	logging.FromContext(c.Request().Context()).Info("login", "user_id", user.ID)
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ck, err := c.Cookie(session.CookieName)
	if err != nil {
		return c.NoContent(http.StatusOK)
	}
	expired, err := h.Sessions.Destroy(ck.Value)
	if err != nil {
		return fail(c, err)
	}
	c.SetCookie(expired)
	return c.NoContent(http.StatusOK)
}

// CurrentUser returns the session's profile.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	user := auth.SessionUser(c)
	if user == nil {
		return fail(c, apperrors.AuthError("Unauthorized"))
	}
	return c.JSON(http.StatusOK, user)
}

// TokenLogin is the bearer scheme shared by staff and user accounts:
// POST /auth/login {username, password, type}.
func (h *AuthHandler) TokenLogin(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Type     string `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperrors.ValidationError("invalid request body"))
	}

	if req.Type == token.TypeStaff {
		return h.staffTokenLogin(c, req.Username, req.Password)
	}
	return h.userTokenLogin(c, req.Username, req.Password)
}

func (h *AuthHandler) userTokenLogin(c echo.Context, identifier, password string) error {
	var user models.User
	err := h.DB.Where("email = ? OR username = ?", identifier, identifier).First(&user).Error
	if err != nil {
		return fail(c, apperrors.AuthError("Credenciales inválidas"))
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return fail(c, apperrors.AuthError("Credenciales inválidas"))
	}

	tok, err := token.Sign(user.ID, token.TypeUser, user.RoleID, user.Email, h.JWTSecret)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": tok, "user": user})
}

func (h *AuthHandler) staffTokenLogin(c echo.Context, identifier, password string) error {
	var member models.Staff
	err := h.DB.Where("email = ?", identifier).First(&member).Error
	if err != nil {
		return fail(c, apperrors.AuthError("Credenciales inválidas"))
	}
	if member.PasswordHash == nil || *member.PasswordHash == "" {
		return fail(c, apperrors.AuthError("Este personal no tiene contraseña configurada"))
	}
	if !hash.CheckPassword(*member.PasswordHash, password) {
		return fail(c, apperrors.AuthError("Credenciales inválidas"))
	}

	email := ""
	if member.Email != nil {
		email = *member.Email
	}
	tok, err := token.Sign(member.ID, token.TypeStaff, member.RoleID, email, h.JWTSecret)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": tok, "staff": member})
}

// TokenLogout exists for API symmetry; bearer tokens simply expire.
func (h *AuthHandler) TokenLogout(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "Sesión cerrada exitosamente"})
}

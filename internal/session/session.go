// Package session implements the store-backed browser sessions used by
// the administrative account scheme.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/models"
)

const (
	// CookieName is deliberately not a framework default.
	CookieName = "mesa_session"
	TTL        = 7 * 24 * time.Hour
)

type Manager struct {
	DB     *gorm.DB
	Secure bool
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Create opens a session for the user and returns the cookie to set.
func (m *Manager) Create(userID uint) (*http.Cookie, error) {
	tok, err := newToken()
	if err != nil {
		return nil, err
	}
	sess := models.Session{
		Token:     tok,
		UserID:    userID,
		ExpiresAt: time.Now().Add(TTL),
	}
	if err := m.DB.Create(&sess).Error; err != nil {
		return nil, err
	}
	return m.cookie(tok, sess.ExpiresAt), nil
}

// Resolve loads the user behind a session token. A rolling expiry: each
// successful resolve pushes the deadline another full TTL out, and the
// refreshed cookie is returned so the caller can re-set it.
func (m *Manager) Resolve(tok string) (*models.User, *http.Cookie, error) {
	var sess models.Session
	if err := m.DB.Where("token = ?", tok).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.AuthError("Unauthorized")
		}
		return nil, nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		m.DB.Delete(&sess)
		return nil, nil, apperrors.AuthError("Unauthorized")
	}

	sess.ExpiresAt = time.Now().Add(TTL)
	if err := m.DB.Model(&sess).Update("expires_at", sess.ExpiresAt).Error; err != nil {
		return nil, nil, err
	}

	var user models.User
	if err := m.DB.First(&user, sess.UserID).Error; err != nil {
		return nil, nil, apperrors.AuthError("Unauthorized")
	}
	return &user, m.cookie(tok, sess.ExpiresAt), nil
}

// Destroy removes the session row and returns an expired cookie.
func (m *Manager) Destroy(tok string) (*http.Cookie, error) {
	if err := m.DB.Where("token = ?", tok).Delete(&models.Session{}).Error; err != nil {
		return nil, err
	}
	return m.cookie("", time.Now().Add(-time.Hour)), nil
}

// PruneExpired deletes sessions past their deadline.
func (m *Manager) PruneExpired() error {
	return m.DB.Where("expires_at < ?", time.Now()).Delete(&models.Session{}).Error
}

func (m *Manager) cookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

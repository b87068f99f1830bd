package session

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
	"github.com/casamorales/restaurant-backend/internal/config"
	"github.com/casamorales/restaurant-backend/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &Manager{DB: db}
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	role := models.Role{Name: "admin"}
	require.NoError(t, db.Create(&role).Error)
	user := models.User{Username: "dora", Email: "dora@casamorales.mx", PasswordHash: "x", Name: "Dora", RoleID: role.ID}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestCreateAndResolve(t *testing.T) {
	m := newTestManager(t)
	user := seedUser(t, m.DB)

	ck, err := m.Create(user.ID)
	require.NoError(t, err)
	require.Equal(t, CookieName, ck.Name)
	require.NotEmpty(t, ck.Value)
	require.True(t, ck.HttpOnly)

	got, refreshed, err := m.Resolve(ck.Value)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, ck.Value, refreshed.Value)
}

func TestResolveUnknownToken(t *testing.T) {
	m := newTestManager(t)

	_, _, err := m.Resolve("deadbeef")
	require.True(t, apperrors.IsKind(err, apperrors.Auth))
}

func TestResolveRollsExpiry(t *testing.T) {
	m := newTestManager(t)
	user := seedUser(t, m.DB)

	ck, err := m.Create(user.ID)
	require.NoError(t, err)

	// age the session, then resolve and check the deadline moved forward
	old := time.Now().Add(time.Hour)
	require.NoError(t, m.DB.Model(&models.Session{}).
		Where("token = ?", ck.Value).
		Update("expires_at", old).Error)

	_, _, err = m.Resolve(ck.Value)
	require.NoError(t, err)

	var sess models.Session
	require.NoError(t, m.DB.Where("token = ?", ck.Value).First(&sess).Error)
	require.True(t, sess.ExpiresAt.After(old))
}

func TestResolveExpiredDeletesRow(t *testing.T) {
	m := newTestManager(t)
	user := seedUser(t, m.DB)

	ck, err := m.Create(user.ID)
	require.NoError(t, err)
	require.NoError(t, m.DB.Model(&models.Session{}).
		Where("token = ?", ck.Value).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, _, err = m.Resolve(ck.Value)
	require.True(t, apperrors.IsKind(err, apperrors.Auth))

	var count int64
	require.NoError(t, m.DB.Model(&models.Session{}).Where("token = ?", ck.Value).Count(&count).Error)
	require.Zero(t, count)
}

func TestDestroy(t *testing.T) {
	m := newTestManager(t)
	user := seedUser(t, m.DB)

	ck, err := m.Create(user.ID)
	require.NoError(t, err)

	expired, err := m.Destroy(ck.Value)
	require.NoError(t, err)
	require.Empty(t, expired.Value)
	require.True(t, expired.Expires.Before(time.Now()))

	_, _, err = m.Resolve(ck.Value)
	require.True(t, apperrors.IsKind(err, apperrors.Auth))
}

func TestPruneExpired(t *testing.T) {
	m := newTestManager(t)
	user := seedUser(t, m.DB)

	live, err := m.Create(user.ID)
	require.NoError(t, err)
	dead, err := m.Create(user.ID)
	require.NoError(t, err)
	require.NoError(t, m.DB.Model(&models.Session{}).
		Where("token = ?", dead.Value).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	require.NoError(t, m.PruneExpired())

	var count int64
	require.NoError(t, m.DB.Model(&models.Session{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	_, _, err = m.Resolve(live.Value)
	require.NoError(t, err)
}

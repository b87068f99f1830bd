package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/casamorales/restaurant-backend/internal/config"
	"github.com/casamorales/restaurant-backend/internal/hash"
	"github.com/casamorales/restaurant-backend/internal/models"
	"github.com/casamorales/restaurant-backend/internal/money"
	"github.com/casamorales/restaurant-backend/internal/mykafka"
	"github.com/casamorales/restaurant-backend/internal/orders"
	"github.com/casamorales/restaurant-backend/internal/session"
)

type testEnv struct {
	T         *testing.T
	E         *echo.Echo
	DB        *gorm.DB
	Sessions  *session.Manager
	JWTSecret []byte

	A  *AuthHandler
	M  *MenuHandler
	C  *CategoryHandler
	S  *StaffHandler
	TB *TableHandler
	O  *OrderHandler
	AN *AnalyticsHandler
	U  *UserHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	require.NoError(t, config.SeedRoles(db))

	prod, err := mykafka.NewProducer(nil)
	require.NoError(t, err)

	sessions := &session.Manager{DB: db}
	engine := &orders.Engine{DB: db}
	secret := []byte("test-secret")

	env := &testEnv{
		T:         t,
		E:         echo.New(),
		DB:        db,
		Sessions:  sessions,
		JWTSecret: secret,

		A:  &AuthHandler{DB: db, Sessions: sessions, JWTSecret: secret, Producer: prod},
		M:  &MenuHandler{DB: db, Producer: prod},
		C:  &CategoryHandler{DB: db},
		S:  &StaffHandler{DB: db},
		TB: &TableHandler{DB: db},
		O:  &OrderHandler{DB: db, Engine: engine, Producer: prod},
		AN: &AnalyticsHandler{DB: db},
		U:  &UserHandler{DB: db},
	}
	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) withParam(c echo.Context, name, value string) {
	c.SetParamNames(name)
	c.SetParamValues(value)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func bodyMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp messageResponse
	decodeBody(t, rec, &resp)
	return resp.Message
}

func (env *testEnv) roleID(name string) uint {
	var role models.Role
	require.NoError(env.T, env.DB.Where("name = ?", name).First(&role).Error)
	return role.ID
}

func (env *testEnv) seedCategory(name string) *models.Category {
	cat := models.Category{Name: name}
	require.NoError(env.T, env.DB.Create(&cat).Error)
	return &cat
}

func (env *testEnv) seedMenuItem(name string, price money.Cents, categoryID uint) *models.MenuItem {
	item := models.MenuItem{
		Name:       name,
		Price:      price,
		CategoryID: categoryID,
		InStock:    true,
		SearchText: name,
	}
	require.NoError(env.T, env.DB.Create(&item).Error)
	return &item
}

func (env *testEnv) seedStaff(name, rfc string, password *string) *models.Staff {
	member := models.Staff{
		Name:      name,
		RoleID:    env.roleID("waiter"),
		RfcNumber: rfc,
		IsActive:  true,
	}
	if password != nil {
		pwHash, err := hash.HashPassword(*password)
		require.NoError(env.T, err)
		member.PasswordHash = &pwHash
		email := name + "@casamorales.mx"
		member.Email = &email
	}
	require.NoError(env.T, env.DB.Create(&member).Error)
	return &member
}

func (env *testEnv) registerUser(username, email, password string) (*models.User, *http.Cookie) {
	rec, c := env.doJSONRequest(http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"name":     "Test " + username,
		"email":    email,
		"password": password,
	})
	require.NoError(env.T, env.A.Register(c))
	require.Equal(env.T, http.StatusCreated, rec.Code)

	var resp struct {
		User models.User `json:"user"`
	}
	decodeBody(env.T, rec, &resp)

	res := rec.Result()
	defer res.Body.Close()
	for _, ck := range res.Cookies() {
		if ck.Name == session.CookieName {
			return &resp.User, ck
		}
	}
	env.T.Fatal("no session cookie set on register")
	return nil, nil
}

package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorahq/tutora/pkg/binder"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/migrations"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestContext(t *testing.T, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandler_Setup_RejectsWhenUsersExist(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	_, err := db.Exec(`
		INSERT INTO users (username, password_hash, role_id, is_active)
		VALUES (?, ?, (SELECT id FROM roles WHERE name = ?), 1)
	`, "existingadmin", "hashedpassword", models.RoleAdmin)
	require.NoError(t, err)

	payload := `{"username":"newadmin","password":"securepassword123"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/setup")

	err = h.setup(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusForbidden, errResp.HTTPCode)
	assert.Contains(t, errResp.Message, "Setup has already been completed")
}

func TestHandler_Setup_CreatesAdminWithAllOrgAccess(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	payload := `{"username":"firstadmin","password":"securepassword123"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/setup")

	require.NoError(t, h.setup(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "firstadmin", resp.Username)
	assert.Equal(t, models.RoleAdmin, resp.RoleName)
	assert.Nil(t, resp.OrgAccess)
	assert.Contains(t, resp.Permissions, "courses:write")

	// Cookie should be set
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestHandler_Register_CreatesStudent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	payload := `{"username":"learner","email":"learner@example.com","password":"securepassword123"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/register")

	require.NoError(t, h.register(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "learner", resp.Username)
	assert.Equal(t, models.RoleStudent, resp.RoleName)
	assert.Contains(t, resp.Permissions, "courses:read")
	assert.NotContains(t, resp.Permissions, "courses:write")
}

func TestHandler_Register_RejectsDuplicateUsername(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	_, err := svc.Register(context.Background(), "learner", nil, "securepassword123")
	require.NoError(t, err)

	payload := `{"username":"LEARNER","password":"securepassword123"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/register")

	err = h.register(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestHandler_Login_SetsCookieAndReturnsMe(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	_, err := svc.Register(context.Background(), "learner", nil, "securepassword123")
	require.NoError(t, err)

	payload := `{"username":"learner","password":"securepassword123"}`
	c, rr := newTestContext(t, payload, http.MethodPost, "/auth/login")

	require.NoError(t, h.login(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "learner", resp.Username)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestHandler_Login_RejectsBadPassword(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	_, err := svc.Register(context.Background(), "learner", nil, "securepassword123")
	require.NoError(t, err)

	payload := `{"username":"learner","password":"wrongpassword1"}`
	c, _ := newTestContext(t, payload, http.MethodPost, "/auth/login")

	err = h.login(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/auth"
)

func runRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string, setup func(c echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}

	handler := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get("user_id"), "role": c.Get("role")})
	})
	require.NoError(t, handler(c))
	return rec
}

func TestJWTAcceptsValidToken(t *testing.T) {
	secret := []byte("s")
	token, err := auth.IssueToken(secret, "u-1", auth.RoleCompany, time.Hour)
	require.NoError(t, err)

	rec := runRequest(t, JWT(secret), "Bearer "+token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u-1")
	assert.Contains(t, rec.Body.String(), auth.RoleCompany)
}

func TestJWTRejectsMissingAndMalformed(t *testing.T) {
	secret := []byte("s")

	rec := runRequest(t, JWT(secret), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = runRequest(t, JWT(secret), "Token abc", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = runRequest(t, JWT(secret), "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	rec := runRequest(t, RequireRoles("company"), "", func(c echo.Context) {
		c.Set("role", "company")
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runRequest(t, RequireRoles("company"), "", func(c echo.Context) {
		c.Set("role", "client")
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = runRequest(t, RequireRoles("company"), "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminGuard(t *testing.T) {
	rec := runRequest(t, AdminGuard, "", func(c echo.Context) {
		c.Set("role", "admin")
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runRequest(t, AdminGuard, "", func(c echo.Context) {
		c.Set("role", "company")
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

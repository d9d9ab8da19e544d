package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runMiddleware(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	err := JWTMiddleware(next)(c)
	return c, rec, err
}

func TestJWTMiddlewareSetsIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET", "testing-secret")

	token := signTestToken(t, "testing-secret", jwt.MapClaims{
		"user_id":  "acct-1",
		"username": "mia",
		"is_admin": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	c, rec, err := runMiddleware(t, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acct-1", c.Get("user_id"))
	assert.Equal(t, "mia", c.Get("username"))
	assert.Equal(t, true, c.Get("is_admin"))
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "testing-secret")

	_, rec, err := runMiddleware(t, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, rec, err = runMiddleware(t, "Bearer not-a-token")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong signing key
	token := signTestToken(t, "other-secret", jwt.MapClaims{
		"user_id": "acct-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	_, rec, err = runMiddleware(t, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired token
	token = signTestToken(t, "testing-secret", jwt.MapClaims{
		"user_id": "acct-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	_, rec, err = runMiddleware(t, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminGuard(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.Set("is_admin", true)
	require.NoError(t, AdminGuard(next)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.Set("is_admin", false)
	require.NoError(t, AdminGuard(next)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AdminGuard(next)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/architect-sessions/internal/model"
	"github.com/iliyamo/architect-sessions/internal/utils"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// runIdentity pushes one request through the Identity middleware and
// returns the recorded response plus the principal seen by the inner
// handler, if it ran.
func runIdentity(t *testing.T, serviceKeyHash string, prep func(*http.Request)) (*httptest.ResponseRecorder, *model.Principal) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/projects", nil)
	prep(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *model.Principal
	next := func(c echo.Context) error {
		p, ok := PrincipalFrom(c)
		require.True(t, ok)
		seen = &p
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, Identity(testSecret, serviceKeyHash)(next)(c))
	return rec, seen
}

func TestIdentityBearerToken(t *testing.T) {
	t.Run("valid token yields user principal", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-42",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		rec, p := runIdentity(t, "", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, p)
		require.Equal(t, "user-42", p.UserID)
		require.False(t, p.Service)
	})

	t.Run("missing header", func(t *testing.T) {
		rec, p := runIdentity(t, "", func(r *http.Request) {})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Nil(t, p)
	})

	t.Run("wrong signing secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{"sub": "user-42"})
		rec, p := runIdentity(t, "", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Nil(t, p)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-42",
			"exp": time.Now().Add(-time.Minute).Unix(),
		})
		rec, _ := runIdentity(t, "", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without subject", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		rec, _ := runIdentity(t, "", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIdentityServiceKey(t *testing.T) {
	hash, err := utils.HashServiceKey("super-secret-key", bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("matching key yields service principal", func(t *testing.T) {
		rec, p := runIdentity(t, hash, func(r *http.Request) {
			r.Header.Set("X-Service-Key", "super-secret-key")
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, p)
		require.True(t, p.Service)
		require.Empty(t, p.UserID)
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		rec, p := runIdentity(t, hash, func(r *http.Request) {
			r.Header.Set("X-Service-Key", "nope")
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Nil(t, p)
	})

	t.Run("service key takes precedence over bearer token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-42"})
		rec, p := runIdentity(t, hash, func(r *http.Request) {
			r.Header.Set("X-Service-Key", "super-secret-key")
			r.Header.Set("Authorization", "Bearer "+token)
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, p)
		require.True(t, p.Service)
	})
}

func TestRequireService(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	call := func(p *model.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/users", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if p != nil {
			c.Set(principalKey, *p)
		}
		require.NoError(t, RequireService()(next)(c))
		return rec
	}

	t.Run("service principal passes", func(t *testing.T) {
		p := model.ServicePrincipal()
		require.Equal(t, http.StatusOK, call(&p).Code)
	})

	t.Run("user principal is forbidden", func(t *testing.T) {
		p := model.UserPrincipal("user-1")
		require.Equal(t, http.StatusForbidden, call(&p).Code)
	})

	t.Run("missing principal is forbidden", func(t *testing.T) {
		require.Equal(t, http.StatusForbidden, call(nil).Code)
	})
}

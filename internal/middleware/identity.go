package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/architect-sessions/internal/model"
    "github.com/iliyamo/architect-sessions/internal/utils"
)

// principalKey is the context key under which the caller identity is stored.
const principalKey = "principal"

// Identity returns an Echo middleware that authenticates every request as
// exactly one of two principals.  A request carrying X-Service-Key is
// checked once against the configured bcrypt hash and, when it matches,
// becomes the trusted backend identity that bypasses all ownership
// scoping.  Every other request must carry a Bearer access token minted
// by the external identity provider; its subject claim is the user id.
// Handlers retrieve the result via PrincipalFrom.
func Identity(jwtSecret, serviceKeyHash string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Service principal: an all-or-nothing bypass decided here and
            // never re-checked per query.
            if key := c.Request().Header.Get("X-Service-Key"); key != "" {
                if !utils.VerifyServiceKey(serviceKeyHash, key) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid service key"})
                }
                c.Set(principalKey, model.ServicePrincipal())
                return next(c)
            }

            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and the shared secret; reject any other
            // signing method.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(jwtSecret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            sub, _ := claims["sub"].(string)
            if sub == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing subject"})
            }

            c.Set(principalKey, model.UserPrincipal(sub))
            return next(c)
        }
    }
}

// PrincipalFrom extracts the caller identity stored by Identity.  The
// second return value is false when the middleware did not run.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
    p, ok := c.Get(principalKey).(model.Principal)
    return p, ok
}

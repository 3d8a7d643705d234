package handler // handler defines http handlers

import (
    "context"  // context carries deadlines for DB calls
    "errors"   // errors provides sentinel matching
    "net/http" // status code constants
    "time"     // timeout durations

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/architect-sessions/internal/middleware"
    "github.com/iliyamo/architect-sessions/internal/model"
    "github.com/iliyamo/architect-sessions/internal/repository"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// requestContext derives a bounded context from the incoming request.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentPrincipal fetches the caller identity stored by the identity
// middleware.  A missing principal means the route was registered without
// the middleware, which is a wiring bug, so the request is rejected.
func currentPrincipal(c echo.Context) (model.Principal, bool) {
    return middleware.PrincipalFrom(c)
}

// writeRepoError translates repository sentinels into HTTP responses so
// every handler reports failure kinds the same way.  Each kind implies a
// different corrective action for the caller, which is why none of them
// collapse into a generic failure.
func writeRepoError(c echo.Context, err error, notFoundMsg string) error {
    switch {
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    case errors.Is(err, repository.ErrValidation):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundMsg})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}

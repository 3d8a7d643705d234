package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/architect-sessions/internal/model"
	"github.com/iliyamo/architect-sessions/internal/repository"
)

// UserHandler bundles dependencies for user endpoints.  Account creation
// and listing are restricted to the service principal at the router; a
// regular caller can only read, rename and delete their own account.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler {
	if u == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: u}
}

// ----- DTOs -----

type createUserReq struct {
	Email string `json:"email" validate:"required,email"`
}

type updateUserReq struct {
	Email string `json:"email" validate:"required,email"`
}

type userResp struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResp(u *model.User) userResp {
	return userResp{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// Create handles POST /v1/users (service only).
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email)
	if err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.JSON(http.StatusCreated, toUserResp(u))
}

// Get handles GET /v1/users/:id.  A regular caller may only read their
// own account.
func (h *UserHandler) Get(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if !p.Service && p.UserID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// List handles GET /v1/users (service only).
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return writeRepoError(c, err, "user not found")
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PATCH /v1/users/:id, changing the email.
func (h *UserHandler) Update(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if !p.Service && p.UserID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.UpdateEmail(ctx, id, req.Email)
	if err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Delete handles DELETE /v1/users/:id.  Removing a user removes every
// project, session, message and phase output transitively owned by them.
func (h *UserHandler) Delete(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if !p.Service && p.UserID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.NoContent(http.StatusNoContent)
}

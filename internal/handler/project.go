package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/architect-sessions/internal/model"
	"github.com/iliyamo/architect-sessions/internal/repository"
)

// ProjectHandler bundles dependencies for project endpoints.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
}

func NewProjectHandler(p *repository.ProjectRepo) *ProjectHandler {
	if p == nil {
		panic("nil repository passed to NewProjectHandler")
	}
	return &ProjectHandler{Projects: p}
}

// ----- DTOs -----

type createProjectReq struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description"`
	Status      string  `json:"status" validate:"omitempty,oneof=draft in_progress completed"`
	// UserID lets the service principal create a project on behalf of an
	// account; regular callers leave it empty and own the project.
	UserID string `json:"user_id" validate:"omitempty,uuid4"`
}

type updateProjectReq struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft in_progress completed"`
}

type projectResp struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResp(p *model.Project) projectResp {
	return projectResp{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Create handles POST /v1/projects.
func (h *ProjectHandler) Create(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createProjectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ownerID := req.UserID
	if ownerID == "" {
		ownerID = p.UserID
	}
	if ownerID == "" {
		// The service principal has no implicit owner to fall back to.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	proj, err := h.Projects.Create(ctx, p, ownerID, req.Name, req.Description, req.Status)
	if err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.JSON(http.StatusCreated, toProjectResp(proj))
}

// Get handles GET /v1/projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	proj, err := h.Projects.GetByID(ctx, c.Param("id"), p)
	if err != nil {
		return writeRepoError(c, err, "project not found")
	}
	return c.JSON(http.StatusOK, toProjectResp(proj))
}

// List handles GET /v1/projects: the caller's projects, or every project
// for the service principal.
func (h *ProjectHandler) List(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	projects, err := h.Projects.List(ctx, p)
	if err != nil {
		return writeRepoError(c, err, "project not found")
	}
	out := make([]projectResp, 0, len(projects))
	for _, proj := range projects {
		out = append(out, toProjectResp(proj))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PATCH /v1/projects/:id.
func (h *ProjectHandler) Update(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProjectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	proj, err := h.Projects.Update(ctx, c.Param("id"), p, req.Name, req.Description, req.Status)
	if err != nil {
		return writeRepoError(c, err, "project not found")
	}
	return c.JSON(http.StatusOK, toProjectResp(proj))
}

// Delete handles DELETE /v1/projects/:id and cascades to the project's
// sessions, messages and phase outputs.
func (h *ProjectHandler) Delete(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Projects.Delete(ctx, c.Param("id"), p); err != nil {
		return writeRepoError(c, err, "project not found")
	}
	return c.NoContent(http.StatusNoContent)
}

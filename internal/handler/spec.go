package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/architect-sessions/internal/model"
	"github.com/iliyamo/architect-sessions/internal/repository"
)

// SpecHandler bundles dependencies for technical spec endpoints.
type SpecHandler struct {
	Specs *repository.SpecRepo
}

func NewSpecHandler(s *repository.SpecRepo) *SpecHandler {
	if s == nil {
		panic("nil repository passed to NewSpecHandler")
	}
	return &SpecHandler{Specs: s}
}

// ----- DTOs -----

type createSpecReq struct {
	Requirements *string         `json:"requirements"`
	Architecture *string         `json:"architecture"`
	TechStack    json.RawMessage `json:"tech_stack"`
}

type specResp struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	Requirements *string         `json:"requirements"`
	Architecture *string         `json:"architecture"`
	TechStack    json.RawMessage `json:"tech_stack"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toSpecResp(s *model.TechnicalSpec) specResp {
	return specResp{
		ID:           s.ID,
		SessionID:    s.SessionID,
		Requirements: s.Requirements,
		Architecture: s.Architecture,
		TechStack:    s.TechStack,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
	}
}

// Create handles POST /v1/sessions/:id/specs.  The stored revision gets
// the next version number for the session.
func (h *SpecHandler) Create(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createSpecReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.TechStack) > 0 && !json.Valid(req.TechStack) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tech_stack must be valid JSON"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	spec, err := h.Specs.Create(ctx, c.Param("id"), req.Requirements, req.Architecture, req.TechStack, p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	return c.JSON(http.StatusCreated, toSpecResp(spec))
}

// Latest handles GET /v1/sessions/:id/specs/latest.
func (h *SpecHandler) Latest(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	spec, err := h.Specs.Latest(ctx, c.Param("id"), p)
	if err != nil {
		return writeRepoError(c, err, "spec not found")
	}
	return c.JSON(http.StatusOK, toSpecResp(spec))
}

// List handles GET /v1/sessions/:id/specs, newest revision first.
func (h *SpecHandler) List(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	specs, err := h.Specs.ListBySession(ctx, c.Param("id"), p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	out := make([]specResp, 0, len(specs))
	for _, s := range specs {
		out = append(out, toSpecResp(s))
	}
	return c.JSON(http.StatusOK, out)
}

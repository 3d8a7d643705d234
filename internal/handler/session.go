package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/architect-sessions/internal/model"
	"github.com/iliyamo/architect-sessions/internal/queue"
	"github.com/iliyamo/architect-sessions/internal/repository"
	queue_publisher "github.com/iliyamo/architect-sessions/internal/service/queue_publisher"
)

// SessionHandler bundles dependencies for session endpoints.  Publish is
// the broker hook invoked after a committed phase transition; it defaults
// to the RabbitMQ publisher and is a field so tests can intercept it.
type SessionHandler struct {
	Sessions *repository.SessionRepo
	Publish  func(ctx context.Context, ev queue.PhaseChangedEvent) error
}

func NewSessionHandler(s *repository.SessionRepo) *SessionHandler {
	if s == nil {
		panic("nil repository passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: s, Publish: queue_publisher.PublishPhaseChanged}
}

// ----- DTOs -----

type createSessionReq struct {
	ProjectID string `json:"project_id" validate:"required,uuid4"`
}

type updatePhaseReq struct {
	Phase string `json:"phase" validate:"required,oneof=planner librarian mentor"`
}

type updateMetadataReq struct {
	Metadata json.RawMessage `json:"metadata" validate:"required"`
}

type sessionResp struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	CurrentPhase string          `json:"current_phase"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toSessionResp(s *model.Session) sessionResp {
	return sessionResp{
		ID:           s.ID,
		ProjectID:    s.ProjectID,
		CurrentPhase: s.CurrentPhase,
		Metadata:     s.Metadata,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// Create handles POST /v1/sessions.  New sessions start in the planner
// phase with empty metadata.
func (h *SessionHandler) Create(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Sessions.Create(ctx, req.ProjectID, p)
	if err != nil {
		return writeRepoError(c, err, "project not found")
	}
	return c.JSON(http.StatusCreated, toSessionResp(sess))
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Sessions.GetByID(ctx, c.Param("id"), p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	return c.JSON(http.StatusOK, toSessionResp(sess))
}

// ListByProject handles GET /v1/projects/:id/sessions.
func (h *SessionHandler) ListByProject(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sessions, err := h.Sessions.ListByProject(ctx, c.Param("id"), p)
	if err != nil {
		return writeRepoError(c, err, "project not found")
	}
	out := make([]sessionResp, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResp(s))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdatePhase handles PATCH /v1/sessions/:id/phase.  After the transition
// commits, a phase-changed event is published; broker failures are not
// the caller's problem and do not affect the response.
func (h *SessionHandler) UpdatePhase(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updatePhaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess, previous, err := h.Sessions.UpdatePhase(ctx, c.Param("id"), req.Phase, p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	if sess.CurrentPhase != previous && h.Publish != nil {
		ev := queue.PhaseChangedEvent{
			SessionID: sess.ID,
			ProjectID: sess.ProjectID,
			FromPhase: previous,
			ToPhase:   sess.CurrentPhase,
			ChangedAt: time.Now().UTC().Format(time.RFC3339),
		}
		go func() { _ = h.Publish(context.Background(), ev) }()
	}
	return c.JSON(http.StatusOK, toSessionResp(sess))
}

// UpdateMetadata handles PATCH /v1/sessions/:id/metadata, replacing the
// session's metadata document.
func (h *SessionHandler) UpdateMetadata(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateMetadataReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Metadata) == 0 || !json.Valid(req.Metadata) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "metadata must be valid JSON"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Sessions.UpdateMetadata(ctx, c.Param("id"), req.Metadata, p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	return c.JSON(http.StatusOK, toSessionResp(sess))
}

// Delete handles DELETE /v1/sessions/:id and cascades to the session's
// messages and phase outputs.
func (h *SessionHandler) Delete(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Sessions.Delete(ctx, c.Param("id"), p); err != nil {
		return writeRepoError(c, err, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/architect-sessions/internal/model"
	"github.com/iliyamo/architect-sessions/internal/repository"
)

// MessageHandler bundles dependencies for message endpoints.
type MessageHandler struct {
	Messages *repository.MessageRepo
}

func NewMessageHandler(m *repository.MessageRepo) *MessageHandler {
	if m == nil {
		panic("nil repository passed to NewMessageHandler")
	}
	return &MessageHandler{Messages: m}
}

// ----- DTOs -----

type createMessageReq struct {
	Role     string          `json:"role" validate:"required,oneof=user assistant system"`
	Content  string          `json:"content" validate:"required"`
	Phase    *string         `json:"phase" validate:"omitempty,oneof=planner librarian mentor"`
	Metadata json.RawMessage `json:"metadata"`
}

type messageResp struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Phase     *string         `json:"phase"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

func toMessageResp(m *model.Message) messageResp {
	return messageResp{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      m.Role,
		Content:   m.Content,
		Phase:     m.Phase,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
	}
}

// Create handles POST /v1/sessions/:id/messages, appending one turn to the
// session's conversation.
func (h *MessageHandler) Create(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "metadata must be valid JSON"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	m, err := h.Messages.Create(ctx, c.Param("id"), req.Role, req.Content, req.Phase, req.Metadata, p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	return c.JSON(http.StatusCreated, toMessageResp(m))
}

// List handles GET /v1/sessions/:id/messages in conversation order.
func (h *MessageHandler) List(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	messages, err := h.Messages.ListBySession(ctx, c.Param("id"), p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	out := make([]messageResp, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResp(m))
	}
	return c.JSON(http.StatusOK, out)
}

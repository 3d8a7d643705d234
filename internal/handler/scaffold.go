package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/architect-sessions/internal/model"
	"github.com/iliyamo/architect-sessions/internal/repository"
)

// ScaffoldHandler bundles dependencies for code scaffold endpoints.
type ScaffoldHandler struct {
	Scaffolds *repository.ScaffoldRepo
}

func NewScaffoldHandler(s *repository.ScaffoldRepo) *ScaffoldHandler {
	if s == nil {
		panic("nil repository passed to NewScaffoldHandler")
	}
	return &ScaffoldHandler{Scaffolds: s}
}

// ----- DTOs -----

type scaffoldItem struct {
	FilePath string   `json:"file_path" validate:"required,max=512"`
	Content  string   `json:"content" validate:"required"`
	Hints    []string `json:"hints"`
}

type createScaffoldsReq struct {
	Scaffolds []scaffoldItem `json:"scaffolds" validate:"required,min=1,dive"`
}

type completeScaffoldReq struct {
	Completed *bool `json:"completed" validate:"required"`
}

type scaffoldResp struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	FilePath  string    `json:"file_path"`
	Content   string    `json:"content"`
	Hints     []string  `json:"hints"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func toScaffoldResp(sc *model.CodeScaffold) scaffoldResp {
	hints := []string{}
	_ = json.Unmarshal(sc.Hints, &hints)
	return scaffoldResp{
		ID:        sc.ID,
		SessionID: sc.SessionID,
		FilePath:  sc.FilePath,
		Content:   sc.Content,
		Hints:     hints,
		Completed: sc.Completed,
		CreatedAt: sc.CreatedAt,
	}
}

// Create handles POST /v1/sessions/:id/scaffolds, storing the mentor
// output as one atomic batch.  Every scaffold starts incomplete.
func (h *ScaffoldHandler) Create(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createScaffoldsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	scaffolds := make([]*model.CodeScaffold, 0, len(req.Scaffolds))
	for _, item := range req.Scaffolds {
		hints := item.Hints
		if hints == nil {
			hints = []string{}
		}
		raw, err := json.Marshal(hints)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hints"})
		}
		scaffolds = append(scaffolds, &model.CodeScaffold{
			FilePath: item.FilePath,
			Content:  item.Content,
			Hints:    raw,
		})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	stored, err := h.Scaffolds.CreateBatch(ctx, c.Param("id"), scaffolds, p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	out := make([]scaffoldResp, 0, len(stored))
	for _, sc := range stored {
		out = append(out, toScaffoldResp(sc))
	}
	return c.JSON(http.StatusCreated, out)
}

// List handles GET /v1/sessions/:id/scaffolds in creation order.
func (h *ScaffoldHandler) List(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	scaffolds, err := h.Scaffolds.ListBySession(ctx, c.Param("id"), p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	out := make([]scaffoldResp, 0, len(scaffolds))
	for _, sc := range scaffolds {
		out = append(out, toScaffoldResp(sc))
	}
	return c.JSON(http.StatusOK, out)
}

// SetCompleted handles PATCH /v1/scaffolds/:id/completed, the only
// mutation a stored scaffold accepts.
func (h *ScaffoldHandler) SetCompleted(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req completeScaffoldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sc, err := h.Scaffolds.SetCompleted(ctx, c.Param("id"), *req.Completed, p)
	if err != nil {
		return writeRepoError(c, err, "scaffold not found")
	}
	return c.JSON(http.StatusOK, toScaffoldResp(sc))
}

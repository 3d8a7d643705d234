package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/architect-sessions/internal/model"
	"github.com/iliyamo/architect-sessions/internal/repository"
)

// DocLinkHandler bundles dependencies for documentation link endpoints.
type DocLinkHandler struct {
	Links *repository.DocLinkRepo
}

func NewDocLinkHandler(l *repository.DocLinkRepo) *DocLinkHandler {
	if l == nil {
		panic("nil repository passed to NewDocLinkHandler")
	}
	return &DocLinkHandler{Links: l}
}

// ----- DTOs -----

type docLinkItem struct {
	TechName       string   `json:"tech_name" validate:"required,max=255"`
	DocURL         string   `json:"doc_url" validate:"required,url"`
	ScrapedContent *string  `json:"scraped_content"`
	RelevanceScore *float64 `json:"relevance_score"`
}

type createDocLinksReq struct {
	Links []docLinkItem `json:"links" validate:"required,min=1,dive"`
}

type docLinkResp struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	TechName       string    `json:"tech_name"`
	DocURL         string    `json:"doc_url"`
	ScrapedContent *string   `json:"scraped_content"`
	RelevanceScore *float64  `json:"relevance_score"`
	CreatedAt      time.Time `json:"created_at"`
}

func toDocLinkResp(l *model.DocumentationLink) docLinkResp {
	return docLinkResp{
		ID:             l.ID,
		SessionID:      l.SessionID,
		TechName:       l.TechName,
		DocURL:         l.DocURL,
		ScrapedContent: l.ScrapedContent,
		RelevanceScore: l.RelevanceScore,
		CreatedAt:      l.CreatedAt,
	}
}

// Create handles POST /v1/sessions/:id/docs, storing the librarian output
// as one atomic batch.
func (h *DocLinkHandler) Create(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createDocLinksReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	links := make([]*model.DocumentationLink, 0, len(req.Links))
	for _, item := range req.Links {
		links = append(links, &model.DocumentationLink{
			TechName:       item.TechName,
			DocURL:         item.DocURL,
			ScrapedContent: item.ScrapedContent,
			RelevanceScore: item.RelevanceScore,
		})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	stored, err := h.Links.CreateBatch(ctx, c.Param("id"), links, p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	out := make([]docLinkResp, 0, len(stored))
	for _, l := range stored {
		out = append(out, toDocLinkResp(l))
	}
	return c.JSON(http.StatusCreated, out)
}

// List handles GET /v1/sessions/:id/docs, most relevant first.
func (h *DocLinkHandler) List(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	links, err := h.Links.ListBySession(ctx, c.Param("id"), p)
	if err != nil {
		return writeRepoError(c, err, "session not found")
	}
	out := make([]docLinkResp, 0, len(links))
	for _, l := range links {
		out = append(out, toDocLinkResp(l))
	}
	return c.JSON(http.StatusOK, out)
}

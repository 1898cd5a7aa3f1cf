package drafts

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"

	"github.com/florence/florence/internal/llm"
	"github.com/florence/florence/internal/platform/auth"
	"github.com/florence/florence/pkg/pagination"
)

const composeSystemPrompt = "You are a clinical documentation assistant. " +
	"Write clear, patient-friendly draft documents in markdown. " +
	"Do not include diagnoses or medication changes that were not requested."

type Handler struct {
	svc      *Service
	composer llm.Client
}

// NewHandler creates the draft route layer. composer may be nil, in which
// case the compose endpoint reports the feature as unavailable.
func NewHandler(svc *Service, composer llm.Client) *Handler {
	return &Handler{svc: svc, composer: composer}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/drafts", auth.RequireRole("nurse", "admin"))
	g.POST("", h.CreateDraft)
	g.POST("/compose", h.ComposeDraft)
	g.GET("", h.ListDrafts)
	g.GET("/statistics", h.GetStatistics)
	g.GET("/:id", h.GetDraft)
	g.PUT("/:id/content", h.EditDraft)
	g.PUT("/:id/status", h.UpdateStatus)
	g.GET("/:id/history", h.GetHistory)
	g.GET("/:id/compare", h.CompareRevisions)
	g.GET("/:id/export", h.ExportDraft)
	g.GET("/:id/preview", h.PreviewDraft)
}

// domainError maps service errors onto HTTP status codes.
func domainError(err error) error {
	var ite *InvalidTransitionError
	switch {
	case errors.Is(err, ErrDraftNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "draft not found")
	case errors.Is(err, ErrRevisionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "revision not found")
	case errors.As(err, &ite):
		return echo.NewHTTPError(http.StatusConflict, ite.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

type createDraftRequest struct {
	Title        string            `json:"title"`
	DocumentType string            `json:"document_type"`
	Content      string            `json:"content"`
	CreatedBy    *string           `json:"created_by,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
}

func (h *Handler) CreateDraft(c echo.Context) error {
	var req createDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" || req.DocumentType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and document_type are required")
	}
	ctx := c.Request().Context()
	if req.CreatedBy == nil {
		if uid := auth.UserIDFromContext(ctx); uid != "" {
			req.CreatedBy = &uid
		}
	}
	id, err := h.svc.CreateDraft(ctx, CreateInput{
		Title:            req.Title,
		DocumentType:     req.DocumentType,
		GeneratedContent: req.Content,
		CreatedBy:        req.CreatedBy,
		Metadata:         req.Metadata,
		Tags:             req.Tags,
	})
	if err != nil {
		return domainError(err)
	}
	snap, err := h.svc.GetDraft(ctx, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, snap)
}

type composeDraftRequest struct {
	Title        string   `json:"title"`
	DocumentType string   `json:"document_type"`
	Prompt       string   `json:"prompt"`
	CreatedBy    *string  `json:"created_by,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// ComposeDraft generates draft content from a prompt and stores it as a new
// draft. The generated text is the draft's original content.
func (h *Handler) ComposeDraft(c echo.Context) error {
	if h.composer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "content generation is not configured")
	}
	var req composeDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" || req.DocumentType == "" || req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title, document_type and prompt are required")
	}
	ctx := c.Request().Context()
	content, err := h.composer.Complete(ctx, composeSystemPrompt, req.Prompt)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "content generation failed")
	}
	if req.CreatedBy == nil {
		if uid := auth.UserIDFromContext(ctx); uid != "" {
			req.CreatedBy = &uid
		}
	}
	id, err := h.svc.CreateDraft(ctx, CreateInput{
		Title:            req.Title,
		DocumentType:     req.DocumentType,
		GeneratedContent: content,
		CreatedBy:        req.CreatedBy,
		Tags:             req.Tags,
	})
	if err != nil {
		return domainError(err)
	}
	snap, err := h.svc.GetDraft(ctx, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, snap)
}

func (h *Handler) GetDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	snap, err := h.svc.GetDraft(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) ListDrafts(c echo.Context) error {
	filter := ListFilter{
		CreatedBy:    c.QueryParam("created_by"),
		DocumentType: c.QueryParam("document_type"),
		Status:       DocumentStatus(c.QueryParam("status")),
	}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	if tags := c.QueryParam("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Tags = append(filter.Tags, t)
			}
		}
	}
	items, err := h.svc.ListDrafts(c.Request().Context(), filter)
	if err != nil {
		return domainError(err)
	}
	pg := pagination.FromContext(c)
	total := len(items)
	start := pg.Offset
	if start > total {
		start = total
	}
	end := start + pg.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items[start:end], total, pg.Limit, pg.Offset))
}

type editDraftRequest struct {
	Content       *string `json:"content"`
	EditedBy      *string `json:"edited_by,omitempty"`
	ChangeSummary string  `json:"change_summary,omitempty"`
}

func (h *Handler) EditDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req editDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Content == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	ctx := c.Request().Context()
	if req.EditedBy == nil {
		if uid := auth.UserIDFromContext(ctx); uid != "" {
			req.EditedBy = &uid
		}
	}
	if err := h.svc.EditDraft(ctx, id, *req.Content, req.EditedBy, req.ChangeSummary); err != nil {
		return domainError(err)
	}
	snap, err := h.svc.GetDraft(ctx, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

type updateStatusRequest struct {
	Status    DocumentStatus `json:"status"`
	UpdatedBy *string        `json:"updated_by,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !ValidStatus(req.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	ctx := c.Request().Context()
	if req.UpdatedBy == nil {
		if uid := auth.UserIDFromContext(ctx); uid != "" {
			req.UpdatedBy = &uid
		}
	}
	if err := h.svc.UpdateStatus(ctx, id, req.Status, req.UpdatedBy, req.Notes); err != nil {
		return domainError(err)
	}
	snap, err := h.svc.GetDraft(ctx, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) GetHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	history, err := h.svc.History(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) CompareRevisions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rev1, err := uuid.Parse(c.QueryParam("rev1"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rev1")
	}
	rev2, err := uuid.Parse(c.QueryParam("rev2"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rev2")
	}
	cmp, err := h.svc.CompareRevisions(c.Request().Context(), id, rev1, rev2)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, cmp)
}

func (h *Handler) ExportDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	format := ExportFormat(c.QueryParam("format"))
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatHTML, FormatJSON:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown format")
	}
	result, err := h.svc.Export(c.Request().Context(), id, format)
	if err != nil {
		return domainError(err)
	}
	contentType := map[ExportFormat]string{
		FormatText: "text/plain; charset=utf-8",
		FormatHTML: "text/html; charset=utf-8",
		FormatJSON: "application/json",
	}[result.Format]
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	return c.Blob(http.StatusOK, contentType, []byte(result.Content))
}

// PreviewDraft renders the draft's effective content, treated as markdown,
// into a browser-ready HTML fragment.
func (h *Handler) PreviewDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	snap, err := h.svc.GetDraft(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(snap.Content), &buf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "render preview")
	}
	return c.HTML(http.StatusOK, buf.String())
}

func (h *Handler) GetStatistics(c echo.Context) error {
	stats, err := h.svc.Statistics(c.Request().Context(), c.QueryParam("created_by"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

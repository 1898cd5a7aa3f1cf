package gateway

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/florence/florence/internal/platform/auth"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/lookup", auth.RequireRole("nurse", "admin"))
	g.GET("/disease", h.LookupDisease)
	g.GET("/pubmed", h.SearchPubMed)
	g.GET("/trials", h.SearchTrials)
}

func limitParam(c echo.Context) int {
	n, _ := strconv.Atoi(c.QueryParam("limit"))
	return n
}

func (h *Handler) LookupDisease(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	results, err := h.client.LookupDisease(c.Request().Context(), q, limitParam(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "disease lookup failed")
	}
	return c.JSON(http.StatusOK, results)
}

func (h *Handler) SearchPubMed(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	articles, err := h.client.SearchPubMed(c.Request().Context(), q, limitParam(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "literature search failed")
	}
	return c.JSON(http.StatusOK, articles)
}

func (h *Handler) SearchTrials(c echo.Context) error {
	condition := c.QueryParam("condition")
	if condition == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "condition is required")
	}
	trials, err := h.client.SearchTrials(c.Request().Context(), condition, limitParam(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "trials search failed")
	}
	return c.JSON(http.StatusOK, trials)
}

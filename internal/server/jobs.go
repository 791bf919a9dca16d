package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/internal/jobs"
	"github.com/mohammad-safakhou/careerchat/internal/router"
	"github.com/mohammad-safakhou/careerchat/models"
)

const (
	defaultResultsPerPage = 5
	maxResultsPerPage     = 50
)

// Where a job search response came from.
const (
	JobSourceLive    = "live"
	JobSourceOffline = "offline"
	JobSourceNone    = "none"
)

// JobsHandler serves direct job searches over the live provider, falling
// back to the offline snapshot when the provider returns nothing.
type JobsHandler struct {
	Provider jobs.Provider
	Offline  router.OfflineJobs
	Config   config.JobsConfig
	Logger   *log.Logger
}

func (h *JobsHandler) Register(g *echo.Group) {
	g.POST("/jobs/search", h.search)
}

type jobSearchRequest struct {
	Role           string `json:"role"`
	Location       string `json:"location"`
	ResultsPerPage int    `json:"results_per_page"`
}

type jobSearchResponse struct {
	Role     string              `json:"role"`
	Location string              `json:"location"`
	Source   string              `json:"source"`
	Results  []models.JobPosting `json:"results"`
}

func (h *JobsHandler) search(c echo.Context) error {
	var req jobSearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Role = strings.TrimSpace(req.Role)
	if req.Role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "role is required")
	}
	if req.ResultsPerPage < 0 || req.ResultsPerPage > maxResultsPerPage {
		return echo.NewHTTPError(http.StatusBadRequest, "results_per_page must be between 1 and 50")
	}
	if req.ResultsPerPage == 0 {
		req.ResultsPerPage = defaultResultsPerPage
	}
	cfg := h.Config.Normalize()
	if req.Location = strings.TrimSpace(req.Location); req.Location == "" {
		req.Location = cfg.DefaultLocation
	}

	out := jobSearchResponse{Role: req.Role, Location: req.Location, Source: JobSourceNone, Results: []models.JobPosting{}}
	if live := h.Provider.Search(c.Request().Context(), req.Role, req.Location, req.ResultsPerPage); len(live) > 0 {
		out.Source, out.Results = JobSourceLive, live
		return c.JSON(http.StatusOK, out)
	}
	if h.Offline == nil {
		return c.JSON(http.StatusOK, out)
	}
	cached, err := h.Offline.FindByRole(req.Role)
	if err != nil {
		h.logger().Printf("offline job cache: %v", err)
		return c.JSON(http.StatusOK, out)
	}
	if len(cached) > 0 {
		if len(cached) > req.ResultsPerPage {
			cached = cached[:req.ResultsPerPage]
		}
		out.Source, out.Results = JobSourceOffline, cached
	}
	return c.JSON(http.StatusOK, out)
}

func (h *JobsHandler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.New(log.Writer(), "[JOBS] ", log.LstdFlags)
}

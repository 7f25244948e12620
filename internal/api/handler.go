package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
	"github.com/kmensah/gitlab-insights/internal/insights"
	"github.com/kmensah/gitlab-insights/internal/models"
)

// Handler exposes the insights service over HTTP.
type Handler struct {
	service *insights.Service
	logger  *logrus.Logger
}

func NewHandler(service *insights.Service, logger *logrus.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

// compareRequest is the body of POST /compare.
type compareRequest struct {
	ProjectIDs []string `json:"project_ids" binding:"required"`
	Days       int      `json:"days"`
}

const defaultWindowDays = 30

// windowFromQuery builds the analysis window from query parameters. Either
// a day count or an explicit RFC3339 since/until pair is accepted; the pair
// wins when both are present.
func windowFromQuery(c *gin.Context) (models.Window, error) {
	now := time.Now().UTC()

	sinceParam := c.Query("since")
	untilParam := c.Query("until")
	if sinceParam != "" || untilParam != "" {
		since, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			return models.Window{}, apperrors.NewValidationError("invalid since parameter (use RFC3339 format)", err)
		}
		until := now
		if untilParam != "" {
			until, err = time.Parse(time.RFC3339, untilParam)
			if err != nil {
				return models.Window{}, apperrors.NewValidationError("invalid until parameter (use RFC3339 format)", err)
			}
		}
		if !since.Before(until) {
			return models.Window{}, apperrors.NewValidationError("since must be before until", nil)
		}
		return models.Window{Since: since, Until: until}, nil
	}

	days := defaultWindowDays
	if daysParam := c.Query("days"); daysParam != "" {
		n, err := strconv.Atoi(daysParam)
		if err != nil || n <= 0 {
			return models.Window{}, apperrors.NewValidationError("invalid days parameter", err)
		}
		days = n
	}
	return models.Window{Since: now.AddDate(0, 0, -days), Until: now}, nil
}

// respondWithError maps the error taxonomy to HTTP status codes.
func (h *Handler) respondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsInvalidInput(err):
		status = http.StatusBadRequest
	case apperrors.IsAuthentication(err):
		status = http.StatusUnauthorized
	case apperrors.IsAuthorization(err):
		status = http.StatusForbidden
	case apperrors.IsInsufficientData(err):
		status = http.StatusUnprocessableEntity
	case apperrors.IsDeadlineExceeded(err):
		status = http.StatusGatewayTimeout
	case apperrors.IsRateLimit(err), apperrors.IsRetriesExhausted(err),
		apperrors.IsTransientNetwork(err), apperrors.IsPaginationInconsistency(err):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Type: string(apperrors.TypeOf(err))})
}

func (h *Handler) getSnapshot(c *gin.Context, kind models.TargetKind) {
	window, err := windowFromQuery(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	target := models.Target{Kind: kind, ID: c.Param("id")}
	snap, err := h.service.GetSnapshot(c.Request.Context(), target, window)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) getScore(c *gin.Context, kind models.TargetKind) {
	window, err := windowFromQuery(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	target := models.Target{Kind: kind, ID: c.Param("id")}
	score, err := h.service.GetHealthScore(c.Request.Context(), target, window)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *Handler) getTrends(c *gin.Context, kind models.TargetKind) {
	window, err := windowFromQuery(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	target := models.Target{Kind: kind, ID: c.Param("id")}
	report, err := h.service.GetTrend(c.Request.Context(), target, window)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) getContributors(c *gin.Context, kind models.TargetKind) {
	window, err := windowFromQuery(c)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	target := models.Target{Kind: kind, ID: c.Param("id")}
	contributors, err := h.service.GetContributors(c.Request.Context(), target, window)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contributors)
}

func (h *Handler) GetProjectSnapshot(c *gin.Context)     { h.getSnapshot(c, models.TargetProject) }
func (h *Handler) GetProjectScore(c *gin.Context)        { h.getScore(c, models.TargetProject) }
func (h *Handler) GetProjectTrends(c *gin.Context)       { h.getTrends(c, models.TargetProject) }
func (h *Handler) GetProjectContributors(c *gin.Context) { h.getContributors(c, models.TargetProject) }
func (h *Handler) GetGroupSnapshot(c *gin.Context)       { h.getSnapshot(c, models.TargetGroup) }
func (h *Handler) GetGroupScore(c *gin.Context)          { h.getScore(c, models.TargetGroup) }
func (h *Handler) GetGroupTrends(c *gin.Context)         { h.getTrends(c, models.TargetGroup) }
func (h *Handler) GetGroupContributors(c *gin.Context)   { h.getContributors(c, models.TargetGroup) }

func (h *Handler) CompareProjects(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, apperrors.NewValidationError("invalid compare request body", err))
		return
	}
	days := req.Days
	if days <= 0 {
		days = defaultWindowDays
	}
	now := time.Now().UTC()
	window := models.Window{Since: now.AddDate(0, 0, -days), Until: now}

	cmp, err := h.service.CompareProjects(c.Request.Context(), req.ProjectIDs, window)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (h *Handler) GetScoreHistory(c *gin.Context) {
	kind := models.TargetKind(c.DefaultQuery("kind", string(models.TargetProject)))
	if kind != models.TargetProject && kind != models.TargetGroup {
		h.respondWithError(c, apperrors.NewValidationError("kind must be project or group", nil))
		return
	}
	limit := 50
	if limitParam := c.Query("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n <= 0 {
			h.respondWithError(c, apperrors.NewValidationError("invalid limit parameter", err))
			return
		}
		limit = n
	}
	target := models.Target{Kind: kind, ID: c.Param("id")}
	records, err := h.service.ScoreHistory(c.Request.Context(), target, limit)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) ClearCache(c *gin.Context) {
	prefix := c.Query("prefix")
	dropped := h.service.InvalidateCache(prefix)
	c.JSON(http.StatusOK, gin.H{"dropped": dropped})
}

func (h *Handler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.CacheStats())
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

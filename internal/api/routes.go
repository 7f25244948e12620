package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title GitLab Insights API
// @version 1.0
// @description Activity snapshots, health scores and trends for GitLab projects and groups
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// SetupRouter configures the API routes.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(h.logger))

	r.GET("/health", h.Health)

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		projects := v1.Group("/projects/:id")
		{
			// @Summary Get project activity snapshot
			// @Description Aggregated commit, issue, merge request and contributor activity over a window
			// @Tags projects
			// @Produce json
			// @Param id path string true "Project ID or URL-encoded path"
			// @Param days query int false "Window length in days" default(30)
			// @Param since query string false "Window start (RFC3339)"
			// @Param until query string false "Window end (RFC3339)"
			// @Success 200 {object} models.Snapshot
			// @Failure 400 {object} ErrorResponse
			// @Failure 404 {object} ErrorResponse
			// @Failure 502 {object} ErrorResponse
			// @Router /projects/{id}/snapshot [get]
			projects.GET("/snapshot", h.GetProjectSnapshot)

			// @Summary Get project health score
			// @Tags projects
			// @Produce json
			// @Param id path string true "Project ID or URL-encoded path"
			// @Param days query int false "Window length in days" default(30)
			// @Success 200 {object} models.HealthScore
			// @Failure 404 {object} ErrorResponse
			// @Failure 422 {object} ErrorResponse
			// @Router /projects/{id}/score [get]
			projects.GET("/score", h.GetProjectScore)

			// @Summary Get project activity trends
			// @Description Compares the two halves of the window metric by metric
			// @Tags projects
			// @Produce json
			// @Param id path string true "Project ID or URL-encoded path"
			// @Param days query int false "Window length in days" default(30)
			// @Success 200 {object} models.TrendReport
			// @Failure 404 {object} ErrorResponse
			// @Router /projects/{id}/trends [get]
			projects.GET("/trends", h.GetProjectTrends)

			// @Summary Get canonical project contributors
			// @Tags projects
			// @Produce json
			// @Param id path string true "Project ID or URL-encoded path"
			// @Success 200 {object} models.ContributorMetrics
			// @Failure 404 {object} ErrorResponse
			// @Router /projects/{id}/contributors [get]
			projects.GET("/contributors", h.GetProjectContributors)
		}

		groups := v1.Group("/groups/:id")
		{
			// @Summary Get group activity snapshot
			// @Description Aggregated activity across all non-archived projects of a group
			// @Tags groups
			// @Produce json
			// @Param id path string true "Group ID or URL-encoded path"
			// @Param days query int false "Window length in days" default(30)
			// @Success 200 {object} models.Snapshot
			// @Failure 404 {object} ErrorResponse
			// @Router /groups/{id}/snapshot [get]
			groups.GET("/snapshot", h.GetGroupSnapshot)

			// @Summary Get group health score
			// @Tags groups
			// @Produce json
			// @Param id path string true "Group ID or URL-encoded path"
			// @Success 200 {object} models.HealthScore
			// @Router /groups/{id}/score [get]
			groups.GET("/score", h.GetGroupScore)

			// @Summary Get group activity trends
			// @Tags groups
			// @Produce json
			// @Param id path string true "Group ID or URL-encoded path"
			// @Success 200 {object} models.TrendReport
			// @Router /groups/{id}/trends [get]
			groups.GET("/trends", h.GetGroupTrends)

			// @Summary Get canonical group contributors
			// @Tags groups
			// @Produce json
			// @Param id path string true "Group ID or URL-encoded path"
			// @Success 200 {object} models.ContributorMetrics
			// @Router /groups/{id}/contributors [get]
			groups.GET("/contributors", h.GetGroupContributors)
		}

		// @Summary Compare projects by health score
		// @Tags compare
		// @Accept json
		// @Produce json
		// @Param request body compareRequest true "Projects and window"
		// @Success 200 {object} models.Comparison
		// @Failure 400 {object} ErrorResponse
		// @Router /compare [post]
		v1.POST("/compare", h.CompareProjects)

		// @Summary Get persisted score history for a target
		// @Tags history
		// @Produce json
		// @Param id path string true "Target ID"
		// @Param kind query string false "Target kind (project or group)" default(project)
		// @Param limit query int false "Maximum records" default(50)
		// @Success 200 {array} models.ScoreRecord
		// @Failure 400 {object} ErrorResponse
		// @Router /history/{id} [get]
		v1.GET("/history/:id", h.GetScoreHistory)

		cacheGroup := v1.Group("/cache")
		{
			// @Summary Drop cached entries
			// @Description Clears the whole cache, or only keys under the given prefix
			// @Tags cache
			// @Produce json
			// @Param prefix query string false "Key prefix to invalidate"
			// @Success 200 {object} map[string]int
			// @Router /cache [delete]
			cacheGroup.DELETE("", h.ClearCache)

			// @Summary Get cache occupancy statistics
			// @Tags cache
			// @Produce json
			// @Success 200 {object} cache.Stats
			// @Router /cache/stats [get]
			cacheGroup.GET("/stats", h.GetCacheStats)
		}
	}

	return r
}

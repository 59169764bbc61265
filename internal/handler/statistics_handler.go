package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statsService service.StatisticsService
}

func NewStatisticsHandler(statsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statsService: statsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/statistics")
	stats.Use(middleware.RequireAuth())
	{
		stats.GET("/overview", h.GetMonthlyOverview)
	}
}

// GetMonthlyOverview returns balances, per-category flows and the estimated
// tax for a month. Defaults to the current month when no month is given.
func (h *StatisticsHandler) GetMonthlyOverview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	monthKey := c.Query("month")
	if monthKey == "" {
		monthKey = time.Now().Format("2006-01")
	}

	overview, err := h.statsService.GetMonthlyOverview(c.Request.Context(), userID, monthKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, overview))
}

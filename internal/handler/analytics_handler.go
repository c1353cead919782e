package handler

import (
	"net/http"

	"gstdesk/internal/service"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard", h.GetDashboard)
}

// GetDashboard returns compliance counters for the current user
// @Summary      Dashboard statistics
// @Description  Clients by GST status, returns by status, overdue returns, pending notices and payments, total paid and the nearest due returns.
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.DashboardStats}
// @Router       /api/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	stats, err := h.analyticsService.GetDashboard(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

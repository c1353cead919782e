package handler

import (
	"net/http"

	"gstdesk/internal/service"
	"gstdesk/pkg/pagination"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/api/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/read-all", h.MarkAllRead)
		notifications.PUT("/:id/read", h.MarkRead)
	}
}

// ListNotifications returns the current user's alerts, newest first
// @Summary      List notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int   false  "Page number (default: 1)"
// @Param        limit   query     int   false  "Items per page (default: 20)"
// @Param        unread  query     bool  false  "Only unread alerts"
// @Success      200     {object}  response.Response
// @Router       /api/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	unreadOnly := c.Query("unread") == "true"

	items, total, err := h.notificationService.ListNotifications(c.Request.Context(), scope, unreadOnly, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// UnreadCount returns the unread badge counter
// @Summary      Count unread notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	n, err := h.notificationService.CountUnread(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"unread": n}))
}

// MarkRead marks one alert read
// @Summary      Mark notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notification marked as read"}))
}

// MarkAllRead marks every unread alert read
// @Summary      Mark all notifications read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkAllRead(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": n}))
}

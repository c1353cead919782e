package handler

import (
	"net/http"

	"gstdesk/internal/service"
	"gstdesk/pkg/pagination"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type NoticeHandler struct {
	noticeService service.NoticeService
}

func NewNoticeHandler(noticeService service.NoticeService) *NoticeHandler {
	return &NoticeHandler{noticeService: noticeService}
}

func (h *NoticeHandler) RegisterRoutes(router *gin.RouterGroup) {
	notices := router.Group("/api/notices")
	{
		notices.GET("", h.ListNotices)
		notices.GET("/:id", h.GetNotice)
		notices.POST("", h.CreateNotice)
		notices.PUT("/:id", h.UpdateNotice)
		notices.DELETE("/:id", h.DeleteNotice)
	}
}

// ListNotices returns paginated notices owned by the current user
// @Summary      List notices
// @Tags         notices
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default: 1)"
// @Param        limit      query     int     false  "Items per page (default: 20)"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        status     query     string  false  "Filter by status"
// @Success      200        {object}  response.Response
// @Router       /api/notices [get]
func (h *NoticeHandler) ListNotices(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.noticeService.ListNotices(c.Request.Context(), scope, p.ClientID, p.Status, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// GetNotice returns a single notice
// @Summary      Get notice
// @Tags         notices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Notice ID"
// @Success      200  {object}  response.Response{data=service.NoticeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/notices/{id} [get]
func (h *NoticeHandler) GetNotice(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	item, err := h.noticeService.GetNotice(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreateNotice creates a new notice
// @Summary      Create notice
// @Tags         notices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateNoticeRequest  true  "Notice payload"
// @Success      201      {object}  response.Response{data=service.NoticeResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Router       /api/notices [post]
func (h *NoticeHandler) CreateNotice(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.noticeService.CreateNotice(c.Request.Context(), scope, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateNotice applies a partial update. Omitted fields are left unchanged.
// @Summary      Update notice
// @Description  Moving to REPLIED stamps replied_at.
// @Tags         notices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Notice ID"
// @Param        payload  body      service.UpdateNoticeRequest  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.NoticeResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.ValidationResponse
// @Router       /api/notices/{id} [put]
func (h *NoticeHandler) UpdateNotice(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.UpdateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.noticeService.UpdateNotice(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteNotice deletes a notice and its documents
// @Summary      Delete notice
// @Tags         notices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Notice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/notices/{id} [delete]
func (h *NoticeHandler) DeleteNotice(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	if err := h.noticeService.DeleteNotice(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notice deleted successfully"}))
}

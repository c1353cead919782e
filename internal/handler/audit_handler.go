package handler

import (
	"net/http"

	"gstdesk/internal/service"
	"gstdesk/pkg/pagination"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/clients/:id/audit", h.ListClientTrail)
	router.GET("/api/audit/:kind/:id", h.ListEntityTrail)
}

// ListClientTrail returns the audit trail of a client and its records
// @Summary      Client audit trail
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Client ID"
// @Param        page   query     int     false  "Page number (default: 1)"
// @Param        limit  query     int     false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/clients/{id}/audit [get]
func (h *AuditHandler) ListClientTrail(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	logs, total, err := h.auditService.ListClientTrail(c.Request.Context(), scope, c.Param("id"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}

// ListEntityTrail returns the history of one record, oldest first
// @Summary      Record audit trail
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        kind  path      string  true  "client, registration, return, payment or notice"
// @Param        id    path      string  true  "Record ID"
// @Success      200   {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      404   {object}  response.Response
// @Router       /api/audit/{kind}/{id} [get]
func (h *AuditHandler) ListEntityTrail(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	logs, err := h.auditService.ListEntityTrail(c.Request.Context(), scope, c.Param("kind"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

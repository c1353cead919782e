package handler

import (
	"net/http"

	"gstdesk/internal/service"
	"gstdesk/pkg/pagination"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReturnHandler struct {
	returnService service.ReturnService
}

func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	returns := router.Group("/api/returns")
	{
		returns.GET("", h.ListReturns)
		returns.GET("/:id", h.GetReturn)
		returns.POST("", h.CreateReturn)
		returns.PUT("/:id", h.UpdateReturn)
		returns.DELETE("/:id", h.DeleteReturn)
	}
}

// ListReturns returns paginated returns owned by the current user
// @Summary      List returns
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default: 1)"
// @Param        limit      query     int     false  "Items per page (default: 20)"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        status     query     string  false  "Filter by status"
// @Param        period     query     string  false  "Filter by tax period (YYYY-MM)"
// @Success      200        {object}  response.Response
// @Router       /api/returns [get]
func (h *ReturnHandler) ListReturns(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.returnService.ListReturns(c.Request.Context(), scope, service.ReturnFilter{
		ClientID: p.ClientID,
		Status:   p.Status,
		Period:   c.Query("period"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// GetReturn returns a single return
// @Summary      Get return
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response{data=service.ReturnResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetReturn(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	item, err := h.returnService.GetReturn(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreateReturn creates a new return
// @Summary      Create return
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReturnRequest  true  "Return payload"
// @Success      201      {object}  response.Response{data=service.ReturnResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Router       /api/returns [post]
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.returnService.CreateReturn(c.Request.Context(), scope, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateReturn applies a partial update. Omitted fields are left unchanged.
// @Summary      Update return
// @Description  Status changes go through the compliance engine.
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Return ID"
// @Param        payload  body      service.UpdateReturnRequest  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.ReturnResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.ValidationResponse
// @Router       /api/returns/{id} [put]
func (h *ReturnHandler) UpdateReturn(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.UpdateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.returnService.UpdateReturn(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteReturn deletes a return and its documents
// @Summary      Delete return
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/returns/{id} [delete]
func (h *ReturnHandler) DeleteReturn(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	if err := h.returnService.DeleteReturn(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Return deleted successfully"}))
}

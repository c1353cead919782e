package handler

import (
	"net/http"

	"gstdesk/internal/service"
	"gstdesk/pkg/pagination"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clientService service.ClientService
}

func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) RegisterRoutes(router *gin.RouterGroup) {
	clients := router.Group("/api/clients")
	{
		clients.GET("", h.ListClients)
		clients.GET("/:id", h.GetClient)
		clients.POST("", h.CreateClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.DELETE("/:id", h.DeleteClient)
	}
}

// ListClients returns paginated clients owned by the current user
// @Summary      List clients
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default: 1)"
// @Param        limit      query     int     false  "Items per page (default: 20)"
// @Param        search      query     string  false  "Search by name, GSTIN, PAN, email"
// @Param        gst_status  query     string  false  "Filter by GST status"
// @Success      200        {object}  response.Response
// @Router       /api/clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.clientService.ListClients(c.Request.Context(), scope, service.ClientFilter{
		Search:    c.Query("search"),
		GSTStatus: c.Query("gst_status"),
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// GetClient returns a single client
// @Summary      Get client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response{data=service.ClientResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	item, err := h.clientService.GetClient(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreateClient creates a new client
// @Summary      Create client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateClientRequest  true  "Client payload"
// @Success      201      {object}  response.Response{data=service.ClientResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Router       /api/clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.clientService.CreateClient(c.Request.Context(), scope, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateClient applies a partial update. Omitted fields are left unchanged.
// @Summary      Update client
// @Description  Setting gst_status to ACTIVE requires an approved registration.
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Client ID"
// @Param        payload  body      service.UpdateClientRequest  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.ClientResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.ValidationResponse
// @Router       /api/clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.clientService.UpdateClient(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteClient deletes a client with its registrations, returns, payments,
// notices, invoices and documents
// @Summary      Delete client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Client deleted successfully"}))
}

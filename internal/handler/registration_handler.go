package handler

import (
	"net/http"

	"gstdesk/internal/service"
	"gstdesk/pkg/pagination"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	registrationService service.RegistrationService
}

func NewRegistrationHandler(registrationService service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

func (h *RegistrationHandler) RegisterRoutes(router *gin.RouterGroup) {
	registrations := router.Group("/api/registrations")
	{
		registrations.GET("", h.ListRegistrations)
		registrations.GET("/:id", h.GetRegistration)
		registrations.POST("", h.CreateRegistration)
		registrations.PUT("/:id", h.UpdateRegistration)
		registrations.DELETE("/:id", h.DeleteRegistration)
	}
}

// ListRegistrations returns paginated registrations owned by the current user
// @Summary      List registrations
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default: 1)"
// @Param        limit      query     int     false  "Items per page (default: 20)"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        status     query     string  false  "Filter by status"
// @Success      200        {object}  response.Response
// @Router       /api/registrations [get]
func (h *RegistrationHandler) ListRegistrations(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.registrationService.ListRegistrations(c.Request.Context(), scope, p.ClientID, p.Status, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// GetRegistration returns a single registration
// @Summary      Get registration
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Registration ID"
// @Success      200  {object}  response.Response{data=service.RegistrationResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/registrations/{id} [get]
func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	item, err := h.registrationService.GetRegistration(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreateRegistration creates a new registration
// @Summary      Create registration
// @Tags         registrations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRegistrationRequest  true  "Registration payload"
// @Success      201      {object}  response.Response{data=service.RegistrationResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Router       /api/registrations [post]
func (h *RegistrationHandler) CreateRegistration(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.registrationService.CreateRegistration(c.Request.Context(), scope, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateRegistration applies a partial update. Omitted fields are left unchanged.
// @Summary      Update registration
// @Description  Status changes go through the compliance engine; approval activates the client.
// @Tags         registrations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Registration ID"
// @Param        payload  body      service.UpdateRegistrationRequest  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.RegistrationResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.ValidationResponse
// @Router       /api/registrations/{id} [put]
func (h *RegistrationHandler) UpdateRegistration(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.UpdateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.registrationService.UpdateRegistration(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteRegistration deletes a registration and its documents
// @Summary      Delete registration
// @Tags         registrations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Registration ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/registrations/{id} [delete]
func (h *RegistrationHandler) DeleteRegistration(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	if err := h.registrationService.DeleteRegistration(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Registration deleted successfully"}))
}

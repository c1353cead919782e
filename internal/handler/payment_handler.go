package handler

import (
	"net/http"

	"gstdesk/internal/service"
	"gstdesk/pkg/pagination"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments")
	{
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.POST("", h.CreatePayment)
		payments.PUT("/:id", h.UpdatePayment)
		payments.DELETE("/:id", h.DeletePayment)
	}
}

// ListPayments returns paginated payments owned by the current user
// @Summary      List payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default: 1)"
// @Param        limit      query     int     false  "Items per page (default: 20)"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        status     query     string  false  "Filter by status"
// @Success      200        {object}  response.Response
// @Router       /api/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.paymentService.ListPayments(c.Request.Context(), scope, p.ClientID, p.Status, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// GetPayment returns a single payment
// @Summary      Get payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.PaymentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	item, err := h.paymentService.GetPayment(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreatePayment creates a new payment
// @Summary      Create payment
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentRequest  true  "Payment payload"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Router       /api/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.paymentService.CreatePayment(c.Request.Context(), scope, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdatePayment applies a partial update. Omitted fields are left unchanged.
// @Summary      Update payment
// @Description  Marking PAID with a linked return moves the return to Filed.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Payment ID"
// @Param        payload  body      service.UpdatePaymentRequest  true  "Update payload"
// @Success      200      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.ValidationResponse
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.ValidationResponse
// @Router       /api/payments/{id} [put]
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	var req service.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	item, err := h.paymentService.UpdatePayment(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeletePayment deletes a payment
// @Summary      Delete payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [delete]
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	scope, ok := actor(c)
	if !ok {
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Payment deleted successfully"}))
}

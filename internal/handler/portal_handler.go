package handler

import (
	"net/http"
	"strings"

	"gstdesk/internal/service"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// portalSessionHeader carries the token returned by /api/portal/authenticate.
const portalSessionHeader = "X-Portal-Session"

type PortalHandler struct {
	portalService service.PortalService
}

func NewPortalHandler(portalService service.PortalService) *PortalHandler {
	return &PortalHandler{portalService: portalService}
}

func (h *PortalHandler) RegisterRoutes(router *gin.RouterGroup) {
	portal := router.Group("/api/portal")
	{
		portal.POST("/authenticate", h.Authenticate)
		portal.GET("/records", h.FetchRecords)
	}
}

// Authenticate exchanges portal credentials for a portal session
// @Summary      Authenticate with the GST portal
// @Tags         portal
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PortalAuthRequest  true  "Portal credentials"
// @Success      200      {object}  response.Response{data=portal.Session}
// @Failure      401      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /api/portal/authenticate [post]
func (h *PortalHandler) Authenticate(c *gin.Context) {
	var req service.PortalAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}

	session, err := h.portalService.Authenticate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// FetchRecords lists filings for a registration number over a period range
// @Summary      Fetch portal records
// @Tags         portal
// @Security     BearerAuth
// @Produce      json
// @Param        X-Portal-Session     header    string  true  "Portal session token"
// @Param        registration_number  query     string  true  "GSTIN"
// @Param        from                 query     string  true  "First period (YYYY-MM)"
// @Param        to                   query     string  true  "Last period (YYYY-MM)"
// @Success      200                  {object}  response.Response{data=[]portal.Record}
// @Failure      400                  {object}  response.ValidationResponse
// @Failure      401                  {object}  response.Response
// @Router       /api/portal/records [get]
func (h *PortalHandler) FetchRecords(c *gin.Context) {
	records, err := h.portalService.FetchRecords(c.Request.Context(), service.PortalRecordsQuery{
		Session:            strings.TrimSpace(c.GetHeader(portalSessionHeader)),
		RegistrationNumber: c.Query("registration_number"),
		From:               c.Query("from"),
		To:                 c.Query("to"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

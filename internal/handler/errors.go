package handler

import (
	"errors"
	"net/http"

	"gstdesk/internal/compliance"
	"gstdesk/internal/middleware"
	"gstdesk/internal/portal"
	"gstdesk/internal/service"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError writes the envelope matching err's place in the taxonomy.
// Storage failures are attached to the gin context for the request logger
// and not echoed to the client.
func respondError(c *gin.Context, err error) {
	var verr *compliance.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if verr.Field == "status" {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, response.ValidationFailure(status, err.Error(), verr.Field, verr.Allowed))
	case errors.Is(err, compliance.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, compliance.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, portal.ErrRejected):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	case errors.Is(err, portal.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, err.Error()))
	case errors.Is(err, portal.ErrUnavailable):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, portal.ErrUnavailable.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

func badPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// actor returns the authenticated scope or aborts with 401.
func actor(c *gin.Context) (compliance.Scope, bool) {
	scope, ok := middleware.ScopeFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
	}
	return scope, ok
}

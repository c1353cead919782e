package middleware

import (
	"net/http"
	"os"
	"strings"

	"gstdesk/internal/compliance"
	"gstdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
	ctxScope    = "scope"
)

// SetTokenCookie sets access_token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, accessToken string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

func tokenFromRequest(c *gin.Context) (string, string) {
	// Try cookie first, fallback to Authorization header
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireAuth validates the JWT and places the acting user's compliance
// scope on the context.
func RequireAuth(secret []byte, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
			return
		}
		userRole, _ := claims["role"].(string)

		if len(allowedRoles) > 0 && !contains(allowedRoles, userRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(ctxUserID, userID.String())
		c.Set(ctxUserRole, userRole)
		c.Set(ctxScope, compliance.Scope{UserID: userID})

		c.Next()
	}
}

// RequireRole restricts a route RequireAuth already guards to the given
// roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !contains(roles, c.GetString(ctxUserRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}
		c.Next()
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// ScopeFrom returns the scope RequireAuth stored. ok is false on routes
// that skipped authentication.
func ScopeFrom(c *gin.Context) (compliance.Scope, bool) {
	v, exists := c.Get(ctxScope)
	if !exists {
		return compliance.Scope{}, false
	}
	scope, ok := v.(compliance.Scope)
	return scope, ok && !scope.IsSystem()
}

// UserIDFrom returns the authenticated user id string.
func UserIDFrom(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

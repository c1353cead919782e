package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a list request: the page window plus the client_id and status
// filters every compliance list accepts.
type Params struct {
	Page     int
	Limit    int
	ClientID string
	Status   string
}

// Parse reads page, limit, client_id and status from the query string.
// Out of range or malformed page values fall back to the defaults.
func Parse(c *gin.Context) Params {
	p := Params{
		Page:     queryInt(c, "page", DefaultPage),
		Limit:    queryInt(c, "limit", DefaultLimit),
		ClientID: strings.TrimSpace(c.Query("client_id")),
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

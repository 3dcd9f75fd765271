package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pawtrail/petcare-api/internal/middleware"
	"github.com/pawtrail/petcare-api/internal/service/accesslog"
	"github.com/pawtrail/petcare-api/pkg/httputil"
)

// ParseUUIDParam parses a path parameter as a uuid, answering 400 itself
// when the value is malformed.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.Response{
			Success: false,
			Message: "invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// CurrentUser returns the authenticated user set by the auth middleware.
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httputil.Response{
			Success: false,
			Message: "unauthorized",
		})
		return uuid.Nil, false
	}
	return id, true
}

// Meta captures the request attributes written to the access trail.
func Meta(c *gin.Context) accesslog.Meta {
	return accesslog.Meta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawtrail/petcare-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithMessage sends a success response carrying only a message
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
	})
}

// RespondWithError sends an error response with the status mapped from
// the error taxonomy
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	c.JSON(appErr.Code.HTTPStatus(), Response{
		Success: false,
		Message: appErr.Message,
	})
}

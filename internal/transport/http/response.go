package httptransport

import (
	"github.com/gin-gonic/gin"

	"printpress-server-go/internal/platform/errors"
)

// APIResponse is the envelope for every JSON endpoint.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// RespondSuccess writes a success envelope.
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}, message string) {
	if message == "" {
		message = "ok"
	}

	c.JSON(httpStatus, APIResponse{
		Success: true,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	})
}

// RespondError writes a failure envelope.
func RespondError(c *gin.Context, httpStatus int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	})
}

// RespondTypedError maps a domain error onto its HTTP status and writes
// the envelope with the machine-readable error code in data.
func RespondTypedError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	RespondError(c, code.HTTPStatus(), err.Error(), gin.H{"error_code": string(code)})
}

package response

import (
	"errors"
	"net/http"

	"multiledger/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error body served to clients. Detail carries the
// human-readable message, Code the machine-readable taxonomy kind.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// OK sends a 200 response with the payload as-is. Success bodies are
// wire-exact shapes owned by the dto package, so no envelope is added.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			Detail: appErr.Message,
			Code:   appErr.Code,
		})
		return
	}

	// Unknown error -> 500
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Detail: "Internal server error",
		Code:   "SYS_000",
	})
}

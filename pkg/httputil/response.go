package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careloop/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
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

// RespondWithError sends an error response with the status mapped
// from the application error taxonomy.
func RespondWithError(c *gin.Context, err error) {
	status := statusFor(errors.CodeOf(err))

	message := "internal server error"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}

	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    status,
			Message: message,
		},
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

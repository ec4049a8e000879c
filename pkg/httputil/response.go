package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Status  string                 `json:"status"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

var statusByCode = map[errors.ErrorCode]int{
	errors.ErrNotFound:          http.StatusNotFound,
	errors.ErrBadRequest:        http.StatusBadRequest,
	errors.ErrUnauthorized:      http.StatusUnauthorized,
	errors.ErrForbidden:         http.StatusForbidden,
	errors.ErrInternal:          http.StatusInternalServerError,
	errors.ErrSlotUnavailable:   http.StatusBadRequest,
	errors.ErrInvalidTransition: http.StatusBadRequest,
	errors.ErrConflict:          http.StatusConflict,
}

// StatusFor returns the HTTP status for an error code
func StatusFor(code errors.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondWithError writes err as an ErrorBody. Errors that are not an
// AppError become a bare 500 and are recorded on the gin context for
// the error middleware to log.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}

	status := StatusFor(appErr.Code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, ErrorBody{
			Status:  "error",
			Code:    errors.ErrInternal.String(),
			Message: "internal server error",
		})
		return
	}

	c.AbortWithStatusJSON(status, ErrorBody{
		Status:  "error",
		Code:    appErr.Code.String(),
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// RespondWithSuccess writes data with the given status
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/middleware"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

// BindJSON decodes and validates the body into dst. On failure it writes
// a 400 listing the offending fields and returns false.
func BindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		httputil.RespondWithError(c, apperrors.BadRequest("Request body is required", err))
		return false
	}
	respondInvalid(c, err)
	return false
}

// BindQuery is BindJSON for query parameters
func BindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondInvalid(c, err)
		return false
	}
	return true
}

// ParamID parses a positive integer path parameter
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(c, &apperrors.AppError{
			Code:    apperrors.ErrBadRequest,
			Message: "Invalid " + name,
			Details: map[string]interface{}{name: c.Param(name)},
			Err:     err,
		})
		return 0, false
	}
	return id, true
}

func respondInvalid(c *gin.Context, err error) {
	appErr := apperrors.BadRequest("Invalid request", err)
	if fields := middleware.FieldErrors(err); len(fields) > 0 {
		appErr.Details = map[string]interface{}{"fields": fields}
	} else {
		appErr.Message = "Malformed request: " + err.Error()
	}
	httputil.RespondWithError(c, appErr)
}

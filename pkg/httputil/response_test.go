package httputil

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorBody, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithError(c, err)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body, c
}

func TestRespondWithError_DomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.SlotUnavailable(3, "time slot is already booked"), http.StatusBadRequest, "slot_unavailable"},
		{errors.InvalidTransition(1, "confirmed", "declined"), http.StatusBadRequest, "invalid_transition"},
		{errors.Forbidden("nope"), http.StatusForbidden, "forbidden"},
		{errors.Conflict("email already in use", nil), http.StatusConflict, "conflict"},
		{errors.NotFound("appointment", nil), http.StatusNotFound, "not_found"},
		{errors.Unauthorized(nil), http.StatusUnauthorized, "unauthorized"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w, body, _ := respond(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestRespondWithError_SlotDetails(t *testing.T) {
	_, body, _ := respond(t, errors.SlotUnavailable(3, "time slot does not exist"))
	assert.Equal(t, "Time slot not available", body.Message)
	assert.Equal(t, float64(3), body.Details["time_slot_id"])
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	w, body, c := respond(t, stderrors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body.Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)
}

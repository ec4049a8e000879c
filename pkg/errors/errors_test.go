package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Internal(cause)

	assert.Equal(t, "internal server error: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestAs_FindsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("confirm: %w", InvalidTransition(7, "confirmed", "declined"))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidTransition, appErr.Code)
	assert.Equal(t, "confirmed", appErr.Details["current_status"])
	assert.Contains(t, appErr.Message, "Current status: confirmed")
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(SlotUnavailable(3, "already booked"), ErrSlotUnavailable))
	assert.False(t, HasCode(NotFound("appointment", nil), ErrSlotUnavailable))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrNotFound))
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "slot_unavailable", ErrSlotUnavailable.String())
	assert.Equal(t, "forbidden", ErrForbidden.String())
	assert.Equal(t, "conflict", ErrConflict.String())
	assert.Equal(t, "error_42", ErrorCode(42).String())
}

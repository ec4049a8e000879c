package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/booking-api/pkg/logger"
)

func TestChannelPrefix(t *testing.T) {
	assert.Equal(t, "booking.appointment.created", newBroker(nil, "booking", logger.Nop()).channel("appointment.created"))
	assert.Equal(t, "appointment.created", newBroker(nil, "", logger.Nop()).channel("appointment.created"))
}

func TestNewRedisBroker_RejectsBadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "://nope"}, logger.Nop())
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

// Package push delivers short user-facing messages over whatever
// channels a recipient can be reached on.
package push

import (
	"context"
	"errors"
)

var (
	// ErrDeliveryFailed wraps every provider-side delivery error
	ErrDeliveryFailed = errors.New("push delivery failed")
	// ErrNoChannel means the recipient has neither a device token nor an
	// email address for the sender to use
	ErrNoChannel = errors.New("recipient has no delivery channel")
)

type Recipient struct {
	UserID      int64
	UserType    string
	DeviceToken string
	Email       string
}

type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a message to one recipient. Implementations make a
// single attempt; retries belong to the caller.
type Sender interface {
	Send(ctx context.Context, to Recipient, msg Message) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, to Recipient, msg Message) error

func (f SenderFunc) Send(ctx context.Context, to Recipient, msg Message) error {
	return f(ctx, to, msg)
}

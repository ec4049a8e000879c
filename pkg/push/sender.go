package push

import (
	"context"
	"errors"

	"github.com/jwalitptl/booking-api/pkg/circuitbreaker"
	"github.com/jwalitptl/booking-api/pkg/logger"
)

// MultiSender tries every sender. It succeeds when at least one channel
// delivered the message.
type MultiSender struct {
	senders []Sender
}

func NewMultiSender(senders ...Sender) *MultiSender {
	return &MultiSender{senders: senders}
}

func (m *MultiSender) Send(ctx context.Context, to Recipient, msg Message) error {
	var errs []error
	delivered := false
	for _, s := range m.senders {
		err := s.Send(ctx, to, msg)
		switch {
		case err == nil:
			delivered = true
		case errors.Is(err, ErrNoChannel):
		default:
			errs = append(errs, err)
		}
	}
	if delivered {
		return nil
	}
	if len(errs) == 0 {
		return ErrNoChannel
	}
	return errors.Join(errs...)
}

// BreakerSender stops calling a failing provider until its breaker
// half-opens again
type BreakerSender struct {
	next Sender
	cb   *circuitbreaker.CircuitBreaker
}

func NewBreakerSender(name string, next Sender, log *logger.Logger) *BreakerSender {
	return &BreakerSender{
		next: next,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			OnStateChange: func(name, from, to string) {
				log.Warn("Circuit breaker state changed", "breaker", name, "from", from, "to", to)
			},
		}),
	}
}

func (b *BreakerSender) Send(ctx context.Context, to Recipient, msg Message) error {
	var skipped error
	err := b.cb.Execute(func() error {
		err := b.next.Send(ctx, to, msg)
		if errors.Is(err, ErrNoChannel) {
			// not the provider's fault
			skipped = err
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return errors.Join(ErrDeliveryFailed, err)
		}
		return err
	}
	return skipped
}

// LogSender only logs. It stands in when no provider is configured.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to Recipient, msg Message) error {
	s.logger.Info("Push message", "user_id", to.UserID, "user_type", to.UserType, "title", msg.Title)
	return nil
}

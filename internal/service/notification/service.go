package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/push"
	"github.com/jwalitptl/booking-api/pkg/worker"
)

const deliveryTask = "push_delivery"

// Dispatcher runs delivery tasks off the request path
type Dispatcher interface {
	Submit(name string, task worker.Task) bool
}

type Config struct {
	RetryAttempts int
	RetryDelay    time.Duration
}

type Service struct {
	store   repository.Store
	sender  push.Sender
	pool    Dispatcher
	config  Config
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(store repository.Store, sender push.Sender, pool Dispatcher, config Config, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	return &Service{
		store:   store,
		sender:  sender,
		pool:    pool,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Create persists the notification, then queues delivery. Delivery
// never affects the result.
func (s *Service) Create(ctx context.Context, req model.CreateNotificationRequest) (*model.Notification, error) {
	n := &model.Notification{
		UserID:   req.UserID,
		UserType: req.UserType,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		SentAt:   time.Now().UTC(),
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		s.logger.Error(err, "Failed to create notification", "user_id", req.UserID)
		return nil, apperrors.Internal(err)
	}
	s.metrics.NotificationsCreated.Inc()

	s.deliver(n.UserID, n.UserType, push.Message{
		Title: n.Title,
		Body:  n.Message,
		Data: map[string]string{
			"notification_id": strconv.FormatInt(n.ID, 10),
			"type":            string(n.Type),
		},
	})
	return n, nil
}

func (s *Service) List(ctx context.Context, id model.Identity, page model.Pagination) (*model.NotificationPage, error) {
	skip, limit := page.Page()
	result, err := s.store.Notifications().List(ctx, id.UserID, id.UserType, skip, limit)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list notifications: %w", err))
	}
	return result, nil
}

// MarkRead flips the read flag on a notification the caller owns
func (s *Service) MarkRead(ctx context.Context, id model.Identity, notificationID int64) (*model.Notification, error) {
	var n *model.Notification
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := s.authorize(ctx, tx, id, notificationID); err != nil {
			return err
		}
		var err error
		n, err = tx.Notifications().MarkRead(ctx, notificationID)
		return err
	})
	if err != nil {
		return nil, s.wrap(err, notificationID)
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, id model.Identity) (int64, error) {
	updated, err := s.store.Notifications().MarkAllRead(ctx, id.UserID, id.UserType)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("failed to mark notifications read: %w", err))
	}
	return updated, nil
}

// Delete removes a notification the caller owns and tells them so
func (s *Service) Delete(ctx context.Context, id model.Identity, notificationID int64) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := s.authorize(ctx, tx, id, notificationID); err != nil {
			return err
		}
		return tx.Notifications().Delete(ctx, notificationID)
	})
	if err != nil {
		return s.wrap(err, notificationID)
	}

	s.deliver(id.UserID, id.UserType, push.Message{
		Title: "Notification deleted",
		Body:  "You just deleted a notification",
	})
	return nil
}

// RegisterDeviceToken stores a new push token; the newest one is used
func (s *Service) RegisterDeviceToken(ctx context.Context, id model.Identity, req model.RegisterDeviceTokenRequest) (*model.DeviceToken, error) {
	token := &model.DeviceToken{
		UserID:   id.UserID,
		UserType: id.UserType,
		Token:    req.Token,
	}
	if err := s.store.DeviceTokens().Create(ctx, token); err != nil {
		s.logger.Error(err, "Failed to register device token", "user_id", id.UserID)
		return nil, apperrors.Internal(err)
	}
	return token, nil
}

func (s *Service) authorize(ctx context.Context, tx repository.Store, id model.Identity, notificationID int64) error {
	n, err := tx.Notifications().Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if !n.OwnedBy(id) {
		return &apperrors.AppError{
			Code:    apperrors.ErrForbidden,
			Message: "Not authorized to access this notification",
			Details: map[string]interface{}{"notification_id": notificationID},
		}
	}
	return nil
}

func (s *Service) wrap(err error, notificationID int64) error {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("notification", err)
	}
	s.logger.Error(err, "Notification operation failed", "notification_id", notificationID)
	return apperrors.Internal(err)
}

func (s *Service) deliver(userID int64, userType model.UserType, msg push.Message) {
	queued := s.pool.Submit(deliveryTask, func(ctx context.Context) error {
		start := time.Now()
		err := s.send(ctx, userID, userType, msg)
		s.metrics.DeliveryLatency.Observe(time.Since(start).Seconds())

		switch {
		case err == nil:
			s.metrics.DeliveriesTotal.WithLabelValues("success").Inc()
		case errors.Is(err, push.ErrNoChannel):
			s.metrics.DeliveriesTotal.WithLabelValues("skipped").Inc()
			s.logger.Debug("No delivery channel for user", "user_id", userID, "user_type", userType)
			return nil
		default:
			s.metrics.DeliveriesTotal.WithLabelValues("failure").Inc()
		}
		return err
	})
	if !queued {
		s.metrics.DeliveriesTotal.WithLabelValues("dropped").Inc()
	}
}

func (s *Service) send(ctx context.Context, userID int64, userType model.UserType, msg push.Message) error {
	to, err := s.recipient(ctx, userID, userType)
	if err != nil {
		return err
	}
	skipped := false
	err = worker.Retry(ctx, s.config.RetryAttempts, s.config.RetryDelay, func() error {
		err := s.sender.Send(ctx, to, msg)
		if errors.Is(err, push.ErrNoChannel) {
			skipped = true
			return nil
		}
		return err
	})
	if err == nil && skipped {
		return push.ErrNoChannel
	}
	return err
}

// recipient resolves the newest device token and the user's email
func (s *Service) recipient(ctx context.Context, userID int64, userType model.UserType) (push.Recipient, error) {
	to := push.Recipient{UserID: userID, UserType: string(userType)}

	token, err := s.store.DeviceTokens().Latest(ctx, userID, userType)
	switch {
	case err == nil:
		to.DeviceToken = token.Token
	case !errors.Is(err, repository.ErrNotFound):
		return to, fmt.Errorf("failed to get device token: %w", err)
	}

	switch userType {
	case model.UserTypePatient:
		if p, err := s.store.Patients().Get(ctx, userID); err == nil {
			to.Email = p.Email
		}
	case model.UserTypeDoctor:
		if d, err := s.store.Doctors().Get(ctx, userID); err == nil {
			to.Email = d.Email
		}
	}

	if to.DeviceToken == "" && to.Email == "" {
		return to, push.ErrNoChannel
	}
	return to, nil
}

package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/push"
	"github.com/jwalitptl/booking-api/pkg/worker"
)

// inlineDispatcher runs tasks on the caller's goroutine
type inlineDispatcher struct {
	mu   sync.Mutex
	errs []error
}

func (d *inlineDispatcher) Submit(name string, task worker.Task) bool {
	err := task(context.Background())
	d.mu.Lock()
	d.errs = append(d.errs, err)
	d.mu.Unlock()
	return true
}

type recordingSender struct {
	mu   sync.Mutex
	sent []push.Recipient
	msgs []push.Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, to push.Recipient, msg push.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	r.msgs = append(r.msgs, msg)
	return r.err
}

func setup(t *testing.T, sender push.Sender) (*Service, *memory.Store, *inlineDispatcher) {
	t.Helper()
	store := memory.NewStore()
	d := &inlineDispatcher{}
	svc := NewService(store, sender, d, Config{RetryAttempts: 2, RetryDelay: time.Millisecond}, logger.Nop(), metrics.NewUnregistered("test"))
	return svc, store, d
}

func request(userID int64, userType model.UserType) model.CreateNotificationRequest {
	return model.CreateNotificationRequest{
		UserID:   userID,
		UserType: userType,
		Title:    "Reminder",
		Message:  "Your appointment is tomorrow",
		Type:     model.NotificationTypeUpcoming,
	}
}

func TestService_CreateSurvivesDeliveryFailure(t *testing.T) {
	sender := &recordingSender{err: push.ErrDeliveryFailed}
	svc, store, d := setup(t, sender)
	ctx := context.Background()
	require.NoError(t, store.DeviceTokens().Create(ctx, &model.DeviceToken{UserID: 1, UserType: model.UserTypePatient, Token: "tok"}))

	n, err := svc.Create(ctx, request(1, model.UserTypePatient))
	require.NoError(t, err)
	assert.False(t, n.IsRead)

	stored, err := store.Notifications().Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reminder", stored.Title)

	require.Len(t, d.errs, 1)
	assert.ErrorIs(t, d.errs[0], push.ErrDeliveryFailed)
	assert.Len(t, sender.sent, 2, "delivery is retried")
}

func TestService_CreateDeliversToLatestToken(t *testing.T) {
	sender := &recordingSender{}
	svc, store, d := setup(t, sender)
	ctx := context.Background()

	patient := &model.Patient{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com"}
	require.NoError(t, store.Patients().Create(ctx, patient))
	_, err := svc.RegisterDeviceToken(ctx, model.Identity{UserID: patient.ID, UserType: model.UserTypePatient}, model.RegisterDeviceTokenRequest{Token: "first"})
	require.NoError(t, err)
	_, err = svc.RegisterDeviceToken(ctx, model.Identity{UserID: patient.ID, UserType: model.UserTypePatient}, model.RegisterDeviceTokenRequest{Token: "second"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, request(patient.ID, model.UserTypePatient))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "second", sender.sent[0].DeviceToken)
	assert.Equal(t, "sam@example.com", sender.sent[0].Email)
	assert.NoError(t, d.errs[0])
}

func TestService_CreateWithoutChannelIsSkipped(t *testing.T) {
	sender := &recordingSender{}
	svc, _, d := setup(t, sender)

	_, err := svc.Create(context.Background(), request(9, model.UserTypeDoctor))
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
	assert.NoError(t, d.errs[0])
}

func TestService_CreateWithPool(t *testing.T) {
	store := memory.NewStore()
	m := metrics.NewUnregistered("test")
	pool := worker.NewPool(worker.PoolConfig{Workers: 2, QueueSize: 8, TaskTimeout: time.Second}, logger.Nop(), m)
	pool.Start()

	svc := NewService(store, &recordingSender{err: push.ErrDeliveryFailed}, pool, Config{RetryAttempts: 1}, logger.Nop(), m)
	require.NoError(t, store.DeviceTokens().Create(context.Background(), &model.DeviceToken{UserID: 1, UserType: model.UserTypePatient, Token: "t"}))

	n, err := svc.Create(context.Background(), request(1, model.UserTypePatient))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))

	_, err = store.Notifications().Get(context.Background(), n.ID)
	assert.NoError(t, err)
}

func TestService_OwnershipChecks(t *testing.T) {
	svc, _, _ := setup(t, &recordingSender{})
	ctx := context.Background()
	owner := model.Identity{UserID: 1, UserType: model.UserTypePatient}
	// same id, different user type
	other := model.Identity{UserID: 1, UserType: model.UserTypeDoctor}

	n, err := svc.Create(ctx, request(owner.UserID, owner.UserType))
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, other, n.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))
	err = svc.Delete(ctx, other, n.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))

	_, err = svc.MarkRead(ctx, owner, 999)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
	err = svc.Delete(ctx, owner, 999)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	read, err := svc.MarkRead(ctx, owner, n.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
}

func TestService_DeleteSendsNotice(t *testing.T) {
	sender := &recordingSender{}
	svc, store, _ := setup(t, sender)
	ctx := context.Background()
	owner := model.Identity{UserID: 3, UserType: model.UserTypeDoctor}
	require.NoError(t, store.DeviceTokens().Create(ctx, &model.DeviceToken{UserID: 3, UserType: model.UserTypeDoctor, Token: "d"}))

	n, err := svc.Create(ctx, request(owner.UserID, owner.UserType))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, owner, n.ID))

	_, err = store.Notifications().Get(ctx, n.ID)
	assert.Error(t, err)
	require.Len(t, sender.msgs, 2)
	assert.Equal(t, "Notification deleted", sender.msgs[1].Title)
}

func TestService_MarkAllReadIdempotent(t *testing.T) {
	svc, _, _ := setup(t, &recordingSender{})
	ctx := context.Background()
	id := model.Identity{UserID: 5, UserType: model.UserTypePatient}
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, request(id.UserID, id.UserType))
		require.NoError(t, err)
	}

	updated, err := svc.MarkAllRead(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	updated, err = svc.MarkAllRead(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestService_ListCountsMatchDirectCounts(t *testing.T) {
	svc, store, _ := setup(t, &recordingSender{})
	ctx := context.Background()
	id := model.Identity{UserID: 8, UserType: model.UserTypePatient}

	var created []*model.Notification
	for i := 0; i < 7; i++ {
		n, err := svc.Create(ctx, request(id.UserID, id.UserType))
		require.NoError(t, err)
		created = append(created, n)
	}
	_, err := svc.Create(ctx, request(id.UserID, model.UserTypeDoctor))
	require.NoError(t, err)
	for _, n := range created[:3] {
		_, err := svc.MarkRead(ctx, id, n.ID)
		require.NoError(t, err)
	}

	limit := 2
	page, err := svc.List(ctx, id, model.Pagination{Skip: 1, Limit: &limit})
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)

	var total, unread int64
	for _, n := range created {
		stored, err := store.Notifications().Get(ctx, n.ID)
		require.NoError(t, err)
		total++
		if !stored.IsRead {
			unread++
		}
	}
	assert.Equal(t, total, page.Total)
	assert.Equal(t, unread, page.UnreadCount)
	assert.LessOrEqual(t, page.UnreadCount, page.Total)
}

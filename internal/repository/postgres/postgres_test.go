package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

func setupMockDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "postgres")
	return NewStore(db), mock
}

var slotCols = []string{"id", "doctor_id", "date", "start_time", "end_time", "status"}

func TestTimeSlotRepository_Reserve(t *testing.T) {
	store, mock := setupMockDB(t)
	date := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE time_slots SET status = \$2 WHERE id = \$1 AND status = \$3 RETURNING`).
		WithArgs(int64(4), "booked", "available").
		WillReturnRows(sqlmock.NewRows(slotCols).
			AddRow(int64(4), int64(2), date, model.ClockTime(9, 0, 0), model.ClockTime(9, 30, 0), "booked"))

	slot, err := store.TimeSlots().Reserve(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusBooked, slot.Status)
	assert.Equal(t, int64(2), slot.DoctorID)
	assert.Equal(t, "09:30:00", slot.View().EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepository_ReserveUnavailable(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery(`UPDATE time_slots`).
		WithArgs(int64(4), "booked", "available").
		WillReturnRows(sqlmock.NewRows(slotCols))

	_, err := store.TimeSlots().Reserve(context.Background(), 4)
	assert.ErrorIs(t, err, repository.ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepository_ReleaseMissingSlotIsNoop(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE time_slots SET status = \$2 WHERE id = \$1`).
		WithArgs(int64(99), "available").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.TimeSlots().Release(context.Background(), 99))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var appointmentCols = []string{"id", "patient_id", "doctor_id", "time_slot_id", "status", "qr_code_url", "created_at", "updated_at"}

func TestAppointmentRepository_TransitionStatusMismatch(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery(`UPDATE appointments SET status = \$3, updated_at = \$4 WHERE id = \$1 AND status = \$2`).
		WithArgs(int64(7), "pending", "confirmed", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(appointmentCols))

	_, err := store.Appointments().TransitionStatus(context.Background(), 7,
		model.AppointmentStatusPending, model.AppointmentStatusConfirmed)
	assert.ErrorIs(t, err, repository.ErrStatusMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_DetachSlot(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE appointments SET time_slot_id = NULL, updated_at = \$2 WHERE id = \$1`).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE appointments SET time_slot_id = NULL`).
		WithArgs(int64(8), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Appointments().DetachSlot(context.Background(), 7))
	assert.ErrorIs(t, store.Appointments().DetachSlot(context.Background(), 8), repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintViolationsMapToSentinels(t *testing.T) {
	store, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE doctors`).WillReturnError(&pq.Error{Code: "23505", Constraint: "doctors_email_key"})
	mock.ExpectExec(`UPDATE doctors`).WillReturnError(&pq.Error{Code: "23503", Constraint: "doctors_specialty_id_fkey"})
	mock.ExpectExec(`UPDATE patients`).WillReturnError(&pq.Error{Code: "57014"})

	err := store.Doctors().Update(ctx, &model.Doctor{Base: model.Base{ID: 1}, Email: "taken@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))

	err = store.Doctors().Update(ctx, &model.Doctor{Base: model.Base{ID: 1}})
	assert.ErrorIs(t, err, repository.ErrInvalidReference)

	err = store.Patients().Update(ctx, &model.Patient{Base: model.Base{ID: 1}})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_DeleteReturnsRow(t *testing.T) {
	store, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`DELETE FROM appointments WHERE id = \$1 RETURNING`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(appointmentCols).
			AddRow(int64(7), int64(1), int64(2), int64(4), "confirmed", nil, now, now))

	appt, err := store.Appointments().Delete(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, appt.TimeSlotID)
	assert.Equal(t, int64(4), *appt.TimeSlotID)
	assert.Nil(t, appt.QRCodeURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_DeleteNotFound(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery(`DELETE FROM appointments`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(appointmentCols))

	_, err := store.Appointments().Delete(context.Background(), 8)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAppointmentRepository_ListFilters(t *testing.T) {
	store, mock := setupMockDB(t)
	patientID := int64(3)
	status := model.AppointmentStatusPending

	mock.ExpectQuery(`FROM appointments WHERE patient_id = \$1 AND status = \$2 ORDER BY id ASC`).
		WithArgs(int64(3), "pending").
		WillReturnRows(sqlmock.NewRows(appointmentCols))

	appts, err := store.Appointments().List(context.Background(), model.AppointmentFilter{
		PatientID: &patientID,
		Status:    &status,
	})
	require.NoError(t, err)
	assert.Empty(t, appts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var pageCols = []string{"total", "unread_count", "id", "user_id", "user_type", "title", "message", "type", "is_read", "sent_at"}

func TestNotificationRepository_ListPage(t *testing.T) {
	store, mock := setupMockDB(t)
	sent := time.Now()

	mock.ExpectQuery(`WITH scoped AS`).
		WithArgs(int64(1), "patient", 0, 20).
		WillReturnRows(sqlmock.NewRows(pageCols).
			AddRow(int64(3), int64(2), int64(9), int64(1), "patient", "Accepted", "See you", "ACCEPTED", false, sent).
			AddRow(int64(3), int64(2), int64(8), int64(1), "patient", "Declined", "Sorry", "DECLINED", true, sent.Add(-time.Hour)))

	page, err := store.Notifications().List(context.Background(), 1, model.UserTypePatient, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(2), page.UnreadCount)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, int64(9), page.Notifications[0].ID)
	assert.Equal(t, model.NotificationTypeDeclined, page.Notifications[1].Type)
}

func TestNotificationRepository_ListPastEndKeepsCounts(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery(`WITH scoped AS`).
		WithArgs(int64(1), "doctor", 40, 20).
		WillReturnRows(sqlmock.NewRows(pageCols).
			AddRow(int64(3), int64(1), nil, nil, nil, nil, nil, nil, nil, nil))

	page, err := store.Notifications().List(context.Background(), 1, model.UserTypeDoctor, 40, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Notifications)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(1), page.UnreadCount)
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE user_id = \$1 AND user_type = \$2 AND is_read = FALSE`).
		WithArgs(int64(1), "patient").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := store.Notifications().MarkAllRead(context.Background(), 1, model.UserTypePatient)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestNotificationRepository_DeleteNotFound(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(`DELETE FROM notifications WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.Notifications().Delete(context.Background(), 5), repository.ErrNotFound)
}

func TestDeviceTokenRepository_Latest(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery(`FROM device_tokens WHERE user_id = \$1 AND user_type = \$2 ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs(int64(1), "patient").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "user_type", "token", "created_at"}).
			AddRow(int64(3), int64(1), "patient", "tok-new", time.Now()))

	token, err := store.DeviceTokens().Latest(context.Background(), 1, model.UserTypePatient)
	require.NoError(t, err)
	assert.Equal(t, "tok-new", token.Token)
}

func TestWorkingHoursRepository_Upsert(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery(`ON CONFLICT \(doctor_id, day_of_week, period\) DO UPDATE`).
		WithArgs(int64(2), 1, "morning", "08:00:00", "12:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	hours := &model.WorkingHours{
		DoctorID:  2,
		DayOfWeek: 1,
		Period:    model.PeriodMorning,
		StartTime: model.ClockTime(8, 0, 0),
		EndTime:   model.ClockTime(12, 0, 0),
	}
	require.NoError(t, store.WorkingHours().Upsert(context.Background(), hours))
	assert.Equal(t, int64(11), hours.ID)
}

func TestStore_WithTxCommits(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE time_slots`).
		WillReturnRows(sqlmock.NewRows(slotCols).
			AddRow(int64(4), int64(2), time.Now(), model.ClockTime(9, 0, 0), model.ClockTime(9, 30, 0), "booked"))
	mock.ExpectQuery(`INSERT INTO appointments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectCommit()

	slotID := int64(4)
	appt := &model.Appointment{PatientID: 1, DoctorID: 2, TimeSlotID: &slotID, Status: model.AppointmentStatusPending}
	err := store.WithTx(context.Background(), func(tx repository.Store) error {
		if _, err := tx.TimeSlots().Reserve(context.Background(), slotID); err != nil {
			return err
		}
		return tx.Appointments().Create(context.Background(), appt)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), appt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTxRollsBackOnError(t *testing.T) {
	store, mock := setupMockDB(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE time_slots`).
		WillReturnRows(sqlmock.NewRows(slotCols).
			AddRow(int64(4), int64(2), time.Now(), model.ClockTime(9, 0, 0), model.ClockTime(9, 30, 0), "booked"))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Store) error {
		if _, err := tx.TimeSlots().Reserve(context.Background(), 4); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_UpdateStatusNotFound(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE outbox_events`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	event, err := model.NewOutboxEvent(model.EventAppointmentCreated, &model.Appointment{Base: model.Base{ID: 1}})
	require.NoError(t, err)
	err = store.Outbox().UpdateStatus(context.Background(), event.ID, model.OutboxStatusProcessed, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

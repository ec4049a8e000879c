package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

const notificationColumns = `id, user_id, user_type, title, message, type, is_read, sent_at`

// notificationPageQuery returns the counts on every row and one row with
// nil notification columns when the page is empty. A single statement
// keeps the counts and the page on the same snapshot.
const notificationPageQuery = `
	WITH scoped AS (
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND user_type = $2
	), counts AS (
		SELECT COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE NOT is_read) AS unread_count
		FROM scoped
	)
	SELECT counts.total, counts.unread_count,
		   page.id, page.user_id, page.user_type, page.title, page.message,
		   page.type, page.is_read, page.sent_at
	FROM counts
	LEFT JOIN LATERAL (
		SELECT * FROM scoped
		ORDER BY sent_at DESC, id DESC
		OFFSET $3 LIMIT $4
	) page ON TRUE
	ORDER BY page.sent_at DESC, page.id DESC
`

type notificationPageRow struct {
	Total       int64      `db:"total"`
	UnreadCount int64      `db:"unread_count"`
	ID          *int64     `db:"id"`
	UserID      *int64     `db:"user_id"`
	UserType    *string    `db:"user_type"`
	Title       *string    `db:"title"`
	Message     *string    `db:"message"`
	Type        *string    `db:"type"`
	IsRead      *bool      `db:"is_read"`
	SentAt      *time.Time `db:"sent_at"`
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, user_type, title, message, type, is_read, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if notification.SentAt.IsZero() {
		notification.SentAt = time.Now().UTC()
	}

	err := r.db.QueryRowxContext(ctx, query,
		notification.UserID,
		notification.UserType,
		notification.Title,
		notification.Message,
		notification.Type,
		notification.IsRead,
		notification.SentAt,
	).Scan(&notification.ID)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id int64) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	var notification model.Notification
	if err := r.get(ctx, &notification, repository.ErrNotFound, "get notification", query, id); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) (*model.Notification, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 RETURNING ` + notificationColumns

	var notification model.Notification
	if err := r.get(ctx, &notification, repository.ErrNotFound, "mark notification read", query, id); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64, userType model.UserType) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE user_id = $1 AND user_type = $2 AND is_read = FALSE
	`
	return r.execAffecting(ctx, "mark notifications read", query, userID, userType)
}

func (r *notificationRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM notifications WHERE id = $1`
	return requireAffected(r.execAffecting(ctx, "delete notification", query, id))
}

func (r *notificationRepository) List(ctx context.Context, userID int64, userType model.UserType, skip, limit int) (*model.NotificationPage, error) {
	var rows []notificationPageRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, notificationPageQuery, userID, userType, skip, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	page := &model.NotificationPage{Notifications: []*model.Notification{}}
	for _, row := range rows {
		page.Total = row.Total
		page.UnreadCount = row.UnreadCount
		if row.ID == nil {
			continue
		}
		page.Notifications = append(page.Notifications, &model.Notification{
			ID:       *row.ID,
			UserID:   *row.UserID,
			UserType: model.UserType(*row.UserType),
			Title:    *row.Title,
			Message:  *row.Message,
			Type:     model.NotificationType(*row.Type),
			IsRead:   *row.IsRead,
			SentAt:   *row.SentAt,
		})
	}
	return page, nil
}

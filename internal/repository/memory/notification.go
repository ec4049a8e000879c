package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type notificationRepository struct {
	s *Store
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	defer r.s.lock()()
	d := r.s.data()

	if notification.SentAt.IsZero() {
		notification.SentAt = time.Now().UTC()
	}
	notification.ID = d.next("notifications")
	d.notifications[notification.ID] = *notification
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id int64) (*model.Notification, error) {
	defer r.s.lock()()

	n, ok := r.s.data().notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) (*model.Notification, error) {
	defer r.s.lock()()
	d := r.s.data()

	n, ok := d.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	n.IsRead = true
	d.notifications[id] = n
	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64, userType model.UserType) (int64, error) {
	defer r.s.lock()()
	d := r.s.data()

	var updated int64
	for id, n := range d.notifications {
		if n.UserID == userID && n.UserType == userType && !n.IsRead {
			n.IsRead = true
			d.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lock()()
	d := r.s.data()

	if _, ok := d.notifications[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.notifications, id)
	return nil
}

func (r *notificationRepository) List(ctx context.Context, userID int64, userType model.UserType, skip, limit int) (*model.NotificationPage, error) {
	defer r.s.lock()()

	var scoped []*model.Notification
	page := &model.NotificationPage{Notifications: []*model.Notification{}}
	for _, n := range r.s.data().notifications {
		if n.UserID != userID || n.UserType != userType {
			continue
		}
		page.Total++
		if !n.IsRead {
			page.UnreadCount++
		}
		c := n
		scoped = append(scoped, &c)
	}

	sort.Slice(scoped, func(i, j int) bool {
		if !scoped[i].SentAt.Equal(scoped[j].SentAt) {
			return scoped[i].SentAt.After(scoped[j].SentAt)
		}
		return scoped[i].ID > scoped[j].ID
	})

	if skip < len(scoped) {
		end := skip + limit
		if end > len(scoped) {
			end = len(scoped)
		}
		page.Notifications = append(page.Notifications, scoped[skip:end]...)
	}
	return page, nil
}

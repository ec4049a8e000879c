package model

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationTypeCancelled    NotificationType = "CANCELLED"
	NotificationTypeRescheduled  NotificationType = "RESCHEDULED"
	NotificationTypeAccepted     NotificationType = "ACCEPTED"
	NotificationTypeDeclined     NotificationType = "DECLINED"
	NotificationTypeUpcoming     NotificationType = "UPCOMING"
	NotificationTypePrescription NotificationType = "PRESCRIPTION"
)

func ParseNotificationType(s string) (NotificationType, error) {
	switch t := NotificationType(s); t {
	case NotificationTypeCancelled, NotificationTypeRescheduled, NotificationTypeAccepted,
		NotificationTypeDeclined, NotificationTypeUpcoming, NotificationTypePrescription:
		return t, nil
	}
	return "", fmt.Errorf("unknown notification type %q", s)
}

type UserType string

const (
	UserTypePatient UserType = "patient"
	UserTypeDoctor  UserType = "doctor"
)

func ParseUserType(s string) (UserType, error) {
	switch t := UserType(s); t {
	case UserTypePatient, UserTypeDoctor:
		return t, nil
	}
	return "", fmt.Errorf("unknown user type %q", s)
}

type Notification struct {
	ID       int64            `db:"id" json:"id"`
	UserID   int64            `db:"user_id" json:"user_id"`
	UserType UserType         `db:"user_type" json:"user_type"`
	Title    string           `db:"title" json:"title"`
	Message  string           `db:"message" json:"message"`
	Type     NotificationType `db:"type" json:"type"`
	IsRead   bool             `db:"is_read" json:"is_read"`
	SentAt   time.Time        `db:"sent_at" json:"sent_at"`
}

// OwnedBy reports whether the notification belongs to the identity
func (n *Notification) OwnedBy(id Identity) bool {
	return n.UserID == id.UserID && n.UserType == id.UserType
}

type CreateNotificationRequest struct {
	UserID   int64            `json:"user_id" binding:"required,gt=0"`
	UserType UserType         `json:"user_type" binding:"required,user_type"`
	Title    string           `json:"title" binding:"required,max=255"`
	Message  string           `json:"message" binding:"required"`
	Type     NotificationType `json:"type" binding:"required,notification_type"`
}

// NotificationPage is one page of a user's notifications along with
// counts taken from the same snapshot
type NotificationPage struct {
	Notifications []*Notification `json:"notifications"`
	Total         int64           `json:"total"`
	UnreadCount   int64           `json:"unread_count"`
}

package model

import "time"

// DeviceToken is an append-only push registration. The newest row for a
// user is the active one.
type DeviceToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	UserType  UserType  `db:"user_type" json:"user_type"`
	Token     string    `db:"token" json:"token"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type RegisterDeviceTokenRequest struct {
	Token string `json:"token" binding:"required,max=512"`
}

package model

// Identity is the authenticated caller
type Identity struct {
	UserID   int64    `json:"user_id"`
	UserType UserType `json:"user_type"`
}

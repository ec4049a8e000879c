package model

import (
	"time"
)

// Base contains common fields for persisted entities
type Base struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Pagination represents offset pagination parameters
type Pagination struct {
	Skip  int  `json:"skip" form:"skip" binding:"min=0"`
	Limit *int `json:"limit" form:"limit" binding:"omitempty,min=1,max=100"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page returns the offset and limit, applying the default limit when
// none was supplied
func (p Pagination) Page() (skip, limit int) {
	skip, limit = p.Skip, DefaultPageLimit
	if skip < 0 {
		skip = 0
	}
	if p.Limit != nil && *p.Limit > 0 {
		limit = *p.Limit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return skip, limit
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}

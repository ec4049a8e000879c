package model

type Specialty struct {
	ID    int64  `db:"id" json:"id"`
	Label string `db:"label" json:"label"`
}

type HealthInstitution struct {
	ID        int64    `db:"id" json:"id"`
	Name      string   `db:"name" json:"name"`
	Address   *string  `db:"address" json:"address"`
	Latitude  *float64 `db:"latitude" json:"latitude"`
	Longitude *float64 `db:"longitude" json:"longitude"`
	Type      *string  `db:"type" json:"type"`
}

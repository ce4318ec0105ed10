package db

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// Todo is a row of the todos table.
type Todo struct {
	ID       int64  `json:"id"`
	Todo     string `json:"todo"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Done     bool   `json:"done"`
}

// Todo categories offered by the front end. Category is free text in storage.
const (
	CategoryDev   = "Development"
	CategoryFun   = "Fun"
	CategoryOther = "Other"
	CategoryWork  = "Work"
)

// HealthCheck is a row of the health_checks table.
type HealthCheck struct {
	ID        int64     `json:"id"`
	Site      string    `json:"site"`
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checked_at"`
}

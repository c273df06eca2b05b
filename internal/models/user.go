package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User represents an account stored in the users table. RegisteredEvents is derived
// from event_registrations at query time.
type User struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name" validate:"required,max=60"`
	Email            string         `db:"email" json:"email" validate:"required,email,max=255"`
	PasswordHash     string         `db:"password_hash" json:"-"`
	PRN              string         `db:"prn" json:"prn" validate:"required,max=64"`
	Class            string         `db:"class" json:"class" validate:"required,max=32"`
	Division         string         `db:"division" json:"division" validate:"required,max=32"`
	Role             UserRole       `db:"role" json:"role" validate:"user_role"`
	RegisteredEvents pq.StringArray `db:"registered_events" json:"registeredEvents"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role   *UserRole
	Search string
}

package models

import (
	"errors"
	"strings"
	"time"
)

// EventCategory classifies events.
type EventCategory string

const (
	CategoryTechnical EventCategory = "technical"
	CategoryCultural  EventCategory = "cultural"
	CategorySports    EventCategory = "sports"
	CategoryWorkshop  EventCategory = "workshop"
	CategorySeminar   EventCategory = "seminar"
)

// DefaultEventImage is used when an event is created without an image.
const DefaultEventImage = "/event-default.svg"

// Categories lists every event category in display order.
var Categories = []EventCategory{
	CategoryTechnical,
	CategoryCultural,
	CategorySports,
	CategoryWorkshop,
	CategorySeminar,
}

// Domain rule violations returned by the registration check and the event repository.
var (
	ErrEventNotFound       = errors.New("event not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEventFull           = errors.New("event is at full capacity")
	ErrRegistrationClosed  = errors.New("registration deadline has passed")
	ErrAlreadyRegistered   = errors.New("user already registered")
	ErrCapacityBelowRoster = errors.New("capacity below registration count")
)

// Event is a scheduled campus event with its roster of registrations.
type Event struct {
	ID                   string                `db:"id" json:"id"`
	Title                string                `db:"title" json:"title" validate:"required,max=100"`
	Description          string                `db:"description" json:"description" validate:"required"`
	Date                 time.Time             `db:"date" json:"date" validate:"required"`
	Time                 string                `db:"time" json:"time" validate:"required,max=32"`
	Location             string                `db:"location" json:"location" validate:"required"`
	Category             EventCategory         `db:"category" json:"category" validate:"required,event_category"`
	Image                string                `db:"image" json:"image"`
	Organizer            string                `db:"organizer" json:"organizer" validate:"required"`
	RegistrationDeadline time.Time             `db:"registration_deadline" json:"registrationDeadline" validate:"required"`
	Capacity             int                   `db:"capacity" json:"capacity" validate:"required,min=1"`
	TargetDepartment     *string               `db:"target_department" json:"targetDepartment,omitempty"`
	RegisteredStudents   []StudentRegistration `db:"-" json:"registeredStudents"`
	CreatedAt            time.Time             `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time             `db:"updated_at" json:"updatedAt"`
}

// StudentRegistration is a snapshot of the registrant taken at registration time.
type StudentRegistration struct {
	ID               string    `db:"id" json:"id"`
	EventID          string    `db:"event_id" json:"-"`
	UserID           *string   `db:"user_id" json:"userId,omitempty"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	PRN              string    `db:"prn" json:"prn"`
	Class            string    `db:"class" json:"class"`
	Division         string    `db:"division" json:"division"`
	RegistrationDate time.Time `db:"registration_date" json:"registrationDate"`
}

// EventFilter narrows event listings. Empty values match everything.
type EventFilter struct {
	Category string
	Search   string
}

// HasCategory reports whether the filter restricts by category.
func (f EventFilter) HasCategory() bool {
	return f.Category != "" && !strings.EqualFold(f.Category, "all")
}

// CheckRegistration applies the registration rules for email against an event whose
// roster currently holds count entries. alreadyRegistered reports whether email is on it.
// A caller already on the roster of a full event is told they are registered.
func CheckRegistration(event *Event, count int, alreadyRegistered bool, now time.Time) error {
	if count >= event.Capacity {
		if alreadyRegistered {
			return ErrAlreadyRegistered
		}
		return ErrEventFull
	}
	if now.After(event.RegistrationDeadline) {
		return ErrRegistrationClosed
	}
	if alreadyRegistered {
		return ErrAlreadyRegistered
	}
	return nil
}

package models

import "time"

// NotificationRegistrationConfirmed is the routing key of registration notifications.
const NotificationRegistrationConfirmed = "registration.confirmed"

// RegistrationNotification is published after a successful registration.
type RegistrationNotification struct {
	EventID      string    `json:"eventId"`
	EventTitle   string    `json:"eventTitle"`
	EventDate    time.Time `json:"eventDate"`
	Location     string    `json:"location"`
	UserID       string    `json:"userId,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}

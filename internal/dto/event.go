package dto

// EventRequest is the create payload. Dates accept RFC 3339 timestamps or YYYY-MM-DD.
type EventRequest struct {
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	Date                 string  `json:"date"`
	Time                 string  `json:"time"`
	Location             string  `json:"location"`
	Category             string  `json:"category"`
	Image                string  `json:"image"`
	Organizer            string  `json:"organizer"`
	RegistrationDeadline string  `json:"registrationDeadline"`
	Capacity             int     `json:"capacity"`
	TargetDepartment     *string `json:"targetDepartment"`
}

// UpdateEventRequest is a partial event update; nil fields are left unchanged.
type UpdateEventRequest struct {
	Title                *string `json:"title"`
	Description          *string `json:"description"`
	Date                 *string `json:"date"`
	Time                 *string `json:"time"`
	Location             *string `json:"location"`
	Category             *string `json:"category"`
	Image                *string `json:"image"`
	Organizer            *string `json:"organizer"`
	RegistrationDeadline *string `json:"registrationDeadline"`
	Capacity             *int    `json:"capacity"`
	TargetDepartment     *string `json:"targetDepartment"`
}

// ListEventsQuery carries the optional listing filters.
type ListEventsQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
}

// RegisterRequest names the user to register; empty means the caller.
type RegisterRequest struct {
	UserID string `json:"userId"`
}

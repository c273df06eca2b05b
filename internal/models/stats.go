package models

// DailyCount is the number of registrations on a UTC calendar day (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ClassCount groups registrations by class.
type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

// DivisionCount groups registrations by division.
type DivisionCount struct {
	Division string `json:"division"`
	Count    int    `json:"count"`
}

// EventStats summarises registrations across all events for the admin dashboard.
type EventStats struct {
	TotalEvents                  int                   `json:"totalEvents"`
	TotalRegistrations           int                   `json:"totalRegistrations"`
	AverageRegistrationsPerEvent int                   `json:"averageRegistrationsPerEvent"`
	RegistrationsPerDay          []DailyCount          `json:"registrationsPerDay"`
	ClasswiseDistribution        []ClassCount          `json:"classwiseDistribution"`
	DivisionwiseDistribution     []DivisionCount       `json:"divisionwiseDistribution"`
	CategoryCounts               map[EventCategory]int `json:"categoryCounts"`
}

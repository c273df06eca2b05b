package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/validation"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

// EventList is a (possibly cached) listing tagged with the cache version it belongs to.
type EventList struct {
	Events   []models.Event
	Version  int64
	CacheHit bool
}

// EventService manages events and serves cached listings.
type EventService struct {
	repo      eventRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, cache *CacheService, validate *validator.Validate, cacheTTL time.Duration, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &EventService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns events matching the filter, newest event date first.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) (*EventList, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if !filter.HasCategory() {
		filter.Category = ""
	}

	version := s.cache.Version(ctx, EventsNamespace)
	key := s.cache.Key(EventsNamespace, version, fmt.Sprintf("list:%s:%s", filter.Category, strings.ToLower(filter.Search)))

	var cached []models.Event
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &EventList{Events: cached, Version: version, CacheHit: true}, nil
	}

	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch events")
	}
	if events == nil {
		events = []models.Event{}
	}
	_ = s.cache.Set(ctx, key, events, s.cacheTTL)
	return &EventList{Events: events, Version: version}, nil
}

// Get returns one event with its registrations.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapEventError(err, "Failed to fetch event")
	}
	return event, nil
}

// Create validates and stores a new event. It returns the bumped cache version.
func (s *EventService) Create(ctx context.Context, req dto.EventRequest) (*models.Event, int64, error) {
	event := &models.Event{
		Title:            strings.TrimSpace(req.Title),
		Description:      strings.TrimSpace(req.Description),
		Time:             strings.TrimSpace(req.Time),
		Location:         strings.TrimSpace(req.Location),
		Category:         models.EventCategory(strings.ToLower(strings.TrimSpace(req.Category))),
		Image:            strings.TrimSpace(req.Image),
		Organizer:        strings.TrimSpace(req.Organizer),
		Capacity:         req.Capacity,
		TargetDepartment: trimmedOrNil(req.TargetDepartment),
	}
	if event.Image == "" {
		event.Image = models.DefaultEventImage
	}

	var details []string
	details = appendDate(details, "date", req.Date, &event.Date)
	details = appendDate(details, "registrationDeadline", req.RegistrationDeadline, &event.RegistrationDeadline)
	if err := s.validateEvent(event, details); err != nil {
		return nil, 0, err
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("category", string(event.Category)))
	return event, s.cache.Bump(ctx, EventsNamespace), nil
}

// Update applies a partial update and re-validates the merged event.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest) (*models.Event, int64, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	applyString(&event.Title, req.Title)
	applyString(&event.Description, req.Description)
	applyString(&event.Time, req.Time)
	applyString(&event.Location, req.Location)
	applyString(&event.Image, req.Image)
	applyString(&event.Organizer, req.Organizer)
	if req.Category != nil {
		event.Category = models.EventCategory(strings.ToLower(strings.TrimSpace(*req.Category)))
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if req.TargetDepartment != nil {
		event.TargetDepartment = trimmedOrNil(req.TargetDepartment)
	}
	if event.Image == "" {
		event.Image = models.DefaultEventImage
	}

	var details []string
	if req.Date != nil {
		details = appendDate(details, "date", *req.Date, &event.Date)
	}
	if req.RegistrationDeadline != nil {
		details = appendDate(details, "registrationDeadline", *req.RegistrationDeadline, &event.RegistrationDeadline)
	}
	if err := s.validateEvent(event, details); err != nil {
		return nil, 0, err
	}
	if event.Capacity < len(event.RegisteredStudents) {
		return nil, 0, appErrors.ErrCapacityBelowRoster
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, 0, mapEventError(err, appErrors.ErrInternal.Message)
	}
	s.logger.Info("event updated", zap.String("event_id", event.ID))
	return event, s.cache.Bump(ctx, EventsNamespace), nil
}

// Delete removes an event together with its registrations.
func (s *EventService) Delete(ctx context.Context, id string) (int64, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		return 0, mapEventError(err, "Failed to delete event")
	}
	s.logger.Info("event deleted", zap.String("event_id", id))
	return s.cache.Bump(ctx, EventsNamespace), nil
}

// CurrentVersion exposes the events cache version for response metadata.
func (s *EventService) CurrentVersion(ctx context.Context) int64 {
	return s.cache.Version(ctx, EventsNamespace)
}

func (s *EventService) validateEvent(event *models.Event, details []string) error {
	err := s.validator.Struct(event)
	if err != nil {
		details = append(details, validation.Messages(err)...)
	}
	if len(details) > 0 {
		return appErrors.WithDetails(appErrors.ErrValidation, err, details)
	}
	if event.RegistrationDeadline.After(event.Date) {
		return appErrors.ErrDeadlineAfterEvent
	}
	return nil
}

// appendDate parses raw into dst, recording a message for unparseable input.
// Empty input leaves dst untouched so the required check reports it.
func appendDate(details []string, field, raw string, dst *time.Time) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*dst = time.Time{}
		return details
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return append(details, fmt.Sprintf("Invalid date format for %s", field))
	}
	*dst = parsed
	return details
}

// ParseDate accepts RFC 3339 timestamps, HTML datetime-local values or YYYY-MM-DD dates.
// Calendar dates resolve to midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", raw)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

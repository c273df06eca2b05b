package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type registrationRepository interface {
	Register(ctx context.Context, eventID, userID string, now time.Time) (*models.Event, error)
}

// RegistrationNotifier receives successful registrations.
type RegistrationNotifier interface {
	NotifyRegistration(ctx context.Context, event *models.Event, reg models.StudentRegistration) error
}

// RegistrationService registers users for events.
type RegistrationService struct {
	repo     registrationRepository
	cache    *CacheService
	metrics  *MetricsService
	notifier RegistrationNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewRegistrationService constructs a RegistrationService. notifier may be nil.
func NewRegistrationService(repo registrationRepository, cache *CacheService, metrics *MetricsService, notifier RegistrationNotifier, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		repo:     repo,
		cache:    cache,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Register adds userID to the event roster. An empty userID registers the caller.
// Students may only register themselves. It returns the updated event and cache version.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID string, actor *models.JWTClaims) (*models.Event, int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" && actor != nil {
		userID = actor.UserID
	}
	if userID == "" {
		return nil, 0, appErrors.Clone(appErrors.ErrBadRequest, "User ID is required")
	}
	if actor != nil && actor.Role != models.RoleAdmin && actor.UserID != userID {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "Students can only register themselves")
	}

	event, err := s.repo.Register(ctx, eventID, userID, s.now().UTC())
	if err != nil {
		s.metrics.RecordRegistration(registrationOutcome(err))
		return nil, 0, mapEventError(err, "Failed to register for event")
	}
	s.metrics.RecordRegistration(OutcomeRegistered)
	version := s.cache.Bump(ctx, EventsNamespace)

	reg := event.RegisteredStudents[len(event.RegisteredStudents)-1]
	s.logger.Info("user registered for event",
		zap.String("event_id", event.ID),
		zap.String("user_id", userID),
		zap.Int("registered", len(event.RegisteredStudents)),
		zap.Int("capacity", event.Capacity),
	)
	if s.notifier != nil {
		if err := s.notifier.NotifyRegistration(ctx, event, reg); err != nil {
			s.logger.Warn("registration notification not queued", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	return event, version, nil
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, models.ErrEventFull):
		return OutcomeEventFull
	case errors.Is(err, models.ErrRegistrationClosed):
		return OutcomeClosed
	case errors.Is(err, models.ErrAlreadyRegistered):
		return OutcomeAlreadyRegistered
	case errors.Is(err, models.ErrEventNotFound), errors.Is(err, models.ErrUserNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

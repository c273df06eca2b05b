package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/jobs"
	"github.com/noah-isme/campus-events-api/pkg/messaging"
)

// NotificationService queues registration notifications and publishes them from a worker pool.
type NotificationService struct {
	queue     *jobs.Queue
	publisher messaging.Publisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService wires a queue whose workers publish through publisher.
func NewNotificationService(publisher messaging.Publisher, metrics *MetricsService, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{publisher: publisher, metrics: metrics, logger: logger}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("notifications", svc.handle, cfg)
	return svc
}

// Start launches the workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains workers and closes the publisher.
func (s *NotificationService) Stop() {
	s.queue.Stop()
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("close notification publisher", zap.Error(err))
	}
}

// NotifyRegistration enqueues a registration confirmation without blocking the request.
func (s *NotificationService) NotifyRegistration(_ context.Context, event *models.Event, reg models.StudentRegistration) error {
	msg := models.RegistrationNotification{
		EventID:      event.ID,
		EventTitle:   event.Title,
		EventDate:    event.Date,
		Location:     event.Location,
		Name:         reg.Name,
		Email:        reg.Email,
		RegisteredAt: reg.RegistrationDate,
	}
	if reg.UserID != nil {
		msg.UserID = *reg.UserID
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    models.NotificationRegistrationConfirmed,
		Payload: msg,
	})
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	body, err := json.Marshal(job.Payload)
	if err != nil {
		s.metrics.RecordNotification(false)
		return fmt.Errorf("marshal notification %s: %w", job.ID, err)
	}
	if err := s.publisher.Publish(ctx, job.Type, body); err != nil {
		s.metrics.RecordNotification(false)
		return err
	}
	s.metrics.RecordNotification(true)
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/jobs"
)

func TestNotificationServicePublishesRegistration(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewNotificationService(publisher, NewMetricsService(), jobs.QueueConfig{Workers: 1, BufferSize: 4}, zap.NewNop())
	svc.Start(context.Background())

	event := sampleEvent("e1", 10, time.Now())
	userID := "s1"
	reg := models.StudentRegistration{UserID: &userID, Name: "Asha", Email: "asha@college.edu", RegistrationDate: time.Now()}
	require.NoError(t, svc.NotifyRegistration(context.Background(), &event, reg))

	require.Eventually(t, func() bool {
		return publisher.count(models.NotificationRegistrationConfirmed) == 1
	}, time.Second, 10*time.Millisecond)
	svc.Stop()
	assert.True(t, publisher.closed)

	var msg models.RegistrationNotification
	require.NoError(t, json.Unmarshal(publisher.messages[models.NotificationRegistrationConfirmed][0], &msg))
	assert.Equal(t, "e1", msg.EventID)
	assert.Equal(t, "Hackathon", msg.EventTitle)
	assert.Equal(t, "s1", msg.UserID)
	assert.Equal(t, "asha@college.edu", msg.Email)
}

func TestNotificationServiceRetriesFailedPublish(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker unavailable")}
	svc := NewNotificationService(publisher, nil, jobs.QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond}, zap.NewNop())
	svc.Start(context.Background())

	event := sampleEvent("e1", 10, time.Now())
	require.NoError(t, svc.NotifyRegistration(context.Background(), &event, models.StudentRegistration{Email: "a@college.edu"}))

	require.Eventually(t, func() bool {
		return svc.queue.Stats().Failed == 1
	}, time.Second, 10*time.Millisecond)
	svc.Stop()
	assert.Zero(t, publisher.count(models.NotificationRegistrationConfirmed))
}

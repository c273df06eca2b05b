package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/validation"
)

func newEventService(repo *fakeEventRepo, cacheRepo CacheRepository) (*EventService, *CacheService) {
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), cacheRepo != nil)
	return NewEventService(repo, cache, validation.New(), time.Minute, zap.NewNop()), cache
}

func validEventRequest() dto.EventRequest {
	return dto.EventRequest{
		Title:                "Hackathon",
		Description:          "24 hour build",
		Date:                 "2030-03-10",
		Time:                 "10:00",
		Location:             "Main Hall",
		Category:             "Technical",
		Organizer:            "CSI",
		RegistrationDeadline: "2030-03-08T18:00:00Z",
		Capacity:             50,
	}
}

func TestEventServiceCreate(t *testing.T) {
	svc, _ := newEventService(newFakeEventRepo(), nil)

	event, version, err := svc.Create(context.Background(), validEventRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, models.CategoryTechnical, event.Category)
	assert.Equal(t, models.DefaultEventImage, event.Image)
	assert.Equal(t, time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC), event.Date)
	assert.Empty(t, event.RegisteredStudents)
}

func TestEventServiceCreateValidation(t *testing.T) {
	svc, _ := newEventService(newFakeEventRepo(), nil)

	req := validEventRequest()
	req.Title = ""
	req.Category = "party"
	req.Capacity = 0
	req.Date = "tomorrow"
	_, _, err := svc.Create(context.Background(), req)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "Invalid date format for date")
	assert.Contains(t, appErr.Details, "Please provide an event title")
	assert.Contains(t, appErr.Details, "Category must be one of technical, cultural, sports, workshop, seminar")
	assert.Contains(t, appErr.Details, "Please provide a capacity")
}

func TestEventServiceCreateTimeTooLong(t *testing.T) {
	svc, _ := newEventService(newFakeEventRepo(), nil)

	req := validEventRequest()
	req.Time = strings.Repeat("9", 33)
	_, _, err := svc.Create(context.Background(), req)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{"Time cannot be more than 32 characters"}, appErr.Details)
}

func TestEventServiceDeadlineAfterEvent(t *testing.T) {
	svc, _ := newEventService(newFakeEventRepo(), nil)

	req := validEventRequest()
	req.RegistrationDeadline = "2030-03-11"
	_, _, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrDeadlineAfterEvent)

	event, _, err := svc.Create(context.Background(), validEventRequest())
	require.NoError(t, err)
	late := "2030-04-01"
	_, _, err = svc.Update(context.Background(), event.ID, dto.UpdateEventRequest{RegistrationDeadline: &late})
	assert.ErrorIs(t, err, appErrors.ErrDeadlineAfterEvent)
}

func TestEventServiceUpdateCapacityBelowRoster(t *testing.T) {
	event := sampleEvent("e1", 3, time.Now().Add(24*time.Hour))
	event.RegisteredStudents = []models.StudentRegistration{{Email: "a@x.edu"}, {Email: "b@x.edu"}}
	svc, _ := newEventService(newFakeEventRepo(event), nil)

	capacity := 1
	_, _, err := svc.Update(context.Background(), "e1", dto.UpdateEventRequest{Capacity: &capacity})
	assert.ErrorIs(t, err, appErrors.ErrCapacityBelowRoster)

	capacity = 2
	title := "Hackathon 2.0"
	updated, version, err := svc.Update(context.Background(), "e1", dto.UpdateEventRequest{Capacity: &capacity, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Capacity)
	assert.Equal(t, "Hackathon 2.0", updated.Title)
	assert.Len(t, updated.RegisteredStudents, 2)
	assert.Equal(t, int64(1), version)
}

func TestEventServiceListUsesCache(t *testing.T) {
	deadline := time.Now().Add(24 * time.Hour)
	repo := newFakeEventRepo(sampleEvent("e1", 10, deadline))
	svc, _ := newEventService(repo, newFakeCacheRepo())
	ctx := context.Background()

	first, err := svc.List(ctx, models.EventFilter{Category: "all"})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	require.Len(t, first.Events, 1)

	second, err := svc.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, 1, repo.listCalls)

	_, version, err := svc.Create(ctx, validEventRequest())
	require.NoError(t, err)

	third, err := svc.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Equal(t, version, third.Version)
	assert.Len(t, third.Events, 2)
	assert.Equal(t, 2, repo.listCalls)
}

func TestEventServiceDeleteAndGet(t *testing.T) {
	svc, _ := newEventService(newFakeEventRepo(sampleEvent("e1", 10, time.Now())), nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrEventNotFound)

	_, err = svc.Delete(context.Background(), "e1")
	require.NoError(t, err)
	_, err = svc.Delete(context.Background(), "e1")
	assert.ErrorIs(t, err, appErrors.ErrEventNotFound)
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2030-03-10":                time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC),
		"2030-03-10T09:30":          time.Date(2030, 3, 10, 9, 30, 0, 0, time.UTC),
		"2030-03-10T09:30:00+05:30": time.Date(2030, 3, 10, 4, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, err := ParseDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), raw)
	}

	_, err := ParseDate("10/03/2030")
	assert.Error(t, err)
}

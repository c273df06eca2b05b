package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

const invalidEventID = "Invalid event ID"

type eventService interface {
	List(ctx context.Context, filter models.EventFilter) (*service.EventList, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, req dto.EventRequest) (*models.Event, int64, error)
	Update(ctx context.Context, id string, req dto.UpdateEventRequest) (*models.Event, int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type registrationService interface {
	Register(ctx context.Context, eventID, userID string, actor *models.JWTClaims) (*models.Event, int64, error)
}

type participantExporter interface {
	ParticipantsFile(ctx context.Context, eventID, format string) (*dto.ExportFile, error)
	Store(file *dto.ExportFile) (*dto.ExportLink, error)
}

// EventHandler exposes event CRUD, registration and participant export endpoints.
type EventHandler struct {
	events        eventService
	registrations registrationService
	exports       participantExporter
}

// NewEventHandler constructs the handler.
func NewEventHandler(events eventService, registrations registrationService, exports participantExporter) *EventHandler {
	return &EventHandler{events: events, registrations: registrations, exports: exports}
}

// List godoc
// @Summary List events
// @Description Lists events newest first. Supports ETag revalidation against the cache version.
// @Tags Events
// @Produce json
// @Param category query string false "Category or all"
// @Param search query string false "Matches title, description or organizer"
// @Param If-None-Match header string false "ETag from a previous response"
// @Success 200 {object} response.Envelope
// @Success 304 "Not modified"
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var q dto.ListEventsQuery
	_ = c.ShouldBindQuery(&q)

	result, err := h.events.List(c.Request.Context(), models.EventFilter{Category: strings.ToLower(q.Category), Search: q.Search})
	if err != nil {
		response.Error(c, err)
		return
	}

	etag := eventsETag(result.Version)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	middleware.SetCacheVersion(c, result.Version)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		response.NotModified(c)
		return
	}

	middleware.SetCacheHit(c, result.CacheHit)
	response.OK(c, "", response.Payload{"events": result.Events}, meta(c))
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := pathID(c, invalidEventID)
	if !ok {
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", response.Payload{"event": event}, meta(c))
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.EventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, version, err := h.events.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Event created successfully", response.Payload{"event": event}, meta(c, version))
}

// Update godoc
// @Summary Update event
// @Description Partial update. Capacity cannot drop below the current registration count.
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.UpdateEventRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	id, ok := pathID(c, invalidEventID)
	if !ok {
		return
	}
	var req dto.UpdateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, version, err := h.events.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Event updated successfully", response.Payload{"event": event}, meta(c, version))
}

// Delete godoc
// @Summary Delete event
// @Description Removes the event and its registrations.
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, invalidEventID)
	if !ok {
		return
	}

	version, err := h.events.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Event deleted successfully", nil, meta(c, version))
}

// Register godoc
// @Summary Register for event
// @Description Registers the caller, or the given user when the caller is an admin.
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.RegisterRequest false "User to register"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c *gin.Context) {
	id, ok := pathID(c, invalidEventID)
	if !ok {
		return
	}
	var req dto.RegisterRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	event, version, err := h.registrations.Register(c.Request.Context(), id, req.UserID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Successfully registered for the event", response.Payload{"event": event}, meta(c, version))
}

// ExportParticipants godoc
// @Summary Export event participants
// @Tags Events
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Event ID"
// @Param format query string false "csv or pdf" default(csv)
// @Param delivery query string false "inline or link" default(inline)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/registrations/export [get]
func (h *EventHandler) ExportParticipants(c *gin.Context) {
	id, ok := pathID(c, invalidEventID)
	if !ok {
		return
	}
	var q dto.ExportQuery
	_ = c.ShouldBindQuery(&q)
	if q.Format == "" {
		q.Format = "csv"
	}

	file, err := h.exports.ParticipantsFile(c.Request.Context(), id, q.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	deliver(c, h.exports, file, q.Delivery)
}

func eventsETag(version int64) string {
	return fmt.Sprintf(`W/"events-v%d"`, version)
}

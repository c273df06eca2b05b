package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/database"
)

const eventColumns = `id, title, description, date, time, location, category, image, organizer, registration_deadline, capacity, target_department, created_at, updated_at`

const registrationColumns = `id, event_id, user_id, name, email, prn, class, division, registration_date`

// EventRepository provides database access for events and their registrations.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events matching the filter, newest event date first, each with its roster.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var conditions []string
	var args []interface{}

	if filter.HasCategory() {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if strings.TrimSpace(filter.Search) != "" {
		args = append(args, containsPattern(filter.Search))
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR organizer ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if err := attachRegistrations(ctx, r.db, events); err != nil {
		return nil, err
	}
	return events, nil
}

// FindByID returns an event with its registrations.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	return findEvent(ctx, r.db, id, false)
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	if event.Image == "" {
		event.Image = models.DefaultEventImage
	}
	if event.RegisteredStudents == nil {
		event.RegisteredStudents = []models.StudentRegistration{}
	}

	const query = `INSERT INTO events (` + eventColumns + `) VALUES (:id, :title, :description, :date, :time, :location, :category, :image, :organizer, :registration_deadline, :capacity, :target_department, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update persists the event fields. The capacity may not drop below the current number of
// registrations; the check and the write share one transaction holding the event row lock.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id string
	if err = tx.GetContext(ctx, &id, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, event.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrEventNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, event.ID); err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if event.Capacity < count {
		return models.ErrCapacityBelowRoster
	}

	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, date = :date, time = :time, location = :location, category = :category, image = :image, organizer = :organizer, registration_deadline = :registration_deadline, capacity = :capacity, target_department = :target_department, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit event update: %w", err)
	}
	return nil
}

// Delete removes an event; its registrations are removed by cascade.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if err := expectAffected(res, "delete event"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrEventNotFound
		}
		return err
	}
	return nil
}

// Register adds a registration snapshot of userID to eventID. The event row is locked for
// the duration of the transaction so concurrent registrations for one event serialise and
// the capacity check cannot be raced.
func (r *EventRepository) Register(ctx context.Context, eventID, userID string, now time.Time) (event *models.Event, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	event, err = findEvent(ctx, tx, eventID, true)
	if err != nil {
		return nil, err
	}

	var user models.User
	const userQuery = `SELECT id, name, email, prn, class, division FROM users WHERE id = $1`
	if err = tx.GetContext(ctx, &user, userQuery, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("find registrant: %w", err)
	}

	registered := false
	for _, reg := range event.RegisteredStudents {
		if strings.EqualFold(reg.Email, user.Email) {
			registered = true
			break
		}
	}
	if err = models.CheckRegistration(event, len(event.RegisteredStudents), registered, now); err != nil {
		return nil, err
	}

	reg := models.StudentRegistration{
		ID:               uuid.NewString(),
		EventID:          event.ID,
		UserID:           &user.ID,
		Name:             user.Name,
		Email:            user.Email,
		PRN:              user.PRN,
		Class:            user.Class,
		Division:         user.Division,
		RegistrationDate: now.UTC(),
	}
	const insertQuery = `INSERT INTO event_registrations (` + registrationColumns + `) VALUES (:id, :event_id, :user_id, :name, :email, :prn, :class, :division, :registration_date)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, reg); err != nil {
		if _, dup := database.UniqueViolation(err); dup {
			return nil, models.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registration: %w", err)
	}
	event.RegisteredStudents = append(event.RegisteredStudents, reg)
	return event, nil
}

type queryer interface {
	sqlx.QueryerContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func findEvent(ctx context.Context, q queryer, id string, lock bool) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if lock {
		query += " FOR UPDATE"
	}
	var event models.Event
	if err := q.GetContext(ctx, &event, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	events := []models.Event{event}
	if err := attachRegistrations(ctx, q, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

func attachRegistrations(ctx context.Context, q sqlx.QueryerContext, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	index := make(map[string]int, len(events))
	for i := range events {
		ids[i] = events[i].ID
		index[events[i].ID] = i
		events[i].RegisteredStudents = []models.StudentRegistration{}
	}

	var regs []models.StudentRegistration
	query := `SELECT ` + registrationColumns + ` FROM event_registrations WHERE event_id = ANY($1) ORDER BY registration_date ASC, id ASC`
	if err := sqlx.SelectContext(ctx, q, &regs, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list registrations: %w", err)
	}
	for _, reg := range regs {
		if i, ok := index[reg.EventID]; ok {
			events[i].RegisteredStudents = append(events[i].RegisteredStudents, reg)
		}
	}
	return nil
}

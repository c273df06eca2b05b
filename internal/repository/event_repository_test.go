package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

var (
	eventRowColumns        = []string{"id", "title", "description", "date", "time", "location", "category", "image", "organizer", "registration_deadline", "capacity", "target_department", "created_at", "updated_at"}
	registrationRowColumns = []string{"id", "event_id", "user_id", "name", "email", "prn", "class", "division", "registration_date"}
)

func eventRow(rows *sqlmock.Rows, id string, capacity int, deadline time.Time) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "AI Workshop", "Intro to ML", deadline.Add(24*time.Hour), "10:00 AM", "Hall A", "technical", models.DefaultEventImage, "CS Dept", deadline, capacity, nil, now, now)
}

func TestListEventsAppliesFiltersAndAttachesRoster(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	deadline := time.Now().Add(48 * time.Hour)
	rows := eventRow(eventRow(sqlmock.NewRows(eventRowColumns), "e1", 10, deadline), "e2", 5, deadline)
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE category = $1 AND (title ILIKE $2 OR description ILIKE $2 OR organizer ILIKE $2) ORDER BY date DESC")).
		WithArgs("technical", "%AI%").
		WillReturnRows(rows)

	regs := sqlmock.NewRows(registrationRowColumns).
		AddRow("r1", "e2", "u1", "Asha", "asha@college.edu", "PRN1", "TE", "A", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM event_registrations WHERE event_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(regs)

	events, err := repo.List(context.Background(), models.EventFilter{Category: "technical", Search: "AI"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Empty(t, events[0].RegisteredStudents)
	assert.NotNil(t, events[0].RegisteredStudents)
	require.Len(t, events[1].RegisteredStudents, 1)
	assert.Equal(t, "asha@college.edu", events[1].RegisteredStudents[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEventsIgnoresAllCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + eventColumns + " FROM events ORDER BY date DESC")).
		WillReturnRows(sqlmock.NewRows(eventRowColumns))

	events, err := repo.List(context.Background(), models.EventFilter{Category: "all"})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindEventNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).WithArgs("missing").WillReturnRows(sqlmock.NewRows(eventRowColumns))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectLockedEvent(mock sqlmock.Sqlmock, capacity int, deadline time.Time, roster *sqlmock.Rows) {
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs("e1").
		WillReturnRows(eventRow(sqlmock.NewRows(eventRowColumns), "e1", capacity, deadline))
	mock.ExpectQuery(`FROM event_registrations WHERE event_id = ANY`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(roster)
}

func expectRegistrant(mock sqlmock.Sqlmock, id, email string) {
	mock.ExpectQuery(`SELECT id, name, email, prn, class, division FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "prn", "class", "division"}).
			AddRow(id, "Asha", email, "PRN1", "TE", "A"))
}

func TestRegisterInsertsSnapshot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	expectLockedEvent(mock, 1, now.Add(24*time.Hour), sqlmock.NewRows(registrationRowColumns))
	expectRegistrant(mock, "u1", "asha@college.edu")
	mock.ExpectExec("INSERT INTO event_registrations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	event, err := repo.Register(context.Background(), "e1", "u1", now)
	require.NoError(t, err)
	require.Len(t, event.RegisteredStudents, 1)
	reg := event.RegisteredStudents[0]
	assert.Equal(t, "asha@college.edu", reg.Email)
	assert.Equal(t, "u1", *reg.UserID)
	assert.Equal(t, now.UTC(), reg.RegistrationDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsFullEvent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	roster := sqlmock.NewRows(registrationRowColumns).
		AddRow("r1", "e1", "u1", "Asha", "asha@college.edu", "PRN1", "TE", "A", now)
	expectLockedEvent(mock, 1, now.Add(24*time.Hour), roster)
	expectRegistrant(mock, "u2", "rohan@college.edu")
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "e1", "u2", now)
	assert.ErrorIs(t, err, models.ErrEventFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterReportsExistingRegistrantOnFullEvent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	roster := sqlmock.NewRows(registrationRowColumns).
		AddRow("r1", "e1", "u1", "Asha", "asha@college.edu", "PRN1", "TE", "A", now)
	expectLockedEvent(mock, 1, now.Add(24*time.Hour), roster)
	expectRegistrant(mock, "u1", "asha@college.edu")
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "e1", "u1", now)
	assert.ErrorIs(t, err, models.ErrAlreadyRegistered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	expectLockedEvent(mock, 5, now.Add(24*time.Hour), sqlmock.NewRows(registrationRowColumns))
	expectRegistrant(mock, "u1", "asha@college.edu")
	mock.ExpectExec("INSERT INTO event_registrations").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "event_registrations_event_email_key"})
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "e1", "u1", now)
	assert.ErrorIs(t, err, models.ErrAlreadyRegistered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterUnknownUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	expectLockedEvent(mock, 5, now.Add(24*time.Hour), sqlmock.NewRows(registrationRowColumns))
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "prn", "class", "division"}))
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "e1", "ghost", now)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEventRejectsCapacityBelowRoster(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM events WHERE id = \$1 FOR UPDATE`).WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e1"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM event_registrations`).WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Event{ID: "e1", Capacity: 2})
	assert.ErrorIs(t, err, models.ErrCapacityBelowRoster)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEventCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM events WHERE id = \$1 FOR UPDATE`).WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e1"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM event_registrations`).WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("UPDATE events SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Event{ID: "e1", Capacity: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "e1"), models.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEventDefaultsImage(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{Title: "Hackathon", Capacity: 10}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, models.DefaultEventImage, event.Image)
	assert.NotNil(t, event.RegisteredStudents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

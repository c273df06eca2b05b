package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "prn", "class", "division", "role", "created_at", "updated_at", "registered_events"}

func TestFindByEmailLowercasesAndDerivesEvents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("u1", "Asha", "asha@college.edu", "hash", "PRN1", "TE", "A", "student", now, now, "{e1,e2}")
	mock.ExpectQuery(`FROM users u WHERE u\.email = \$1 LIMIT 1`).
		WithArgs("asha@college.edu").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), " Asha@College.edu ")
	require.NoError(t, err)
	assert.Equal(t, "asha@college.edu", user.Email)
	assert.Equal(t, []string{"e1", "e2"}, []string(user.RegisteredEvents))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users u WHERE u\.id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("u1", "Asha", "asha@college.edu", "hash", "PRN1", "TE", "A", "student", now, now, "{}")
	mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE u.role = $1 AND (u.name ILIKE $2 OR u.email ILIKE $2 OR u.prn ILIKE $2) ORDER BY u.created_at DESC")).
		WithArgs(models.RoleStudent, `%50\%%`).
		WillReturnRows(rows)

	role := models.RoleStudent
	users, err := repo.List(context.Background(), models.UserFilter{Role: &role, Search: "50%"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotNil(t, users[0].RegisteredEvents)
	assert.Empty(t, users[0].RegisteredEvents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Name: "Asha", Email: "ASHA@college.edu", PasswordHash: "hash", PRN: "PRN1", Class: "TE", Division: "A", Role: models.RoleStudent}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "asha@college.edu", user.Email)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByEmailOrPRN(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("asha@college.edu", "PRN1", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmailOrPRN(context.Background(), "Asha@college.edu", "PRN1", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "u1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

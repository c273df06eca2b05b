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
)

const userColumns = `u.id, u.name, u.email, u.password_hash, u.prn, u.class, u.division, u.role, u.created_at, u.updated_at,
	ARRAY(SELECT er.event_id FROM event_registrations er WHERE er.user_id = u.id ORDER BY er.registration_date) AS registered_events`

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by (lower-cased) email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 LIMIT 1`
	return r.get(ctx, "find user by email", query, strings.ToLower(strings.TrimSpace(email)))
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 LIMIT 1`
	return r.get(ctx, "find user by id", query, id)
}

func (r *UserRepository) get(ctx context.Context, op, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	normalizeUser(&user)
	return &user, nil
}

// ExistsByEmailOrPRN reports whether another account already uses email or prn.
// excludeID skips the account being updated.
func (r *UserRepository) ExistsByEmailOrPRN(ctx context.Context, email, prn, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE (email = $1 OR prn = $2) AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, strings.ToLower(email), prn, excludeID); err != nil {
		return false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return exists, nil
}

// List returns users matching the filter ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", len(args)))
	}
	if strings.TrimSpace(filter.Search) != "" {
		args = append(args, containsPattern(filter.Search))
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(u.name ILIKE $%d OR u.email ILIKE $%d OR u.prn ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + userColumns + ` FROM users u`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY u.created_at DESC"

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		normalizeUser(&users[i])
	}
	return users, nil
}

// Create inserts a new user. Unique violations are returned wrapped so callers can inspect them.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	normalizeUser(user)

	const query = `INSERT INTO users (id, name, email, password_hash, prn, class, division, role, created_at, updated_at) VALUES (:id, :name, :email, :password_hash, :prn, :class, :division, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update persists the mutable fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	const query = `UPDATE users SET name = :name, email = :email, password_hash = :password_hash, prn = :prn, class = :class, division = :division, role = :role, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectAffected(res, "update user")
}

// Delete removes the account. Registration snapshots keep their copy of the user data.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectAffected(res, "delete user")
}

func normalizeUser(user *models.User) {
	if user.RegisteredEvents == nil {
		user.RegisteredEvents = pq.StringArray{}
	}
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/database"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmailOrPRN(ctx context.Context, email, prn, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserService handles account management workflows.
type UserService struct {
	repo     userRepository
	accounts accountFactory
	cache    *CacheService
	logger   *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, cache *CacheService, bcryptCost int, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		repo:     repo,
		accounts: newAccountFactory(repo, validate, bcryptCost),
		cache:    cache,
		logger:   logger,
	}
}

// List returns users matching the filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "Role must be either student or admin")
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return users, nil
}

// Students returns every student account, used by the export endpoint.
func (s *UserService) Students(ctx context.Context) ([]models.User, error) {
	role := models.RoleStudent
	return s.List(ctx, models.UserFilter{Role: &role})
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch user")
	}
	return user, nil
}

// Create adds an account on behalf of an administrator; any role may be assigned.
func (s *UserService) Create(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	req.Role = models.UserRole(strings.ToLower(string(req.Role)))
	user, err := s.accounts.create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update applies a partial update. Only administrators may change roles.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		role := models.UserRole(strings.ToLower(strings.TrimSpace(*req.Role)))
		if role != user.Role && (actor == nil || actor.Role != models.RoleAdmin) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "Only administrators can change roles")
		}
		user.Role = role
	}
	applyString(&user.Name, req.Name)
	applyString(&user.PRN, req.PRN)
	applyString(&user.Class, req.Class)
	applyString(&user.Division, req.Division)
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}

	if err := s.accounts.validate(user, req.Password); err != nil {
		return nil, err
	}

	if req.Email != nil || req.PRN != nil {
		exists, err := s.repo.ExistsByEmailOrPRN(ctx, user.Email, user.PRN, user.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
		}
		if exists {
			return nil, appErrors.ErrDuplicateAccount
		}
	}

	if req.Password != nil {
		hash, err := s.accounts.hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if _, dup := database.UniqueViolation(err); dup {
			return nil, appErrors.ErrDuplicateAccount
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return user, nil
}

// Delete removes an account. Event rosters keep their registration snapshots.
// It returns the events cache version after the change.
func (s *UserService) Delete(ctx context.Context, id string) (int64, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.ErrUserNotFound
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return s.cache.Bump(ctx, EventsNamespace), nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/database"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/validation"
)

const (
	minPasswordLength = 6
	// bcrypt rejects inputs longer than this.
	maxBcryptPasswordBytes = 72
)

type accountStore interface {
	ExistsByEmailOrPRN(ctx context.Context, email, prn, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// accountFactory validates, hashes and persists new accounts for signup and admin creation.
type accountFactory struct {
	store      accountStore
	validator  *validator.Validate
	bcryptCost int
}

func newAccountFactory(store accountStore, validate *validator.Validate, cost int) accountFactory {
	if validate == nil {
		validate = validation.New()
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return accountFactory{store: store, validator: validate, bcryptCost: cost}
}

func (f accountFactory) create(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.PRN) == "" {
		return nil, appErrors.ErrMissingRequiredFields
	}
	if req.Role == "" {
		req.Role = models.RoleStudent
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		PRN:      strings.TrimSpace(req.PRN),
		Class:    strings.TrimSpace(req.Class),
		Division: strings.TrimSpace(req.Division),
		Role:     req.Role,
	}
	if err := f.validate(user, &req.Password); err != nil {
		return nil, err
	}

	exists, err := f.store.ExistsByEmailOrPRN(ctx, user.Email, user.PRN, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if exists {
		return nil, appErrors.ErrDuplicateAccount
	}

	hash, err := f.hash(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := f.store.Create(ctx, user); err != nil {
		if _, dup := database.UniqueViolation(err); dup {
			return nil, appErrors.ErrDuplicateAccount
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return user, nil
}

// validate checks the user fields and, when password is non-nil, the plaintext password.
func (f accountFactory) validate(user *models.User, password *string) error {
	var details []string
	err := f.validator.Struct(user)
	if err != nil {
		details = validation.Messages(err)
	}
	if password != nil && len(*password) < minPasswordLength {
		details = append(details, "Password must be at least 6 characters long")
	}
	if len(details) > 0 {
		return appErrors.WithDetails(appErrors.ErrValidation, err, details)
	}
	return nil
}

func (f accountFactory) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), f.bcryptCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

// bcryptInput returns the bytes hashed for password. Passwords beyond bcrypt's input
// limit are reduced to a base64 SHA-256 digest so every byte still counts.
func bcryptInput(password string) []byte {
	if len(password) <= maxBcryptPasswordBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password))
}

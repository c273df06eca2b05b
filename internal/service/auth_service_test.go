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
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/validation"
)

func newAuthService(repo *fakeUserRepo, allowAdmin bool) *AuthService {
	return NewAuthService(repo, validation.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "campus-events-api",
		BcryptCost:        bcrypt.MinCost,
		AllowAdminSignup:  allowAdmin,
	})
}

func signupRequest() models.SignupRequest {
	return models.SignupRequest{
		Name:     "Asha Patil",
		Email:    "Asha@College.edu ",
		Password: "secret1",
		PRN:      "PRN001",
		Class:    "TE",
		Division: "B",
	}
}

func TestAuthServiceSignupAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo, false)

	resp, err := svc.Signup(context.Background(), signupRequest(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "asha@college.edu", resp.User.Email)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.NotEqual(t, "secret1", resp.User.PasswordHash)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@college.edu", Password: "secret1"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "campus-events-api", claims.Issuer)
}

func TestAuthServiceSignupValidation(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), false)

	req := signupRequest()
	req.Password = "abc"
	req.Email = "not-an-email"
	_, err := svc.Signup(context.Background(), req, nil)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "Password must be at least 6 characters long")
	assert.Len(t, appErr.Details, 2)

	req = signupRequest()
	req.PRN = ""
	_, err = svc.Signup(context.Background(), req, nil)
	assert.ErrorIs(t, err, appErrors.ErrMissingRequiredFields)
}

func TestAuthServiceLongPassword(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), false)

	long := strings.Repeat("a", 80)
	req := signupRequest()
	req.Password = long
	_, err := svc.Signup(context.Background(), req, nil)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "asha@college.edu", Password: long})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "asha@college.edu", Password: long[:79] + "b"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "asha@college.edu", Password: long[:72]})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceSignupFieldLengths(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), false)

	req := signupRequest()
	req.Class = strings.Repeat("C", 40)
	req.Division = strings.Repeat("D", 33)
	req.PRN = strings.Repeat("9", 65)
	_, err := svc.Signup(context.Background(), req, nil)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Status)
	assert.ElementsMatch(t, []string{
		"PRN cannot be more than 64 characters",
		"Class cannot be more than 32 characters",
		"Division cannot be more than 32 characters",
	}, appErr.Details)
}

func TestAuthServiceSignupDuplicate(t *testing.T) {
	existing := sampleStudent("u1", "asha@college.edu")
	svc := newAuthService(newFakeUserRepo(existing), false)

	_, err := svc.Signup(context.Background(), signupRequest(), nil)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateAccount)
}

func TestAuthServiceAdminSignup(t *testing.T) {
	req := signupRequest()
	req.Role = "Admin"

	svc := newAuthService(newFakeUserRepo(), false)
	_, err := svc.Signup(context.Background(), req, nil)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 403, appErr.Status)

	_, err = svc.Signup(context.Background(), req, &models.JWTClaims{UserID: "root", Role: models.RoleAdmin})
	require.NoError(t, err)

	open := newAuthService(newFakeUserRepo(), true)
	resp, err := open.Signup(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	user := sampleStudent("u1", "asha@college.edu")
	user.PasswordHash = string(hash)
	svc := newAuthService(newFakeUserRepo(user), false)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "asha@college.edu"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Please provide email and password", appErr.Message)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "asha@college.edu", Password: "wrong!"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@college.edu", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	repo := newFakeUserRepo()
	issuer := newAuthService(repo, false)
	resp, err := issuer.Signup(context.Background(), signupRequest(), nil)
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "other", Issuer: "campus-events-api"})
	_, err = other.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = issuer.ValidateToken("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

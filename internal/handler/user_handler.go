package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

const invalidUserID = "Invalid user ID"

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Students(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor *models.JWTClaims) (*models.User, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type studentExporter interface {
	StudentsFile(ctx context.Context, format string) (*dto.ExportFile, error)
	Store(file *dto.ExportFile) (*dto.ExportLink, error)
}

// UserHandler handles user CRUD and export endpoints.
type UserHandler struct {
	service userService
	exports studentExporter
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService, exports studentExporter) *UserHandler {
	return &UserHandler{service: svc, exports: exports}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "student or admin"
// @Param search query string false "Matches name, email or PRN"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q dto.ListUsersQuery
	_ = c.ShouldBindQuery(&q)

	filter := models.UserFilter{Search: strings.TrimSpace(q.Search)}
	if role := strings.TrimSpace(q.Role); role != "" {
		r := models.UserRole(strings.ToLower(role))
		filter.Role = &r
	}

	users, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", response.Payload{"users": users}, meta(c))
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, invalidUserID)
	if !ok {
		return
	}

	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", response.Payload{"user": user}, meta(c))
}

// Create godoc
// @Summary Create user
// @Description Creates an account with any role.
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "User created successfully", response.Payload{"user": user}, meta(c))
}

// Update godoc
// @Summary Update user
// @Description Partial update. Only administrators may change roles.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, invalidUserID)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User updated successfully", response.Payload{"user": user}, meta(c))
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, invalidUserID)
	if !ok {
		return
	}

	version, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User deleted successfully", nil, meta(c, version))
}

// Export godoc
// @Summary Export students
// @Description JSON by default; csv and pdf stream a file or, with delivery=link, return a signed URL.
// @Tags Users
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "json, csv or pdf" default(json)
// @Param delivery query string false "inline or link" default(inline)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	var q dto.ExportQuery
	_ = c.ShouldBindQuery(&q)
	format := strings.ToLower(strings.TrimSpace(q.Format))

	if format == "" || format == "json" {
		students, err := h.service.Students(c.Request.Context())
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.FromError(err), "Failed to export users"))
			return
		}
		response.OK(c, "", response.Payload{"students": students}, meta(c))
		return
	}

	file, err := h.exports.StudentsFile(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	deliver(c, h.exports, file, q.Delivery)
}

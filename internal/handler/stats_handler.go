package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type statsService interface {
	Dashboard(ctx context.Context) (*service.StatsResult, error)
	System() models.SystemMetrics
}

// StatsHandler serves the admin dashboard aggregates.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Dashboard godoc
// @Summary Registration statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	result, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.CacheHit)
	response.OK(c, "", response.Payload{"stats": result.Stats}, meta(c, result.Version))
}

// System godoc
// @Summary Process metrics snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/metrics [get]
func (h *StatsHandler) System(c *gin.Context) {
	response.OK(c, "", response.Payload{"metrics": h.service.System()}, meta(c))
}

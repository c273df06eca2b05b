package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
)

// Routes bundles the handlers and middleware dependencies mounted by Register.
type Routes struct {
	Auth    *AuthHandler
	Events  *EventHandler
	Users   *UserHandler
	Stats   *StatsHandler
	Exports *ExportHandler
	Metrics *MetricsHandler

	Tokens      middleware.TokenValidator
	Versions    middleware.VersionSource
	AuthLimiter *middleware.RateLimiter
}

// Register mounts probes at the root and the API under prefix.
func (rt Routes) Register(r *gin.Engine, prefix string) {
	if rt.Metrics != nil {
		r.GET("/health", rt.Metrics.Health)
		r.GET("/ready", rt.Metrics.Ready)
		r.GET("/metrics", rt.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta(), middleware.CacheVersion(rt.Versions))

	authn := middleware.JWT(rt.Tokens)
	admin := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth", rt.AuthLimiter.Middleware())
	auth.POST("/signup", middleware.OptionalJWT(rt.Tokens), rt.Auth.Signup)
	auth.POST("/login", rt.Auth.Login)
	auth.GET("/me", authn, rt.Auth.Me)

	events := api.Group("/events")
	events.GET("", rt.Events.List)
	events.GET("/:id", rt.Events.Get)
	events.POST("", authn, admin, rt.Events.Create)
	events.PUT("/:id", authn, admin, rt.Events.Update)
	events.DELETE("/:id", authn, admin, rt.Events.Delete)
	events.POST("/:id/register", authn, rt.Events.Register)
	events.GET("/:id/registrations/export", authn, admin, rt.Events.ExportParticipants)

	dashboard := api.Group("/dashboard", authn, admin)
	dashboard.GET("/stats", rt.Stats.Dashboard)
	dashboard.GET("/metrics", rt.Stats.System)

	users := api.Group("/users", authn)
	users.GET("", admin, rt.Users.List)
	users.POST("", admin, rt.Users.Create)
	users.GET("/export", admin, rt.Users.Export)
	users.GET("/:id", middleware.SelfOrRoles(models.RoleAdmin), rt.Users.Get)
	users.PUT("/:id", middleware.SelfOrRoles(models.RoleAdmin), rt.Users.Update)
	users.DELETE("/:id", admin, rt.Users.Delete)

	api.GET("/exports/:token", rt.Exports.Download)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/middleware"
	"github.com/campushub/club-portal-api/internal/models"
	"github.com/campushub/club-portal-api/internal/repository"
	"github.com/campushub/club-portal-api/internal/service"
)

// RouteConfig bundles the handlers and cross-cutting services the
// router needs.
type RouteConfig struct {
	APIPrefix string

	Auth         *AuthHandler
	Clubs        *ClubHandler
	Events       *EventHandler
	Recruitments *RecruitmentHandler
	Registration *RegistrationHandler
	Applications *ApplicationHandler
	Admin        *AdminHandler
	Exports      *ExportHandler
	Metrics      *MetricsHandler

	AuthService *service.AuthService
	Users       *repository.UserRepository
}

// RegisterRoutes mounts the API surface on the engine.
func RegisterRoutes(r *gin.Engine, cfg RouteConfig) {
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}

	authRequired := middleware.JWT(cfg.AuthService)
	authOptional := middleware.OptionalJWT(cfg.AuthService)
	studentOnly := middleware.RequireRoles(models.RoleStudent)
	adminOnly := middleware.RequireRoles(models.RoleClubAdmin)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", cfg.Auth.Register)
		auth.POST("/login", cfg.Auth.Login)
		auth.POST("/refresh", cfg.Auth.Refresh)
		auth.POST("/logout", authRequired, cfg.Auth.Logout)
		auth.GET("/me", authRequired, cfg.Auth.Me)
	}

	clubs := api.Group("/clubs")
	{
		clubs.GET("", cfg.Clubs.List)
		clubs.GET("/:clubName", cfg.Clubs.Profile)
		clubs.PUT("/:clubName", authRequired, adminOnly,
			middleware.Audit(cfg.Users, "CLUB_PROFILE_UPDATE", "clubs"), cfg.Clubs.UpdateProfile)
	}

	events := api.Group("/events")
	{
		events.GET("", authOptional, cfg.Events.List)
		events.GET("/club/:clubName", authOptional, cfg.Events.ListByClub)
		events.GET("/:eventId", authOptional, cfg.Events.Get)
		events.POST("", authRequired, adminOnly, cfg.Events.Create)
		events.PUT("/:eventId", authRequired, adminOnly, cfg.Events.Update)
		events.DELETE("/:eventId", authRequired, adminOnly, cfg.Events.Delete)

		events.POST("/:eventId/registrations", authRequired, studentOnly, cfg.Registration.Register)
		events.DELETE("/:eventId/registrations", authRequired, studentOnly, cfg.Registration.Cancel)
		events.GET("/:eventId/registrations", authRequired, adminOnly, cfg.Registration.ListForEvent)
	}

	api.GET("/registrations/my", authRequired, studentOnly, cfg.Registration.ListMine)

	recruitments := api.Group("/recruitments")
	{
		recruitments.GET("", cfg.Recruitments.List)
		recruitments.GET("/club/:clubName", cfg.Recruitments.ListByClub)
		recruitments.GET("/:recruitmentId", cfg.Recruitments.Get)
		recruitments.POST("", authRequired, adminOnly, cfg.Recruitments.Create)
		recruitments.PUT("/:recruitmentId", authRequired, adminOnly, cfg.Recruitments.Update)
		recruitments.DELETE("/:recruitmentId", authRequired, adminOnly, cfg.Recruitments.Delete)

		recruitments.POST("/:recruitmentId/applications", authRequired, studentOnly, cfg.Applications.Apply)
		recruitments.GET("/:recruitmentId/applications", authRequired, adminOnly, cfg.Applications.ListForRecruitment)
	}

	api.GET("/applications/my", authRequired, studentOnly, cfg.Applications.ListMine)
	api.PATCH("/applications/:applicationId/status", authRequired, adminOnly, cfg.Applications.Review)

	api.GET("/admin/stats", authRequired, adminOnly, cfg.Admin.Stats)

	if cfg.Exports != nil {
		exports := api.Group("/exports")
		{
			exports.POST("", authRequired, adminOnly,
				middleware.Audit(cfg.Users, "EXPORT_REQUEST", "exports"), cfg.Exports.Request)
			exports.GET("", authRequired, adminOnly, cfg.Exports.List)
			exports.GET("/download/:token", cfg.Exports.Download)
			exports.GET("/:jobId", authRequired, adminOnly, cfg.Exports.Status)
		}
	}
}

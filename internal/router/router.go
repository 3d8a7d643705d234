package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"     // Echo web framework for routing
	"github.com/redis/go-redis/v9"    // Redis client shared by cache and rate limiting

	"github.com/iliyamo/architect-sessions/internal/config"
	"github.com/iliyamo/architect-sessions/internal/handler"
	"github.com/iliyamo/architect-sessions/internal/middleware"
)

// Handlers groups the record-store handlers registered under /v1.
type Handlers struct {
	Users     *handler.UserHandler
	Projects  *handler.ProjectHandler
	Sessions  *handler.SessionHandler
	Messages  *handler.MessageHandler
	Specs     *handler.SpecHandler
	DocLinks  *handler.DocLinkHandler
	Scaffolds *handler.ScaffoldHandler
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check for load balancers and
// monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterRecords registers every record-store endpoint under /v1.  The
// whole group runs behind the identity middleware, which resolves the
// caller into either a user principal or the trusted backend identity;
// rate limiting and the per-principal response cache sit behind it so
// both see the resolved principal.  User administration additionally
// requires the service principal.
func RegisterRecords(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	v1 := e.Group("/v1")
	v1.Use(middleware.Identity(cfg.JWTSecret, cfg.ServiceKeyHash))
	v1.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	v1.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// User administration: accounts are provisioned by backend automation.
	admin := v1.Group("/users", middleware.RequireService())
	admin.POST("", h.Users.Create)
	admin.GET("", h.Users.List)

	// Self-or-service user operations; the handler checks the chain.
	v1.GET("/users/:id", h.Users.Get)
	v1.PATCH("/users/:id", h.Users.Update)
	v1.DELETE("/users/:id", h.Users.Delete)

	// Projects.
	v1.POST("/projects", h.Projects.Create)
	v1.GET("/projects", h.Projects.List)
	v1.GET("/projects/:id", h.Projects.Get)
	v1.PATCH("/projects/:id", h.Projects.Update)
	v1.DELETE("/projects/:id", h.Projects.Delete)
	v1.GET("/projects/:id/sessions", h.Sessions.ListByProject)

	// Sessions and their conversation.
	v1.POST("/sessions", h.Sessions.Create)
	v1.GET("/sessions/:id", h.Sessions.Get)
	v1.PATCH("/sessions/:id/phase", h.Sessions.UpdatePhase)
	v1.PATCH("/sessions/:id/metadata", h.Sessions.UpdateMetadata)
	v1.DELETE("/sessions/:id", h.Sessions.Delete)
	v1.POST("/sessions/:id/messages", h.Messages.Create)
	v1.GET("/sessions/:id/messages", h.Messages.List)

	// Phase outputs.
	v1.POST("/sessions/:id/specs", h.Specs.Create)
	v1.GET("/sessions/:id/specs", h.Specs.List)
	v1.GET("/sessions/:id/specs/latest", h.Specs.Latest)
	v1.POST("/sessions/:id/docs", h.DocLinks.Create)
	v1.GET("/sessions/:id/docs", h.DocLinks.List)
	v1.POST("/sessions/:id/scaffolds", h.Scaffolds.Create)
	v1.GET("/sessions/:id/scaffolds", h.Scaffolds.List)
	v1.PATCH("/scaffolds/:id/completed", h.Scaffolds.SetCompleted)
}

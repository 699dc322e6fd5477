// Package router builds the HTTP route table.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eventreg/backend/internal/emaillogs"
	"github.com/eventreg/backend/internal/events"
	"github.com/eventreg/backend/internal/middleware"
	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/internal/registrations"
	"github.com/eventreg/backend/internal/storage"
	"github.com/eventreg/backend/internal/users"
	"github.com/eventreg/backend/pkg/response"
)

// Deps are the collaborators of the route table. Redis, Notifier and RateLimiter are optional.
type Deps struct {
	Stores             storage.Stores
	Redis              *redis.Client
	CacheTTL           time.Duration
	Notifier           registrations.Notifier
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins string
	Logger             *zap.Logger
}

// New returns a gin engine serving every endpoint.
func New(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var purger events.CachePurger
	cacheGET := func(c *gin.Context) { c.Next() }
	if d.Redis != nil && d.CacheTTL > 0 {
		purger = middleware.NewCacheInvalidator(d.Redis, logger)
		cacheGET = middleware.ResponseCache(d.Redis, d.CacheTTL, logger)
	}
	throttle := func(c *gin.Context) { c.Next() }
	if d.RateLimiter != nil {
		throttle = d.RateLimiter.Middleware()
	}

	eventHandler := events.NewHandler(d.Stores.Events, purger, logger)
	userHandler := users.NewHandler(d.Stores.Users, logger)
	emailLogHandler := emaillogs.NewHandler(d.Stores.EmailLogs, d.Stores.Events, logger)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.NoRoute(func(c *gin.Context) { response.NotFound(c, "not found") })
	router.NoMethod(response.MethodNotAllowed)

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Events
	router.GET("/events/", cacheGET, eventHandler.List)
	router.POST("/events/", eventHandler.Create)
	router.GET("/events/:id/", cacheGET, eventHandler.GetByID)
	router.PUT("/events/:id/", eventHandler.Replace)
	router.PATCH("/events/:id/", eventHandler.Patch)
	router.DELETE("/events/:id/", eventHandler.Delete)
	router.GET("/events/:id/emails/", emailLogHandler.ListByEvent)

	// Registrations and waitlist share one shape
	for _, roster := range []models.Roster{models.RosterRegistrations, models.RosterWaitlist} {
		h := registrations.NewHandler(roster, d.Stores.Roster(roster), d.Stores.Events, d.Notifier, logger)
		base := "/events/:id/" + string(roster) + "/"
		router.GET(base, h.List)
		router.POST(base, h.Create)
		router.GET(base+":entryId/", h.GetByID)
		router.PUT(base+":entryId/", h.Update)
		router.DELETE(base+":entryId/", h.Delete)
	}

	// Users
	router.POST("/users/register", throttle, userHandler.Register)
	router.POST("/users/login", throttle, userHandler.Login)
	router.GET("/users/:id/profile", userHandler.Profile)

	return router
}

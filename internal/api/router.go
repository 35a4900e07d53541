package api

import (
	"cmp"
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/middleware"
	"github.com/persistorai/aptaudit/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log       *logrus.Logger
	Pool      HealthChecker
	Hub       *ws.Hub
	Lifecycle AuditLifecycle
	Answers   AnswerService
	Query     AuditQueryService
	Activity  ActivityRepository
	Photos    PhotoUploader // nil disables multipart answers

	// PhotoDir is served read-only under PhotoRoute when both are set.
	PhotoDir      string
	PhotoRoute    string
	MaxPhotoBytes int64

	CORSOrigins []string
	Version     string

	// RateLimit and RateBurst size the per-client token bucket; zero selects
	// the defaults.
	RateLimit int
	RateBurst int
}

// Router-level limits.
const (
	maxBodySize      = 1 << 20 // 1 MB for JSON bodies
	defaultRateLimit = 100     // requests per second per client
	defaultRateBurst = 200     // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	var cacheable []string
	if deps.PhotoRoute != "" {
		cacheable = append(cacheable, deps.PhotoRoute)
	}

	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(middleware.Actor())
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders(cacheable...))
	r.Use(middleware.MaxBodySize(maxBodySize, multipartLimit(deps.MaxPhotoBytes)))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", middleware.ActorHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx,
		cmp.Or(deps.RateLimit, defaultRateLimit),
		cmp.Or(deps.RateBurst, defaultRateBurst),
		middleware.ByClientIPAndActor,
	).Handler())
	r.Use(middleware.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.PhotoDir != "" && deps.PhotoRoute != "" {
		r.StaticFS(deps.PhotoRoute, gin.Dir(deps.PhotoDir, false))
	}
}

// multipartLimit allows a full set of photos plus the answer payload.
func multipartLimit(maxPhotoBytes int64) int64 {
	if maxPhotoBytes <= 0 {
		return maxBodySize
	}

	return maxPhotoFiles*maxPhotoBytes + maxBodySize
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	var clients ClientCounter
	if deps.Hub != nil {
		clients = deps.Hub
	}

	health := NewHealthHandler(deps.Pool, clients, log, deps.Version)
	audits := NewAuditHandler(deps.Lifecycle, deps.Query, log)
	answers := NewAnswerHandler(deps.Answers, deps.Query, deps.Photos, log)
	activity := NewActivityHandler(deps.Activity, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Audits.
	api.POST("/audits", audits.Start)
	api.GET("/audits/:id", audits.Get)
	api.POST("/audits/:id/complete", audits.Complete)
	api.POST("/audits/:id/cancel", audits.Cancel)
	api.GET("/audits/:id/summary", audits.Summary)
	api.GET("/audits/:id/incidences", audits.Incidences)
	api.GET("/audits/:id/history", audits.History)
	api.GET("/apartments/:id/audits", audits.ListByApartment)

	// Answers.
	api.POST("/audits/:id/items/:itemId/answer", answers.Answer)
	api.GET("/audits/:id/items/:itemId/response", answers.GetResponse)

	// Activity log.
	api.GET("/activity", activity.Query)
	api.DELETE("/activity", activity.Purge)

	// Live audit progress.
	if deps.Hub != nil {
		api.GET("/audits/:id/ws", wsHandler(ctx, log, deps.Hub, deps.Query, deps.CORSOrigins))
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}

package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/windoze95/reme-voice/internal/config"
	"github.com/windoze95/reme-voice/internal/handlers"
	"github.com/windoze95/reme-voice/internal/logger"
	"github.com/windoze95/reme-voice/internal/middleware"
	"github.com/windoze95/reme-voice/internal/observe"
	"github.com/windoze95/reme-voice/internal/service"
	"github.com/windoze95/reme-voice/internal/ws"
)

const (
	limiterCleanupInterval = time.Minute
	limiterExpiration      = 3 * time.Minute
)

// SetupRouter sets up the Gin router. ctx bounds the background work of
// the middleware.
func SetupRouter(ctx context.Context, cfg *config.Config, voiceService *service.VoiceService, hub *ws.Hub) *gin.Engine {
	// Create default Gin router
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowOrigins = cfg.EnvVars.CORSOrigins
	corsConfig.AddAllowHeaders("Authorization", "X-Request-ID", "traceparent")
	r.Use(cors.New(corsConfig))

	// Add request ID middleware for request correlation
	r.Use(logger.RequestIDMiddleware())
	r.Use(observe.GinMiddleware(voiceService.Metrics))

	// Ping route for testing
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	voiceHandler := handlers.NewVoiceHandler(voiceService, hub)
	r.GET("/", voiceHandler.Index)
	r.GET("/health", voiceHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket route (authenticated via query param token)
	sessionHandler := ws.NewVoiceHandler(hub, cfg.EnvVars.JwtSecretKey, voiceService, cfg.EnvVars.CORSOrigins)
	r.GET("/v1/ws", sessionHandler.HandleVoiceSession)

	// Group for API routes, rate limited per IP
	api := r.Group("/v1")
	{
		api.Use(middleware.RateLimitByIP(ctx, cfg.EnvVars.RateLimitRPS, limiterCleanupInterval, limiterExpiration))
		api.Use(middleware.VerifyTokenMiddleware(cfg))

		// Pipeline configuration and model reachability
		api.GET("/status", voiceHandler.Status)
		// Run a text command as if it had been spoken
		api.POST("/command", voiceHandler.ProcessCommand)
		// Update the context text commands run against
		api.POST("/context", voiceHandler.UpdateContext)
	}

	return r
}

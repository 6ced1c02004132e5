package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/daily-digest-api/internal/config"
	"github.com/daily-digest-api/internal/models"
	"github.com/daily-digest-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	publishHandler := NewPublishHandler(services, log)
	readHandler := NewReadHandler(services, log)
	voteHandler := NewVoteHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)

	// API v1
	v1 := router.Group("/v1")
	{
		articles := v1.Group("/articles")
		{
			articles.POST("", requireAPIKey(cfg), publishHandler.PublishArticles)
			articles.GET("/today", readHandler.Today)
			articles.GET("/archive", readHandler.Archive)
			articles.GET("/search", readHandler.Search)
			articles.GET("/domains", readHandler.Domains)
		}

		podcast := v1.Group("/podcast")
		{
			podcast.POST("", requireAPIKey(cfg), publishHandler.PublishPodcast)
			podcast.GET("/latest", readHandler.PodcastLatest)
			podcast.GET("/archive", readHandler.PodcastArchive)
		}

		votes := v1.Group("/votes")
		{
			votes.POST("", voteHandler.Submit)
			votes.GET("/result", voteHandler.Result)
			votes.GET("/check", voteHandler.Check)
			votes.GET("/trend", voteHandler.Trend)
			votes.GET("/stats", voteHandler.Stats)
		}

		v1.POST("/questions", requireAPIKey(cfg), voteHandler.Create)

		admin := v1.Group("/admin", requireAPIKey(cfg))
		{
			admin.POST("/domains/seed", publishHandler.SeedDomains)
			admin.POST("/repair-pending", publishHandler.RepairPending)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "daily-digest-api",
	})
}

// requireAPIKey guards producer endpoints with the shared secret. The
// key arrives in the X-API-Key header or, for legacy producers, the
// "key" query parameter.
func requireAPIKey(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := cfg.Publish.APIKey
		if expected == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.Envelope{
				Error: models.NewError(models.CodeUnauthorized, "API key is not configured"),
			})
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("key")
		}
		if key != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Envelope{
				Error: models.NewError(models.CodeUnauthorized, "Unauthorized"),
			})
			return
		}

		c.Next()
	}
}

// respondOK writes the uniform success envelope.
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.Envelope{Success: true, Data: data})
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewError(models.CodeStoreUnavailable, "internal error")
	}
	c.JSON(statusFor(appErr.Code), models.Envelope{Error: appErr})
}

func statusFor(code models.ErrorCode) int {
	switch code {
	case models.CodeValidation, models.CodeUnknownDomain, models.CodeContentTooShort:
		return http.StatusBadRequest
	case models.CodeQuestionNotFound:
		return http.StatusNotFound
	case models.CodeUnauthorized:
		return http.StatusUnauthorized
	case models.CodeAlreadyExists:
		return http.StatusConflict
	case models.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, models.Envelope{
					Error: models.NewError(models.CodeStoreUnavailable, "internal error"),
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

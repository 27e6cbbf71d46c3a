package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/handlers"
	"bitbucket.org/mmdatafocus/inventory_review/middlewares"
	"bitbucket.org/mmdatafocus/inventory_review/suggest"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"bitbucket.org/mmdatafocus/inventory_review/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	sessionLifespan    = 30 * 24 * time.Hour
	suggestionCacheTTL = 6 * time.Hour
)

func main() {
	logger := config.GetLogger()
	settings := config.LoadSettings()
	if err := settings.ValidateForServer(); err != nil {
		logger.WithFields(logrus.Fields{"field": "settings"}).Fatal(err.Error())
	}
	passwordHash, err := utils.ResolvePasswordHash(settings.BasicAuthPasswordHash, settings.BasicAuthPassword)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "settings"}).Fatal(err.Error())
	}
	if settings.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run sends SIGTERM on revision shutdown.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	review := handlers.NewReviewHandler(nil, nil, settings.InitialSuggestionSource)
	var ready atomic.Bool

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.CorrelationIdMiddleware())
	r.GET("/healthz", func(c *gin.Context) {
		if !ready.Load() {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.Use(corsMiddleware(settings))
	r.Use(handlers.ErrorLogger())

	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if !ready.Load() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"status":  handlers.StatusError,
				"kind":    handlers.KindBusy,
				"message": "The service is starting. Please try again.",
			})
			return
		}
		c.Next()
	})
	api.Use(middlewares.BasicAuthMiddleware(settings.BasicAuthUsername, passwordHash))
	api.Use(middlewares.WorkerSessionMiddleware([]byte(settings.SecretKey), sessionLifespan))
	review.Register(api)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Dependencies connect after the port is open; /api answers 503 until then.
	rt, err := workflow.Bootstrap(sigCtx, settings, 0)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "bootstrap"}).Fatal(err.Error())
	}
	defer rt.Close()

	review.Service = rt.Service
	review.Suggestions = buildRegistry(sigCtx, rt, settings)
	ready.Store(true)

	logger.WithFields(logrus.Fields{
		"field":       "http",
		"port":        settings.Port,
		"environment": settings.Environment,
	}).Info("review server ready")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

func buildRegistry(ctx context.Context, rt *workflow.Runtime, settings *config.Settings) *suggest.Registry {
	cacheTTL := time.Duration(0)
	if settings.RedisAddress != "" {
		cacheTTL = suggestionCacheTTL
	}
	registry := suggest.NewRegistry(cacheTTL)
	registry.Register(suggest.NewPnP())
	registry.Register(suggest.NewCheckers())
	if settings.DeeliverCatalogKey != "" {
		registry.Register(suggest.LoadDeeliver(ctx, rt.Blobs, settings.DeeliverCatalogKey))
	}
	return registry
}

// corsMiddleware requires an explicit allowlist in production and allows all
// origins elsewhere.
func corsMiddleware(settings *config.Settings) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	allowed := utils.SplitAndTrim(settings.CorsAllowedOrigins)
	switch {
	case len(allowed) > 0:
		corsConfig.AllowOrigins = allowed
	case settings.Production:
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	default:
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.CorrelationIdHeader)
	corsConfig.AddExposeHeaders("Content-Length", middlewares.CorrelationIdHeader)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return cors.New(corsConfig)
}

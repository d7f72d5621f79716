package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	constants "github.com/CodeAndHammer/rootword/internal/constants"
	handlers "github.com/CodeAndHammer/rootword/internal/handlers"
	models "github.com/CodeAndHammer/rootword/internal/models"
	util "github.com/CodeAndHammer/rootword/internal/util"
)

func newRouter(app *models.App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLogMiddleware())
	router.Use(securityHeadersMiddleware())

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	noStore := cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})
	router.Use(noStore)

	wrap := func(h func(*models.App, *gin.Context)) gin.HandlerFunc {
		return func(c *gin.Context) { h(app, c) }
	}
	limited := rateLimitMiddleware(app)

	router.GET(constants.RouteHealthz, wrap(handlers.HealthzHandler))

	// The stream route sits outside the gzip group; compressing an
	// upgraded connection breaks the handshake.
	router.GET(constants.RouteRoundStream, wrap(handlers.StreamHandler))

	api := router.Group("/", ginGzip.Gzip(ginGzip.DefaultCompression))
	api.POST(constants.RouteStartGame, limited, wrap(handlers.StartHandler))
	api.GET(constants.RouteGame, wrap(handlers.GameStateHandler))
	api.DELETE(constants.RouteGame, wrap(handlers.DeleteHandler))
	api.POST(constants.RouteSubmit, limited, wrap(handlers.SubmitHandler))
	api.POST(constants.RouteNewWord, wrap(handlers.NewWordHandler))
	api.GET(constants.RouteSummary, wrap(handlers.SummaryHandler))

	return router
}

func startServer(app *models.App, router *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", app.Config.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}

func startCleanupRoutines(ctx context.Context, app *models.App) {
	interval := app.Config.CleanupInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	go func() {
		ticker := app.Clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				cleanupStaleSessions(ctx, app)
			}
		}
	}()

	go func() {
		ticker := app.Clock.NewTicker(3 * interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				cleanupStaleRateLimiters(app)
			}
		}
	}()

	util.LogInfo("Started cleanup routines for sessions and rate limiters")
}

func cleanupStaleSessions(ctx context.Context, app *models.App) int {
	return app.Registry.SweepIdle(ctx, app.Config.SessionTTL)
}

func cleanupStaleRateLimiters(app *models.App) int {
	removed := app.Limiter.Sweep(app.Config.RateLimiterTTL)
	if removed > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removed)
	}
	return removed
}

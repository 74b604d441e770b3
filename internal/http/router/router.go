// Package router assembles the Gin engine from the application modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// New builds the HTTP engine: global middleware, the health endpoint and
// every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	engine.GET("/api/health", healthHandler(app))

	v1 := engine.Group("/api/v1")

	ingestLimiter := httpkit.NewIPRateLimiter(
		rate.Limit(app.Config.GetIngestRatePerSecond()),
		app.Config.GetIngestBurst(),
		app.Logger,
	)
	ingest := v1.Group("")
	ingest.Use(ingestLimiter.RateLimit())

	ctx := &apphttp.RouterContext{
		Engine: engine,
		V1:     v1,
		Ingest: ingest,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

// healthHandler reports database reachability and the queue delivery mode.
// Queue degrade is not a failure: the endpoint stays 200 so load balancers
// keep routing while operators see mode=fallback.
func healthHandler(app *apphttp.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"

		if app.Health != nil {
			pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := app.Health.Ping(pingCtx); err != nil {
				app.Logger.DatabaseError("health ping", err)
				status = http.StatusServiceUnavailable
				dbStatus = "unreachable"
			}
		}

		queueMode := ""
		if app.Queue != nil {
			queueMode = string(app.Queue.Mode())
		}

		body := gin.H{
			"status":   "ok",
			"database": dbStatus,
		}
		if queueMode != "" {
			body["queue"] = queueMode
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}

		c.JSON(status, body)
	}
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Webhook-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	return cors.New(corsCfg)
}

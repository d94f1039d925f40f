package bootstrap

import (
	"context"
	"time"

	httpapi "github.com/campus-radio/songdesk/internal/api/http"
	apimw "github.com/campus-radio/songdesk/internal/api/http/middleware"
	authhttp "github.com/campus-radio/songdesk/internal/auth/http"
	authmw "github.com/campus-radio/songdesk/internal/auth/middleware"
	reqhttp "github.com/campus-radio/songdesk/internal/requests/http"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const submitLimitMessage = "提交过于频繁，请稍后再试"

type RouterDeps struct {
	ServiceName  string
	Version      string
	Environment  string
	CORSOrigins  []string
	SubmitPerMin int
	Logger       *zap.Logger
	App          *App
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	if dep.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimw.RequestIDMiddleware(dep.Logger))
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))

	app := dep.App
	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, map[string]httpapi.Pinger{
		"redis":    httpapi.PingFunc(func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }),
		"postgres": httpapi.PingFunc(app.DB.PingContext),
	})
	healthHandler.RegisterRoutes(r)

	secure := dep.Environment == "production"
	requests := reqhttp.New(app.Requests, app.Catalog, app.Music, app.Files, app.Auth, secure)

	var submitGuards []gin.HandlerFunc
	if dep.SubmitPerMin > 0 {
		limiter := apimw.NewClientLimiter(float64(dep.SubmitPerMin), dep.SubmitPerMin)
		submitGuards = append(submitGuards, apimw.RateLimit(limiter, submitLimitMessage))
	}
	requests.RegisterPublic(r, submitGuards...)

	authhttp.New(app.Auth, secure).Register(r.Group("/admin"))
	requests.RegisterAdmin(r.Group("/admin", authmw.RequireAdmin(app.Auth)))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", apimw.HeaderRequestID},
		ExposeHeaders:    []string{apimw.HeaderRequestID, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

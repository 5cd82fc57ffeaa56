package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/univault/internal/auth"
	"github.com/geocoder89/univault/internal/config"
	"github.com/geocoder89/univault/internal/http/handlers"
	"github.com/geocoder89/univault/internal/http/middlewares"
	"github.com/geocoder89/univault/internal/observability"
	"github.com/geocoder89/univault/internal/repo/postgres"
	"github.com/geocoder89/univault/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) (*gin.Engine, error) {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.SetDefault(log)

	r := gin.New()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware, outermost first

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("univault"))
	}
	r.Use(prom.HTTPMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories and collaborators
	usersRepo := postgres.NewUsersRepo(pool, prom)
	resourcesRepo := postgres.NewResourcesRepo(pool, prom)

	blobs, err := storage.NewLocalStore(cfg.UploadDir)

	if err != nil {
		return nil, err
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	resourcesHandler := handlers.NewResourcesHandler(resourcesRepo, blobs)

	// login/register are the brute-force surface
	authLimiter := middlewares.NewRateLimiter(20, time.Minute)

	authRoutes := r.Group("/api/auth")
	authRoutes.Use(middlewares.RequireJSON())
	authRoutes.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	resourceRoutes := r.Group("/api/resources")
	{
		resourceRoutes.GET("", resourcesHandler.List)
		resourceRoutes.GET("/:id", resourcesHandler.GetByID)
		resourceRoutes.POST("/upload", authMW.RequireAuth(), resourcesHandler.Upload)
		resourceRoutes.DELETE("/:id", authMW.RequireAuth(), resourcesHandler.Delete)
	}

	// stored blobs, served as-is
	r.Static("/uploads", blobs.Dir())

	return r, nil
}

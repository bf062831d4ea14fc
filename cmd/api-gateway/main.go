package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/modelhub-io/modelhub-api/api/swagger"
	"github.com/modelhub-io/modelhub-api/internal/handler"
	"github.com/modelhub-io/modelhub-api/internal/middleware"
	"github.com/modelhub-io/modelhub-api/internal/repository"
	"github.com/modelhub-io/modelhub-api/internal/service"
	"github.com/modelhub-io/modelhub-api/pkg/cache"
	"github.com/modelhub-io/modelhub-api/pkg/config"
	"github.com/modelhub-io/modelhub-api/pkg/database"
	"github.com/modelhub-io/modelhub-api/pkg/logger"
	corsmiddleware "github.com/modelhub-io/modelhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/modelhub-io/modelhub-api/pkg/middleware/requestid"
)

// @title ModelHub API
// @version 0.1.0
// @description Collaborative editing and verification backend for timed-automata models
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, engine verdicts will not be cached", "error", err)
		redisClient = nil
	}

	tokenSvc, err := service.NewTokenService(cfg.Tokens)
	if err != nil {
		logr.Sugar().Fatalw("failed to init token service", "error", err)
	}

	metricsSvc := service.NewMetricsService()
	validate := service.NewValidator()
	hasher := service.BcryptHasher{}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	queryRepo := repository.NewQueryRepository(db)
	inUseRepo := repository.NewInUseRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, sessionRepo, tokenSvc, hasher, validate, logr)
	userSvc := service.NewUserService(userRepo, hasher, validate, logr)
	lockSvc := service.NewLockService(inUseRepo, cfg.Lock.Timeout, logr)
	accessSvc := service.NewAccessService(accessRepo, userRepo, projectRepo, validate, logr)
	engineSvc := service.NewEngineService(cfg.Engine, cacheRepo, metricsSvc, logr)
	projectSvc := service.NewProjectService(projectRepo, queryRepo, accessSvc, lockSvc, authSvc, validate, logr)
	querySvc := service.NewQueryService(queryRepo, projectRepo, accessSvc, engineSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	queryHandler := handler.NewQueryHandler(querySvc)
	accessHandler := handler.NewAccessHandler(accessSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.JWT(tokenSvc)
	v1 := r.Group(cfg.APIPrefix)
	{
		v1.POST("/auth/token", authHandler.Token)
		v1.POST("/auth/logout", auth, authHandler.Logout)

		v1.POST("/users", userHandler.Register)
		v1.GET("/users", auth, userHandler.List)
		v1.PATCH("/users/me", auth, userHandler.Update)
		v1.DELETE("/users/me", auth, userHandler.Delete)

		projects := v1.Group("/projects", auth)
		{
			projects.GET("", projectHandler.List)
			projects.POST("", projectHandler.Create)
			projects.GET("/:id", projectHandler.Get)
			projects.PATCH("/:id", projectHandler.Update)
			projects.DELETE("/:id", projectHandler.Delete)
			projects.GET("/:id/access", accessHandler.List)
		}

		access := v1.Group("/access", auth)
		{
			access.POST("", accessHandler.Create)
			access.PATCH("/:id", accessHandler.Update)
			access.DELETE("/:id", accessHandler.Delete)
		}

		queries := v1.Group("/queries", auth)
		{
			queries.POST("", queryHandler.Create)
			queries.PATCH("/:id", queryHandler.Update)
			queries.DELETE("/:id", queryHandler.Delete)
			queries.POST("/:id/send", queryHandler.Send)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

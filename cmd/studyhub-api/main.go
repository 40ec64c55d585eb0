package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-studyhub-api/api/swagger"
	"github.com/noah-isme/campus-studyhub-api/internal/handler"
	"github.com/noah-isme/campus-studyhub-api/internal/middleware"
	"github.com/noah-isme/campus-studyhub-api/internal/repository"
	"github.com/noah-isme/campus-studyhub-api/internal/router"
	"github.com/noah-isme/campus-studyhub-api/internal/service"
	"github.com/noah-isme/campus-studyhub-api/pkg/cache"
	"github.com/noah-isme/campus-studyhub-api/pkg/config"
	"github.com/noah-isme/campus-studyhub-api/pkg/database"
	"github.com/noah-isme/campus-studyhub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-studyhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-studyhub-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-studyhub-api/pkg/storage"
)

// @title Campus Study Hub API
// @version 1.0.0
// @description Semester and subject catalog with lecture notes, question papers and video links.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(ctx, db, logr); err != nil {
		logr.Fatal("failed to migrate schema", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.SemesterCacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, semester cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	files, err := storage.NewFileStore(cfg.Uploads.Dir, cfg.Uploads.MaxFileSizeBytes)
	if err != nil {
		logr.Fatal("failed to prepare upload directory", zap.Error(err), zap.String("dir", cfg.Uploads.Dir))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	paperRepo := repository.NewPaperRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Redis.SemesterCacheTTL, logr, cacheRepo.Enabled())
	userSvc := service.NewUserService(userRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	catalogSvc := service.NewCatalogService(semesterRepo, subjectRepo, noteRepo, paperRepo, files, cacheSvc, metrics, validate, logr)
	resourceSvc := service.NewResourceService(noteRepo, paperRepo, videoRepo, subjectRepo, userRepo, files, signer, metrics, validate, logr,
		service.ResourceConfig{APIPrefix: cfg.APIPrefix})
	exportSvc := service.NewExportService(catalogSvc, logr, nil, nil)
	seedSvc := service.NewSeedService(semesterRepo, subjectRepo, videoRepo, userRepo, cfg.Bootstrap.AdminEmail, logr)

	if created, err := userSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		logr.Fatal("failed to ensure admin account", zap.Error(err))
	} else if created {
		logr.Info("admin account created", zap.String("email", cfg.Bootstrap.AdminEmail))
	}
	if cfg.Bootstrap.SeedCatalog {
		if seeded, err := seedSvc.SeedCatalog(ctx); err != nil {
			logr.Error("catalog seed failed", zap.Error(err))
		} else if seeded {
			logr.Info("default catalog seeded")
		}
	}

	readiness := map[string]handler.Pinger{"postgres": db}
	if cacheRepo.Enabled() {
		readiness["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	router.Register(r, cfg.APIPrefix, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, userSvc),
		Catalog:   handler.NewCatalogHandler(catalogSvc, resourceSvc),
		Resources: handler.NewResourceHandler(resourceSvc, files.MaxFileSize()),
		Exports:   handler.NewExportHandler(exportSvc),
		Metrics:   handler.NewMetricsHandler(metrics, readiness),
	}, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

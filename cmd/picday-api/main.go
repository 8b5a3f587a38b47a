package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/snapclass/picday-api/api/swagger"
	"github.com/snapclass/picday-api/internal/handler"
	"github.com/snapclass/picday-api/internal/middleware"
	"github.com/snapclass/picday-api/internal/models"
	"github.com/snapclass/picday-api/internal/repository"
	"github.com/snapclass/picday-api/internal/service"
	"github.com/snapclass/picday-api/pkg/cache"
	"github.com/snapclass/picday-api/pkg/config"
	"github.com/snapclass/picday-api/pkg/database"
	"github.com/snapclass/picday-api/pkg/jobs"
	"github.com/snapclass/picday-api/pkg/logger"
	corsmiddleware "github.com/snapclass/picday-api/pkg/middleware/cors"
	reqidmiddleware "github.com/snapclass/picday-api/pkg/middleware/requestid"
	"github.com/snapclass/picday-api/pkg/render"
	"github.com/snapclass/picday-api/pkg/storage"
)

// @title Picday API
// @version 0.1.0
// @description Photo-session reconciliation engine for school photo days
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
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, roster caching disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	store, err := storage.NewLocalStorage(cfg.Storage.BaseDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object storage", "error", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := buildRouter(cfg, logr.Named("http"), db, redisClient, store)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, store *storage.LocalStorage) *gin.Engine {
	events := repository.NewEventRepository(db)
	prefs := repository.NewPreferenceRepository(db)
	codes := repository.NewScanCodeRepository(db)
	sessions := repository.NewPhotoSessionRepository(db)
	photoFiles := repository.NewPhotoFileRepository(db)
	syncRunner := repository.NewSyncTxRunner(db)
	rosterCache := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	codegenSvc := service.NewCodegenService(
		events, prefs, codes,
		render.NewQRRenderer(512), store, signer, rosterCache,
		nil, metricsSvc, cfg.Codes.RosterCacheTTL, logr,
	)

	var sheetQueue *jobs.Queue
	if cfg.Codes.SheetEnabled {
		sheetQueue = jobs.NewQueue("code_sheets", func(ctx context.Context, job jobs.Job) error {
			eventID, ok := job.Payload.(string)
			if !ok {
				return fmt.Errorf("code sheet job %s: payload is not an event id", job.ID)
			}
			_, err := codegenSvc.RenderCodeSheet(ctx, eventID)
			return err
		}, jobs.QueueConfig{Workers: cfg.Codes.SheetWorkers, Logger: logr})
		sheetQueue.Start(context.Background())
		codegenSvc.AttachSheetQueue(sheetQueue)
	}

	ingestSvc := service.NewIngestService(
		sessions, photoFiles, store, nil, metricsSvc,
		service.IngestConfig{
			GroupSize:          cfg.Ingest.GroupSize,
			MatchWindow:        cfg.Ingest.MatchWindow,
			ClockOffsetMinutes: cfg.Ingest.ClockOffsetMinutes,
			FileTimeout:        cfg.Ingest.FileTimeout,
		}, logr,
	)

	syncSvc := service.NewSyncService(events, syncRunner, metricsSvc, nil, logr)

	codeHandler := handler.NewCodeHandler(codegenSvc)
	ingestHandler := handler.NewIngestHandler(ingestSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.GET("/downloads/code-sheet", codeHandler.SheetDownload)
	r.Static("/objects", cfg.Storage.BaseDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	fieldRoles := middleware.RequireRoles(models.RoleAdmin, models.RolePhotographer)

	api.POST("/events/:eventId/scan-codes", adminOnly, codeHandler.Generate)
	api.GET("/events/:eventId/scan-codes/sheet", fieldRoles, codeHandler.Sheet)
	api.GET("/events/:eventId/scan-codes/sheet/link", fieldRoles, codeHandler.SheetLink)
	api.POST("/events/:eventId/photos/batch", adminOnly, ingestHandler.Ingest)
	api.POST("/events/:eventId/sessions/sync", fieldRoles, syncHandler.Sync)

	return r
}

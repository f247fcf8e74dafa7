package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"adpilot/internal/approval"
	"adpilot/internal/client/discount"
	"adpilot/internal/client/estimator"
	"adpilot/internal/client/marketplace"
	"adpilot/internal/config"
	cronrunner "adpilot/internal/cron"
	"adpilot/internal/db"
	"adpilot/internal/engine"
	"adpilot/internal/executor"
	"adpilot/internal/handler"
	"adpilot/internal/logger"
	"adpilot/internal/predictor"
	"adpilot/internal/reconciler"
	gormrepository "adpilot/internal/repository/gorm"
)

func main() {
	cfgPath := os.Getenv("AP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("AP_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	marketplaceHTTP := &http.Client{Timeout: cfg.Marketplace.Timeout}
	marketplaceClient := marketplace.NewClient(marketplaceHTTP, cfg.Marketplace.BaseURL, cfg.Marketplace.APIKey)
	discountHTTP := &http.Client{Timeout: cfg.Discount.Timeout}
	discountClient := discount.NewClient(discountHTTP, cfg.Discount.BaseURL)
	estimatorHTTP := &http.Client{Timeout: cfg.Estimator.Timeout}
	estimatorClient := estimator.NewClient(estimatorHTTP, cfg.Estimator.BaseURL)

	store := gormrepository.New(dbConn.Gorm)
	exec := executor.New(store, marketplaceClient, discountClient, cfg.Discount.Percent, logger)
	workflow := approval.NewWorkflow(store, exec, logger)
	collector := engine.NewCollector(store, marketplaceClient, workflow, cfg.Engine.HistoryLimit, logger)
	scheduleReconciler := reconciler.New(store, workflow, cfg.Reconciler.CampaignLimit, logger)
	acosPredictor := predictor.New(store, estimatorClient, cfg.Predictor.MinLocalSamples, cfg.Predictor.WindowSize, logger)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(router)
	campaignHandler := &handler.CampaignHandler{
		Repo:      store,
		Collector: collector,
		Predictor: acosPredictor,
	}
	campaignHandler.Register(router)
	actionHandler := &handler.ActionHandler{
		Repo:       store,
		Workflow:   workflow,
		Reconciler: scheduleReconciler,
	}
	actionHandler.Register(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add(cfg.Cron.MetricsCollection, func(ctx context.Context) {
			if err := collector.CollectOnce(ctx); err != nil {
				logger.Warn("cron metrics collection failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register metrics collection failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.Reconciliation, func(ctx context.Context) {
			if _, err := scheduleReconciler.RunOnce(ctx); err != nil {
				logger.Warn("cron reconciliation failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register reconciliation failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.AnalysisRefresh, func(ctx context.Context) {
			if err := acosPredictor.RefreshOnce(ctx); err != nil {
				logger.Warn("cron prediction refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register prediction refresh failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"epi-etl/app"
	"epi-etl/config"
	"epi-etl/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runner verhindert parallele Läufe und merkt sich den letzten Report.
type runner struct {
	pipeline *services.Pipeline
	logger   *zap.Logger

	running sync.Mutex
	mu      sync.RWMutex
	last    *services.RunReport
}

// start reserviert den Runner; false, wenn bereits ein Lauf aktiv ist.
func (r *runner) start() bool {
	return r.running.TryLock()
}

// runStarted führt den mit start reservierten Lauf aus und gibt den Runner wieder frei.
func (r *runner) runStarted(ctx context.Context) {
	defer r.running.Unlock()

	report, err := r.pipeline.RunReport(ctx)
	if err != nil {
		r.logger.Error("Pipeline run aborted", zap.Error(err))
	}
	r.mu.Lock()
	r.last = report
	r.mu.Unlock()
}

// trigger führt synchron einen Lauf aus, falls gerade keiner läuft.
func (r *runner) trigger(ctx context.Context) bool {
	if !r.start() {
		return false
	}
	r.runStarted(ctx)
	return true
}

func (r *runner) lastReport() *services.RunReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// newRouter baut den Router: Logger und Recovery aus gin.Default, dann API-Key-Prüfung.
func newRouter(cfg *config.Config, r *runner) *gin.Engine {
	router := gin.Default()
	router.Use(apiKeyAuthMiddleware(cfg))
	setupRoutes(router, r)
	return router
}

func setupRoutes(router *gin.Engine, r *runner) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rg := router.Group("/runs")
	rg.POST("", func(c *gin.Context) {
		if !r.start() {
			c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
			return
		}
		go r.runStarted(context.Background())
		c.JSON(http.StatusAccepted, gin.H{"message": "Pipeline run triggered."})
	})
	rg.GET("/latest", func(c *gin.Context) {
		report := r.lastReport()
		if report == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run yet"})
			return
		}
		c.JSON(http.StatusOK, report)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config load error: %v", err)
	}

	logging, err := app.NewLogger(cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	a, err := app.New(cfg, logging)
	if err != nil {
		logging.Fatal("Setup failed", zap.Error(err))
	}
	defer a.Close()

	r := &runner{pipeline: a.Pipeline, logger: logging}

	// Setup Cron
	cronScheduler := cron.New()
	if _, err := cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled pipeline run...")
		if !r.trigger(context.Background()) {
			logging.Warn("Scheduled run skipped, another run is in progress")
		}
	}); err != nil {
		logging.Fatal("Invalid cron schedule", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	router := newRouter(cfg, r)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort), zap.String("schedule", cfg.CronSchedule))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

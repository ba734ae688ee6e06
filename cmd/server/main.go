package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyalty/internal/config"
	"loyalty/internal/handlers"
	"loyalty/internal/middleware"
	mongorepo "loyalty/internal/repositories/mongodb"
	"loyalty/internal/services"
	"loyalty/pkg/cache"
	"loyalty/pkg/database"
	"loyalty/pkg/logger"
	"loyalty/pkg/ml"
	"loyalty/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to mongodb")
	}
	defer db.Close()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongorepo.EnsureIndexes(indexCtx, db.Database); err != nil {
		cancelIndex()
		log.WithError(err).Fatal("failed to ensure indexes")
	}
	cancelIndex()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisCache.Close()

	// Repositories
	programRepo := mongorepo.NewProgramRepository(db.Database, redisCache)
	ruleRepo := mongorepo.NewRuleRepository(db.Database, redisCache)
	geofenceRepo := mongorepo.NewGeofenceRepository(db.Database, redisCache)
	accountRepo := mongorepo.NewAccountRepository(db.Database)
	txnRepo := mongorepo.NewTransactionRepository(db.Database)
	ledgerRepo := mongorepo.NewLedgerRepository(db)
	rewardRepo := mongorepo.NewRewardRepository(db.Database, redisCache)
	redemptionRepo := mongorepo.NewRedemptionRepository(db.Database)
	checkinRepo := mongorepo.NewCheckInRepository(db.Database)

	// Services
	geoMatcher := services.NewGeoMatcher(log)
	tierEvaluator := services.NewTierEvaluator()
	ruleMatcher := services.NewRuleMatcher(ruleRepo, txnRepo, geofenceRepo, geoMatcher, log)
	ledgerService := services.NewLedgerService(txnRepo, ledgerRepo, accountRepo, cfg.Engine.ApplyTimeout, log)
	publisher := services.NewEventPublisher(redisCache, log)

	offerRanker, err := ml.NewOfferRanker(cfg.ML.ModelPath, cfg.ML.Enabled, cfg.ML.ScoreThreshold)
	if err != nil {
		log.WithError(err).Warn("offer ranker unavailable, continuing without recommendations")
	}
	var recommender services.Recommender
	if offerRanker != nil {
		recommender = services.NewOfferRecommender(offerRanker, rewardRepo, log)
	}

	engineService := services.NewEngineService(
		programRepo, accountRepo, checkinRepo, geofenceRepo,
		ruleMatcher, ledgerService, tierEvaluator, geoMatcher,
		publisher, recommender, log,
	)
	redemptionService := services.NewRedemptionService(
		rewardRepo, redemptionRepo, accountRepo, programRepo, txnRepo,
		ledgerService, tierEvaluator, publisher, redisCache, log,
	)

	// Handlers
	engineHandler := handlers.NewEngineHandler(engineService)
	accountHandler := handlers.NewAccountHandler(accountRepo, txnRepo, ledgerService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService)
	configHandler := handlers.NewConfigHandler(programRepo, ruleRepo, geofenceRepo, rewardRepo)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	v1 := router.Group("/api/v1")
	{
		routes.SetupEngineRoutes(v1, engineHandler, cfg.Security.JWTSecret)
		routes.SetupAccountRoutes(v1, accountHandler, cfg.Security.JWTSecret)
		routes.SetupRedemptionRoutes(v1, redemptionHandler, cfg.Security.JWTSecret)
		routes.SetupConfigRoutes(v1, configHandler, cfg.Security.JWTSecret)
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"mongodb": "ok", "redis": "ok"}
		if err := db.Ping(); err != nil {
			status = http.StatusServiceUnavailable
			checks["mongodb"] = err.Error()
		}
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks["redis"] = err.Error()
		}
		c.JSON(status, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
			"checks":  checks,
		})
	})

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go runExpirySweeper(sweepCtx, redemptionService, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.App.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}

// runExpirySweeper releases reservations whose deadline passed without a
// commit. Inventory returns promptly even when clients never call release.
func runExpirySweeper(ctx context.Context, redemptions *services.RedemptionService, log *logger.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := redemptions.ReleaseExpired(ctx, 100)
			if err != nil {
				log.WithError(err).Warn("expiry sweep failed")
				continue
			}
			if released > 0 {
				log.WithField("released", released).Info("released expired reservations")
			}
		}
	}
}

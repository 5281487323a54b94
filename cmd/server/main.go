// Package main runs the trivia HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-trivia/backend/config"
	"github.com/aura-trivia/backend/internal/game"
	"github.com/aura-trivia/backend/internal/middleware"
	"github.com/aura-trivia/backend/internal/questions"
	"github.com/aura-trivia/backend/internal/realtime"
	"github.com/aura-trivia/backend/internal/store"
	"github.com/aura-trivia/backend/pkg/database"
	"github.com/aura-trivia/backend/pkg/queue"
	"github.com/aura-trivia/backend/pkg/redis"
	"github.com/aura-trivia/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var gameStore game.Store
	switch cfg.Game.StoreDriver {
	case config.StoreDriverMemory:
		gameStore = store.NewMemory()
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		gameStore = store.NewPostgres(pool)
	}

	if _, err := questions.NewImporter(gameStore, logger).Bootstrap(ctx, cfg.Game.QuestionsFile); err != nil {
		logger.Fatal("import questions", zap.Error(err))
	}

	hub := realtime.NewHub(logger, cfg.Game.SendTimeout)
	svc := game.NewService(gameStore, hub, logger)

	// Finished games are archived by cmd/worker when Redis is configured.
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		svc.SetResultsPublisher(queue.NewQueue(rdb.Client, logger))
	}
	if cfg.Game.AutoAdvance {
		svc.EnableAutoAdvance(game.NewTimers(time.Second, logger))
		logger.Info("question auto-advance enabled", zap.Int("seconds", game.QuestionSeconds))
	}

	gameHandler := game.NewHandler(svc, hub)
	questionHandler := questions.NewHandler(gameStore)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Global question templates
	router.GET("/questions", questionHandler.List)
	router.POST("/questions", questionHandler.Create)

	gameHandler.Routes(router.Group("/rooms/:room"))

	// WebSocket (room key in query)
	router.GET("/ws", realtime.ServeWs(hub, logger, func(room string) interface{} {
		return svc.Snapshot(room)
	}))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Game.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trivialive/internal/cache"
	"trivialive/internal/config"
	"trivialive/internal/repository"
	"trivialive/internal/service"
	"trivialive/internal/transport/rest"
	"trivialive/internal/transport/ws"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	logger.Info().Msg("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping Redis")
	}
	logger.Info().Msg("connected to Redis")

	// Repositories
	roomRepo := repository.NewRoomRepo(db)
	questionRepo := repository.NewQuestionRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)

	// Caches
	roomCache := cache.NewRoomCache(rdb)
	leaderboard := cache.NewLeaderboardCache(rdb)

	// Services
	registry := service.NewActiveGameRegistry()
	authSvc := service.NewAuthService(cfg.HostUsername, cfg.HostPassword, cfg.JWTSecret)
	gameSvc := service.NewGameService(roomRepo, questionRepo, settingsRepo, roomCache, leaderboard, registry, logger)
	votingSvc := service.NewVotingService(roomRepo, settingsRepo, logger)
	gameSvc.SetVotingService(votingSvc)

	// WebSocket hub (implements service.Broadcaster)
	wsHub := ws.NewHub(logger)
	gameSvc.SetBroadcaster(wsHub)
	votingSvc.SetBroadcaster(wsHub)
	wsHandler := ws.NewHandler(wsHub, authSvc, gameSvc, votingSvc, logger)

	router := rest.NewRouter(&rest.Container{
		AuthService:   authSvc,
		GameService:   gameSvc,
		VotingService: votingSvc,
		Leaderboard:   leaderboard,
		WSHandler:     wsHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}

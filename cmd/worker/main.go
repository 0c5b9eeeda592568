package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"muadhin/internal/cache"
	"muadhin/internal/config"
	"muadhin/internal/dispatch"
	"muadhin/internal/logging"
	"muadhin/internal/mq"
)

func main() {
	// Load .env if present.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Redis ---
	redisCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}
	defer redisCache.Close()
	log.Info().Msg("redis connected")

	// --- RabbitMQ ---
	publisher, err := mq.NewPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq publisher")
	}
	defer publisher.Close()
	log.Info().Msg("rabbitmq connected")

	// --- Due-alarm dispatcher ---
	dispatcher := dispatch.New(redisCache, publisher, cfg.ChannelID)
	go dispatcher.Start(ctx, cfg.DispatchInterval)

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")
	cancel()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"muadhin/internal/app"
	"muadhin/internal/bot"
	"muadhin/internal/cache"
	"muadhin/internal/config"
	"muadhin/internal/database"
	"muadhin/internal/logging"
	"muadhin/internal/mq"
	"muadhin/internal/prayer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if cfg.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required. Get one from @BotFather on Telegram.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Database ---
	store, err := database.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer store.Close()

	state := app.New(store, prayer.NewAstronomical(), time.Local)
	if err := state.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("load state")
	}

	// --- Redis ---
	redisCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}
	defer redisCache.Close()
	log.Info().Msg("redis connected")

	// --- RabbitMQ ---
	mqConsumer, err := mq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq consumer")
	}
	defer mqConsumer.Close()
	log.Info().Msg("rabbitmq connected")

	// --- Telegram Bot ---
	tgBot, err := bot.New(cfg.BotToken, state, redisCache)
	if err != nil {
		log.Fatal().Err(err).Msg("bot")
	}

	go tgBot.Start()
	defer tgBot.Stop()
	log.Info().Msg("telegram bot started")

	// --- Start RabbitMQ listener ---
	var chat bot.ChatResolver = redisCache
	if cfg.ChatID != 0 {
		chat = bot.FixedChat(cfg.ChatID)
	}
	listener := newListener(bot.NewChatDisplay(tgBot.TeleBot(), chat), redisCache, mqConsumer)
	go listener.start(ctx)
	log.Info().Msg("rabbitmq listener started")

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down bot service...")
	cancel()
}

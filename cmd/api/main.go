package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"muadhin/cmd/api/handlers"
	"muadhin/internal/app"
	"muadhin/internal/bot"
	"muadhin/internal/cache"
	"muadhin/internal/config"
	"muadhin/internal/database"
	"muadhin/internal/geocode"
	"muadhin/internal/logging"
	"muadhin/internal/mq"
	"muadhin/internal/notify"
	"muadhin/internal/prayer"
)

// DailyCheckInterval is how often the date is checked for the midnight re-run.
const DailyCheckInterval = time.Minute

func main() {
	// Load .env if present.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

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

	// --- Scheduler (picked once) ---
	host, display, cleanup := probeNative(cfg)
	defer cleanup()
	sched := notify.Select(host, display, state, cfg.ChannelID, time.Duration(cfg.PollInterval)*time.Second)
	state.SetScheduler(sched)
	state.Refresh(ctx)

	go sched.Run(ctx)
	go state.RunDaily(ctx, DailyCheckInterval)

	// --- Fiber HTTP Server ---
	server := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	server.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	server.Use(cors.New())

	h := &handlers.Handlers{
		State:    state,
		Geocoder: geocode.NewClient(cfg.NominatimURL, cfg.GeocodeRPS),
		Native:   sched.Native(),
	}
	var guard []fiber.Handler
	if cfg.APILogin != "" && cfg.APIPassword != "" {
		guard = append(guard, handlers.GuardWrites(handlers.BasicAuth(cfg.APILogin, cfg.APIPassword)))
	}
	handlers.Register(server, h, guard...)

	// --- Graceful shutdown ---
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down...")
		cancel()
		_ = server.Shutdown()
	}()

	log.Info().Str("port", cfg.Port).Msg("API service starting")
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}

// probeNative returns a host and display when Redis and RabbitMQ are both
// reachable. Otherwise host is nil and the display delivers directly: to the
// configured chat when a bot token is set, to the log when not.
func probeNative(cfg *config.Config) (notify.Host, notify.Display, func()) {
	if !cfg.ForcePolling {
		redisCache, err := cache.New(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable")
		} else if err := mq.Probe(cfg.RabbitMQURL); err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable")
			redisCache.Close()
		} else if pub, err := mq.NewPublisher(cfg.RabbitMQURL); err != nil {
			log.Warn().Err(err).Msg("rabbitmq publisher")
			redisCache.Close()
		} else {
			log.Info().Msg("redis and rabbitmq connected")
			return redisCache, mq.NewDisplay(pub), func() {
				pub.Close()
				redisCache.Close()
			}
		}
	}

	if cfg.BotToken != "" && cfg.ChatID != 0 {
		sender, err := bot.NewSender(cfg.BotToken)
		if err == nil {
			return nil, bot.NewChatDisplay(sender, bot.FixedChat(cfg.ChatID)), func() {}
		}
		log.Warn().Err(err).Msg("telegram sender")
	}
	return nil, nil, func() {}
}

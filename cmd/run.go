package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"speedbet/bot"
	"speedbet/config"
	"speedbet/events"
	"speedbet/httpapi"
	"speedbet/notifier"
	"speedbet/observability"
	"speedbet/service"
	"speedbet/session"
	"speedbet/toast"
	"speedbet/transport"
)

// SetupLogging applies the configured level and format
func SetupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "development" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	SetupLogging(cfg)
	log.Info("Starting speedbet arena client...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Select and connect the transport
	log.WithField("endpoint", cfg.GraphQLEndpoint()).Info("Connecting to chain service...")
	t, err := transport.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open transport: %w", err)
	}

	eventBus := events.NewBus()
	toaster := toast.NewToaster()
	arenaService := service.NewArenaService(t)
	arena := session.New(arenaService,
		session.WithBus(eventBus),
		session.WithPlayer(cfg.PlayerAddress),
	)

	if _, err := arena.Connect(ctx, t); err != nil {
		return fmt.Errorf("failed to connect session: %w", err)
	}
	if transport.FallbackReason(t) != nil {
		toaster.Warning("Demo mode", "Chain service unavailable, using simulated data")
	}

	newReactions(arena, toaster, cfg.PollInterval).subscribe(eventBus)

	// Subscribe to chain notifications
	n, err := notifier.New(cfg, t)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}
	unsubscribe, err := arena.SetupNotifications(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to subscribe to notifications: %w", err)
	}
	log.WithField("notifier", cfg.NotifierType).Info("Notification subscription established")

	loadInitialState(ctx, arena)

	// Start the local API
	api := httpapi.NewServer(cfg.APIAddr, httpapi.NewRouter(
		httpapi.NewHandler(arena, arenaService, t, toaster),
		cfg.CORSOrigins,
	))
	api.Start()

	// Initialize Discord bot
	var discordBot *bot.Bot
	if cfg.DiscordEnabled() {
		log.Info("Initializing Discord bot...")
		botConfig := bot.Config{
			Token:     cfg.DiscordToken,
			GuildID:   cfg.DiscordGuildID,
			ChannelID: cfg.DiscordChannelID,
		}
		discordBot, err = bot.New(botConfig, arena, arenaService, toaster, eventBus)
		if err != nil {
			unsubscribe()
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
	}

	// Wait for context cancellation
	log.Infof("Arena client is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unsubscribe()

	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.Errorf("Error closing Discord bot: %v", err)
		}
	}

	if err := api.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down API server")
	}

	arena.Disconnect(shutdownCtx, t)

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

// loadInitialState fills the session before any consumer reads it
func loadInitialState(ctx context.Context, arena *session.Session) {
	arena.FetchPlatformInfo(ctx)
	arena.FetchLeaderboard(ctx, session.DefaultListLimit)
	arena.FetchRecentDuels(ctx, session.DefaultListLimit)
	arena.FetchPlayerStats(ctx, "")
	arena.FetchQueueCount(ctx)
}

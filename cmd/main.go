package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lyrebird-health/flarelog-backend/internal/db"
	"github.com/lyrebird-health/flarelog-backend/internal/discovery"
	"github.com/lyrebird-health/flarelog-backend/internal/handlers"
	"github.com/lyrebird-health/flarelog-backend/internal/logger"
	"github.com/lyrebird-health/flarelog-backend/internal/middleware"
	"github.com/lyrebird-health/flarelog-backend/internal/observability"
	"github.com/lyrebird-health/flarelog-backend/internal/repos"
	"github.com/lyrebird-health/flarelog-backend/internal/server"
	"github.com/lyrebird-health/flarelog-backend/internal/services"
	"github.com/lyrebird-health/flarelog-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	discoveryConfigPath := utils.GetEnv("DISCOVERY_CONFIG_PATH", "", log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "flarelog",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Database
	dbService, err := db.NewDBService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	theDB := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	userTokenRepo := repos.NewUserTokenRepo(theDB, log)
	eventRepo := repos.NewEventRepo(theDB, log)
	discoveryRepo := repos.NewDiscoveryRepo(theDB, log)

	// Discovery engine
	log.Info("Setting up discovery engine from main...")
	engineCfg, err := discovery.LoadConfig(discoveryConfigPath)
	if err != nil {
		log.Error("Could not load discovery config", "error", err)
		os.Exit(1)
	}
	engine := discovery.NewEngine(engineCfg, log, discovery.NewPhraseFoodExtractor())

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService", "error", err)
	}
	var avatarService services.AvatarService
	if bucketService != nil {
		avatarService, err = services.NewAvatarService(log, bucketService)
		if err != nil {
			log.Warn("Could not init AvatarService", "error", err)
		}
	}
	notifier, err := services.NewDiscoveryNotifier(log)
	if err != nil {
		log.Warn("Could not init DiscoveryNotifier", "error", err)
	}
	authService := services.NewAuthService(theDB, log, userRepo, userTokenRepo, avatarService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(theDB, log, userRepo)
	eventService := services.NewEventService(theDB, log, eventRepo)
	discoveryService := services.NewDiscoveryService(theDB, log, engine, eventRepo, discoveryRepo, notifier)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	eventHandler := handlers.NewEventHandler(eventService)
	discoveryHandler := handlers.NewDiscoveryHandler(discoveryService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		UserHandler:      userHandler,
		EventHandler:     eventHandler,
		DiscoveryHandler: discoveryHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}

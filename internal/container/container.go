package container

import (
	"context"

	"chatbe/internal/config"
	"chatbe/internal/repository"
	"chatbe/internal/service"
	"chatbe/internal/service/google"
	"chatbe/pkg/database"
	"chatbe/pkg/logger"
	"chatbe/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Services    *service.Services
	Sweeper     *service.Sweeper
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	loginRequestRepo := repository.NewLoginRequestRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize services. Two settings views share one repository: the
	// admin view reads client secrets, the public view never exposes them.
	settingsService := service.NewSettingsService(settingsRepo, redisClient, true, logger)
	publicSettings := service.NewSettingsService(settingsRepo, redisClient, false, logger)
	loginRequests := service.NewLoginRequestService(loginRequestRepo, logger)
	googleService := google.NewExchanger(settingsService, logger)
	reconciler := service.NewReconcilerService(accountRepo, sessionRepo, logger)
	callback := service.NewCallbackService(loginRequests, googleService, reconciler, logger)

	services := &service.Services{
		Settings:       settingsService,
		PublicSettings: publicSettings,
		Google:         googleService,
		LoginRequests:  loginRequests,
		Reconciler:     reconciler,
		Callback:       callback,
	}

	sweeper := service.NewSweeper(loginRequests, cfg.SweepInterval, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		RedisClient: redisClient,
		Services:    services,
		Sweeper:     sweeper,
	}, nil
}

// Close releases the container's connections
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Error("Failed to close Redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// GetSettingsService returns the admin settings service (secrets readable)
func (c *Container) GetSettingsService() service.SettingsService {
	return c.Services.Settings
}

// GetPublicSettingsService returns the settings service that blanks secrets
func (c *Container) GetPublicSettingsService() service.SettingsService {
	return c.Services.PublicSettings
}

// GetGoogleService returns the Google OAuth service
func (c *Container) GetGoogleService() service.GoogleOAuthService {
	return c.Services.Google
}

// GetLoginRequestService returns the login request service
func (c *Container) GetLoginRequestService() service.LoginRequestService {
	return c.Services.LoginRequests
}

// GetReconcilerService returns the account reconciler
func (c *Container) GetReconcilerService() service.ReconcilerService {
	return c.Services.Reconciler
}

// GetCallbackService returns the callback orchestrator
func (c *Container) GetCallbackService() service.CallbackService {
	return c.Services.Callback
}

// GetSweeper returns the expiry sweeper
func (c *Container) GetSweeper() *service.Sweeper {
	return c.Sweeper
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetDB returns the database handle
func (c *Container) GetDB() *database.PostgresDB {
	return c.DB
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

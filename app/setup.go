package app

import (
	"fmt"
	"os"
	"time"

	"github.com/hearthchat/api/api"
	"github.com/hearthchat/api/config"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/router"
	"github.com/hearthchat/api/services/ai"
	"github.com/hearthchat/api/services/cron"
	"github.com/hearthchat/api/services/storage"
	"github.com/hearthchat/api/utils/cache"
	"github.com/hearthchat/api/utils/middleware"
	"go.uber.org/zap"
)

// newLogger builds the process logger. Development gets the console
// encoder, everything else structured JSON.
func newLogger(goEnv string) (*zap.Logger, error) {
	if goEnv == "" || goEnv == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	logger, err := newLogger(getEnv.GO_ENV)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		logger.Error("failed to connect to postgres, check that it is running", zap.Error(err))
		return err
	}

	if err := store.Init(); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		return err
	}

	// Redis backs the login brute-force guard. The app still runs without
	// it, with the guard disabled.
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			logger.Warn("redis unavailable, brute force protection disabled", zap.Error(err))
			redisCache = nil
		}
	}

	// S3-compatible object storage for avatars, optional.
	var spaces *storage.SpacesClient
	if getEnv.SPACES_ACCESS_KEY != "" {
		spaces, err = storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: getEnv.SPACES_ACCESS_KEY,
			SecretKey: getEnv.SPACES_SECRET_KEY,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
			CDNURL:    getEnv.SPACES_CDN_URL,
		})
		if err != nil {
			logger.Warn("object storage unavailable, avatar uploads disabled", zap.Error(err))
			spaces = nil
		}
	}

	aiClient := ai.NewClient(ai.Config{
		APIKey:  getEnv.AI_API_KEY,
		BaseURL: getEnv.AI_BASE_URL,
		Model:   getEnv.AI_MODEL,
	})

	// Cron jobs, enabled by default
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		cronManager = cron.NewCronManager(store, logger)
		if err := cronManager.Start(); err != nil {
			logger.Warn("failed to start cron jobs", zap.Error(err))
			cronManager = nil
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), store, logger)
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins(getEnv),
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
	})

	router.SetupRoutes(app, router.Dependencies{
		Store:  store,
		Cache:  redisCache,
		Spaces: spaces,
		AI:     aiClient,
		Logger: logger,
	})

	return server.Run()
}

func allowedOrigins(env *config.EnvironmentVariable) string {
	if env.APP_URL != "" {
		return env.APP_URL
	}
	return "http://localhost:3000"
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/taskflow/internal/cache"
	"github.com/yukikurage/taskflow/internal/config"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/database"
	"github.com/yukikurage/taskflow/internal/handlers"
	"github.com/yukikurage/taskflow/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	store, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	opts := handlers.Options{Logger: slog.Default()}

	// Dashboard cache
	var redisClient *redis.Client
	if cfg.StatsCacheEnabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		statsCache := cache.New(redisClient, "taskflow:", cfg.StatsCacheTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := statsCache.Ping(ctx); err != nil {
			log.Printf("Stats cache disabled, Redis unreachable at %s: %v", cfg.RedisAddr(), err)
			redisClient.Close()
			redisClient = nil
		} else {
			opts.StatsCache = statsCache
		}
		cancel()
	}

	// Initialize AI service
	if cfg.OpenAIAPIKey != "" {
		opts.AI = services.NewAIService(cfg.OpenAIAPIKey)
	}

	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	handlers.RegisterRoutes(r, handlers.NewServices(database.GetDB(), tokens, opts))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return srv.Shutdown(ctx)
			},
			"database": func(ctx context.Context) error {
				return database.Close()
			},
			"redis": func(ctx context.Context) error {
				if redisClient == nil {
					return nil
				}
				return redisClient.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// newSessionStore picks the Redis or cookie backed session store.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.SessionStore == "cookie" {
		return cookie.NewStore([]byte(cfg.SessionSecret)), nil
	}
	return redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		"",              // username (empty for default user)
		"",              // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
}

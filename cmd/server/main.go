package main

import (
	"context"   // Redis ping and shutdown deadline
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Upload directory
	"os/signal" // Graceful shutdown
	"strings"   // Origin list parsing
	"syscall"   // Termination signals
	"time"      // Timeouts

	"nft_marketplace/internal/api"        // HTTP handlers and router
	"nft_marketplace/internal/cache"      // Redis cache helpers
	"nft_marketplace/internal/config"     // Application configuration
	"nft_marketplace/internal/db"         // Database connection
	"nft_marketplace/internal/repository" // Persistence
	"nft_marketplace/internal/service"    // Marketplace services
	"nft_marketplace/internal/utils"      // Token issuer

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database and make sure the schema exists
	conn, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("%v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	// Test Redis connection
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	_, err = redisClient.Ping(pingCtx).Result()
	cancelPing()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Uploaded images live on local disk
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logrus.Fatalf("failed to create upload dir: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	store := repository.New(conn)
	redisCache := cache.New(redisClient)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	r := api.NewRouter(api.Deps{
		Auth:           service.NewAuth(store, tokens, redisCache),
		Market:         service.NewMarketplace(store, redisCache),
		Profiles:       service.NewProfiles(store),
		Store:          store,
		UploadDir:      cfg.UploadDir,
		AllowedOrigins: splitOrigins(cfg.FrontendURL),
		AuthRatePerMin: cfg.AuthRatePerMin,
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.AppPort, "db": cfg.DBDriver}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for a termination signal, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("forced shutdown: %v", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// splitOrigins turns a comma separated FRONTEND_URL into CORS origins
func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

package api

import (
	"context"  // Health check context
	"net/http" // HTTP status codes
	"slices"   // Origin wildcard check
	"time"     // CORS max age

	"nft_marketplace/internal/middleware" // Auth, logging, rate limiting
	"nft_marketplace/internal/service"    // Services behind the handlers

	"github.com/gin-contrib/cors" // CORS middleware
	"github.com/gin-gonic/gin"    // Gin web framework
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Auth           *service.Auth
	Market         *service.Marketplace
	Profiles       *service.Profiles
	Store          Pinger   // Checked by /api/health
	UploadDir      string   // Image uploads are saved here and served at /uploads
	AllowedOrigins []string // CORS origins
	AuthRatePerMin int      // Per IP budget for /api/auth routes
}

// NewRouter wires middleware and every route onto a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(d.AllowedOrigins) == 0 || slices.Contains(d.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour

	r.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(),
		cors.New(corsConfig),
	)
	r.Static("/uploads", d.UploadDir) // Serve uploaded images

	api := r.Group("/api")
	api.GET("/health", HealthHandler(d.Store)) // Liveness and store reachability

	requireAuth := middleware.JWTAuthMiddleware(d.Auth)

	// Auth routes (rate limited per client IP)
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(middleware.NewRateLimiter(d.AuthRatePerMin)))
	authGroup.POST("/register", RegisterHandler(d.Auth))        // Registration endpoint
	authGroup.POST("/login", LoginHandler(d.Auth))              // Login endpoint
	authGroup.POST("/wallet-nonce", WalletNonceHandler(d.Auth)) // Wallet challenge endpoint
	authGroup.POST("/wallet-login", WalletLoginHandler(d.Auth)) // Wallet login endpoint

	// NFT routes
	nftGroup := api.Group("/nft")
	nftGroup.GET("", ListNFTsHandler(d.Market))                             // Catalog endpoint
	nftGroup.GET("/:id", GetNFTHandler(d.Market))                           // Detail endpoint
	nftGroup.GET("/user/:userId", UserNFTsHandler(d.Market))                // Created or owned by a user
	nftGroup.POST("", requireAuth, CreateNFTHandler(d.Market, d.UploadDir)) // Create endpoint
	nftGroup.PUT("/:id", requireAuth, UpdateNFTHandler(d.Market))           // Update endpoint (creator only)
	nftGroup.DELETE("/:id", requireAuth, DeleteNFTHandler(d.Market))        // Delete endpoint (creator only)
	nftGroup.POST("/:id/buy", requireAuth, BuyNFTHandler(d.Market))         // Purchase endpoint

	// User routes
	userGroup := api.Group("/user")
	userGroup.GET("/profile/:userId", GetProfileHandler(d.Profiles))             // Public profile endpoint
	userGroup.PUT("/profile", requireAuth, UpdateProfileHandler(d.Profiles))     // Profile edit endpoint
	userGroup.GET("/transactions", requireAuth, TransactionsHandler(d.Profiles)) // Purchase history endpoint

	return r
}

// HealthHandler reports whether the API and its store are up
func HealthHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "ERROR", "message": "Database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "NFT Marketplace API is running"})
	}
}

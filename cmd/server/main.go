package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vaultworks/mythicalvault/internal/admin"
	"github.com/vaultworks/mythicalvault/internal/alerts"
	"github.com/vaultworks/mythicalvault/internal/auth"
	"github.com/vaultworks/mythicalvault/internal/db"
	"github.com/vaultworks/mythicalvault/internal/earn"
	"github.com/vaultworks/mythicalvault/internal/ledger"
	"github.com/vaultworks/mythicalvault/internal/messaging"
	mware "github.com/vaultworks/mythicalvault/internal/middleware"
	"github.com/vaultworks/mythicalvault/internal/redeem"
	"github.com/vaultworks/mythicalvault/internal/vault"
)

func main() {
	_ = godotenv.Load()

	// Init subsystems
	db.Init()
	alerts.Init()

	store := ledger.NewPGStore(db.Conn)
	auth.Init(store)
	earn.Init(store)
	redeem.Init(store)
	admin.Init(store)
	vault.Init(os.Getenv("UPLOADS_DIR"))

	e := echo.New()
	e.HideBanner = true

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "mythicalvault"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	// Uploaded media is served directly from disk
	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	e.Static("/uploads", uploadsDir)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)

	api.GET("/vault/media", vault.List)
	api.POST("/vault/media", vault.Upload)
	api.POST("/vault/media/tags", vault.SuggestTags)
	api.DELETE("/vault/media/:id", vault.Delete)

	api.GET("/earn/ad/next", earn.NextAd)
	api.POST("/earn/ad/complete", earn.CompleteAd)
	api.POST("/earn/link/complete", earn.CompleteLink)

	api.POST("/redeem", redeem.Create)
	api.GET("/redeem/requests", redeem.MyRequests)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/requests", admin.ListRequests)
	adminGroup.POST("/requests/:id/process", admin.ProcessRequest)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users", admin.CreateUser)
	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/live", messaging.AdminWS)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

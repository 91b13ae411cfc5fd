package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mwalther/equipcore/internal/config"
	"github.com/mwalther/equipcore/internal/database"
	"github.com/mwalther/equipcore/internal/handlers"
	"github.com/mwalther/equipcore/internal/models"
	"github.com/mwalther/equipcore/internal/services/assets"
	"github.com/mwalther/equipcore/internal/services/printer"
	"github.com/mwalther/equipcore/internal/utils"
	ws "github.com/mwalther/equipcore/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Synchronize schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.HistoryEvent{},
		&models.Document{},
		&models.Category{},
		&models.CompanySettings{},
		&models.RefreshToken{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Best-effort provision optional columns. Missing columns are not
	// fatal; the ledger degrades its writes instead.
	prober := assets.NewProber(db.DB, time.Minute)
	if !prober.EnsureAvailable(assets.HistoryReturnColumns) {
		log.Println("⚠️ Return-detail history columns unavailable, ledger will degrade writes")
	}
	if !prober.EnsureAvailable(assets.RefreshTokenColumns) {
		log.Println("⚠️ Refresh-token audit columns unavailable")
	}

	seedAdmin(db, cfg)

	// 5. Wire the lifecycle engine
	hub := ws.NewHub()
	go hub.Run()

	svc := assets.NewService(db.DB, printer.New(), hub)
	router := handlers.NewRouter(cfg, db, svc, prober, hub)

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

// seedAdmin creates the bootstrap admin account on an empty database so
// the API is usable right after first start.
func seedAdmin(db *database.DB, cfg *config.Config) {
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	password := cfg.Admin.Password
	if password == "" {
		log.Println("⚠️ No users exist and ADMIN_PASSWORD is not set; skipping admin bootstrap")
		return
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("⚠️ Could not hash admin password: %v", err)
		return
	}

	admin := models.User{
		ID:       uuid.NewString(),
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: hashed,
		Name:     "Administrator",
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("⚠️ Could not create admin account: %v", err)
		return
	}
	log.Printf("✅ Bootstrap admin %q created", admin.Username)
}

package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draw-together/backend/api/handlers"
	"github.com/draw-together/backend/internal/archive"
	"github.com/draw-together/backend/internal/config"
	"github.com/draw-together/backend/internal/db"
	"github.com/draw-together/backend/internal/discovery"
	"github.com/draw-together/backend/internal/oplog"
	"github.com/draw-together/backend/internal/registry"
	"github.com/draw-together/backend/internal/relay"
	"github.com/draw-together/backend/internal/repository"
	"github.com/draw-together/backend/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure the data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	// Initialize the archive database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	archiveRepo := repository.NewArchiveRepository(database)

	// The archiver records operations asynchronously; live state never
	// depends on it.
	var archiver *archive.Archiver
	if cfg.ArchiveBuffer > 0 {
		archiver = archive.NewArchiver(archiveRepo, cfg.ArchiveBuffer)
		defer archiver.Close()
	}

	// Live state: session registry and per-room drawing logs
	sessionRegistry := registry.NewRegistry()
	roomLog := oplog.NewStore(cfg.RoomLogCap)

	// The relay loop owns all room mutations
	drawRelay := relay.NewRelay(sessionRegistry, roomLog, archiver)
	go drawRelay.Run()

	// Periodic sweep of idle, unoccupied rooms
	sweeper := tasks.NewRoomSweeper(roomLog, sessionRegistry, cfg.SweepSchedule, cfg.RoomRetention)
	sweeper.Start()

	// Announce the server on the local network
	var advertiser *discovery.Advertiser
	if cfg.MDNSEnable {
		if port, convErr := strconv.Atoi(cfg.Port); convErr == nil {
			advertiser, err = discovery.Advertise(cfg.MDNSInstance, port)
			if err != nil {
				log.Printf("[MDNS] Advertisement disabled: %v", err)
			}
		}
	}

	// Initialize handlers
	roomHandler := handlers.NewRoomHandler(sessionRegistry, roomLog, archiveRepo)
	wsHandler := handlers.NewWebSocketHandler(relay.NewHandler(drawRelay))

	// Initialize Gin router
	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	// Health check endpoint
	startedAt := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "ok",
			"uptime":   time.Since(startedAt).Round(time.Second).String(),
			"sessions": sessionRegistry.SessionCount(),
			"rooms":    len(roomLog.RoomIDs()),
		})
	})

	// API routes
	api := r.Group("/api")
	{
		roomHandler.RegisterRoutes(api)
	}

	// WebSocket route at the root
	wsHandler.RegisterRoutes(r.Group(""))

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		drawRelay.Stop()
		sweeper.Stop()
		if advertiser != nil {
			advertiser.Close()
		}
		if archiver != nil {
			archiver.Close()
		}
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/collab-code-editor/backend/api/handlers"
	"github.com/collab-code-editor/backend/internal/config"
	"github.com/collab-code-editor/backend/internal/db"
	"github.com/collab-code-editor/backend/internal/executor"
	"github.com/collab-code-editor/backend/internal/language"
	"github.com/collab-code-editor/backend/internal/model"
	"github.com/collab-code-editor/backend/internal/repository"
	"github.com/collab-code-editor/backend/internal/state"
	"github.com/collab-code-editor/backend/internal/ws"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure data directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.LogDir, 0755); err != nil {
		log.Fatalf("Failed to create transcript directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Executor.ScratchDir, 0755); err != nil {
		log.Fatalf("Failed to create scratch directory: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Initialize repository
	runRepo := repository.NewRunRepository(database)

	// Initialize language registry and shared session state
	registry := language.DefaultRegistry()
	store := state.NewStore(registry)

	// Initialize execution pipeline
	var runner executor.Runner
	switch cfg.Sandbox.Mode {
	case "docker":
		runner = executor.NewDockerRunner(cfg.Sandbox.Memory)
	default:
		runner = executor.HostRunner{}
	}
	pipeline := executor.NewPipeline(registry, runner, executor.Config{
		ScratchDir:        cfg.Executor.ScratchDir,
		CompileTimeout:    cfg.Executor.CompileTimeout,
		RunTimeout:        cfg.Executor.RunTimeout,
		MaxConcurrentRuns: cfg.Executor.MaxConcurrentRuns,
		TranscriptDir:     cfg.Storage.LogDir,
	})
	pipeline.SetRecorder(executor.RecorderFunc(func(ctx context.Context, rec model.RunRecord) error {
		return runRepo.Create(ctx, &rec)
	}))

	// Initialize WebSocket service
	wsService := ws.NewService(store, registry, pipeline)
	defer wsService.Close()

	// Initialize handlers
	runHandler := handlers.NewRunHandler(runRepo, registry)
	wsHandler := handlers.NewWebSocketHandler(wsService)

	// Initialize Gin router
	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	// Liveness endpoint for plain HTTP probes
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "WebSocket server is running. Connect via client application.")
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// WebSocket route
	wsHandler.RegisterRoutes(r)

	// API routes
	api := r.Group("/api")
	{
		runHandler.RegisterRoutes(api)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		wsService.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on port %d", cfg.Server.Port)
	if err := r.Run(addr); err != nil {
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

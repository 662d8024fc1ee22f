package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"daybook/internal/config"
	"daybook/internal/database"
	"daybook/internal/handlers"
	"daybook/internal/logging"
	"daybook/internal/preflight"
	"daybook/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Daybook Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, DB: %s)", cfg.Port, cfg.DatabasePath)

	// Initialize SQLite database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Run preflight checks
	checker := preflight.NewChecker(db, cfg)
	results := checker.RunAll()

	// Exit if critical checks failed
	if preflight.HasFailures(results) {
		log.Println("\n❌ Pre-flight checks failed. Please fix the issues above before starting the server.")
		os.Exit(1)
	}

	log.Println("✅ All pre-flight checks passed")

	// Initialize Prometheus metrics
	services.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	// Initialize services
	entryService := services.NewEntryService(db)
	preferenceService := services.NewPreferenceService(db)
	generationService := services.NewGenerationService(cfg)

	// Load the optional persona file and watch it for changes
	if cfg.PersonaFile != "" {
		if err := loadPersona(cfg.PersonaFile, generationService); err != nil {
			log.Printf("⚠️  Failed to load persona file: %v (using default persona)", err)
		}
		go startPersonaFileWatcher(cfg.PersonaFile, generationService)
	}

	sessionService := services.NewSessionService(entryService, preferenceService, generationService)
	if err := sessionService.Reload(context.Background()); err != nil {
		log.Fatalf("❌ Failed to load session snapshots: %v", err)
	}
	log.Println("✅ Session service initialized")

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Daybook v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second, // generation calls can take a while
		BodyLimit:    1 * 1024 * 1024,   // 1MB is plenty for diary messages
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("daybook")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// CORS configuration with environment-based origins
	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		// Default to localhost for development
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Basic rate limit on the API surface
	app.Use("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	entryHandler := handlers.NewEntryHandler(entryService)
	preferenceHandler := handlers.NewPreferenceHandler(preferenceService)
	chatHandler := handlers.NewChatHandler(sessionService)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	api.Get("/entries", entryHandler.List)
	api.Post("/entries", entryHandler.Create)
	api.Get("/preferences", preferenceHandler.List)
	api.Post("/preferences", preferenceHandler.Upsert)
	api.Post("/chat", chatHandler.Send)
	api.Get("/chat/history", chatHandler.History)

	// Start server
	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("💬 Chat endpoint: http://localhost:%s/api/chat", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// loadPersona reads the persona file into the generation service
func loadPersona(filePath string, generationService *services.GenerationService) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	generationService.SetPersona(strings.TrimSpace(string(data)))
	log.Printf("✅ Persona loaded from %s", filePath)
	return nil
}

// startPersonaFileWatcher watches the persona file for changes and hot-reloads it
func startPersonaFileWatcher(filePath string, generationService *services.GenerationService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}

	// Get absolute path for the file
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", filePath, err)
		watcher.Close()
		return
	}

	// Watch the directory containing the file (more reliable than watching the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		watcher.Close()
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", filePath)

	// Debounce timer to avoid multiple reloads for rapid file changes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Only react to changes to our specific file
			if filepath.Base(event.Name) != filename {
				continue
			}

			// React to write and create events
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				// Debounce: cancel previous timer and set a new one
				if debounceTimer != nil {
					debounceTimer.Stop()
				}

				debounceTimer = time.AfterFunc(debounceDuration, func() {
					log.Printf("🔄 Detected changes in %s, reloading persona...", filePath)

					if err := loadPersona(filePath, generationService); err != nil {
						log.Printf("❌ Failed to reload persona after file change: %v", err)
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}

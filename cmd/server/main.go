package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starquest/internal/config"
	"starquest/internal/database"
	"starquest/internal/handlers"
	"starquest/internal/repository"
	"starquest/internal/security"
	"starquest/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	seasonRepo := repository.NewSeasonRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenDuration)
	authService := service.NewAuthService(userRepo, tokens, emailService, cfg.ResetTokenTTL)
	userService := service.NewUserService(userRepo, emailService)
	catalogService := service.NewCatalogService(moduleRepo, seasonRepo)
	quizService := service.NewQuizService(catalogService)
	progressService := service.NewProgressService(progressRepo, catalogService)
	recommendationService := service.NewRecommendationService(moduleRepo, progressRepo, userRepo, cfg.RecommendationLimit)

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(tokens, userService, limiter)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	quizHandler := handlers.NewQuizHandler(quizService)
	progressHandler := handlers.NewProgressHandler(progressService, quizService, middleware)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes
	mux.HandleFunc("POST /api/users/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/users/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/users/forgot-password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("POST /api/users/reset-password", middleware.RateLimit(authHandler.ResetPassword))

	// Profile and family routes
	mux.HandleFunc("GET /api/users/me", middleware.RequireAuth(userHandler.Me))
	mux.HandleFunc("PUT /api/users/profile", middleware.RequireAuth(userHandler.UpdateProfile))
	mux.HandleFunc("DELETE /api/users/profile", middleware.RequireAuth(userHandler.DeleteProfile))
	mux.HandleFunc("GET /api/users/children", middleware.RequireAuth(userHandler.ListChildren))
	mux.HandleFunc("POST /api/users/children", middleware.RequireAuth(userHandler.CreateChild))
	mux.HandleFunc("GET /api/users/parent", middleware.RequireAuth(userHandler.GetParent))

	// Catalog routes
	mux.HandleFunc("GET /api/videos", middleware.OptionalAuth(catalogHandler.ListModules))
	mux.HandleFunc("GET /api/videos/{id}", middleware.OptionalAuth(catalogHandler.GetModule))
	mux.HandleFunc("POST /api/videos", middleware.RequireAdmin(catalogHandler.CreateModule))
	mux.HandleFunc("PUT /api/videos/{id}", middleware.RequireAdmin(catalogHandler.UpdateModule))
	mux.HandleFunc("DELETE /api/videos/{id}", middleware.RequireAdmin(catalogHandler.DeleteModule))
	mux.HandleFunc("GET /api/seasons", catalogHandler.ListSeasons)
	mux.HandleFunc("GET /api/seasons/{id}/modules", middleware.OptionalAuth(catalogHandler.ListSeasonModules))

	// Quiz routes
	mux.HandleFunc("GET /api/quizzes/module/{moduleId}", middleware.RequireAuth(quizHandler.GetQuiz))
	mux.HandleFunc("POST /api/quizzes/grade", middleware.RequireAuth(quizHandler.Grade))

	// Progress routes
	mux.HandleFunc("GET /api/progress/user/{userId}", middleware.RequireAccessTo("userId", progressHandler.ListForUser))
	mux.HandleFunc("GET /api/progress/user/{userId}/module/{moduleId}", middleware.RequireAccessTo("userId", progressHandler.GetForModule))
	mux.HandleFunc("GET /api/progress/user/{userId}/stats", middleware.RequireAccessTo("userId", progressHandler.Stats))
	mux.HandleFunc("POST /api/progress", middleware.RequireAuth(progressHandler.Upsert))
	mux.HandleFunc("POST /api/progress/quiz", middleware.RequireAuth(progressHandler.SubmitQuiz))

	// Recommendation routes
	mux.HandleFunc("GET /api/recommendations", middleware.RequireAuth(recommendationHandler.ForUser))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background reset-token cleanup
	go cleanupExpiredResetTokens(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

// cleanupExpiredResetTokens periodically clears stale password-reset tokens
func cleanupExpiredResetTokens(authService *service.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredResetTokens(); err != nil {
			log.Printf("Error cleaning up reset tokens: %v", err)
		}
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mjmgmt/internal/api"
	"mjmgmt/internal/api/handler"
	"mjmgmt/internal/app/service"
	"mjmgmt/internal/common/security"
	"mjmgmt/internal/domain/repository"
	"mjmgmt/internal/platform/cache"
	"mjmgmt/internal/platform/config"
	"mjmgmt/internal/platform/database"
	"mjmgmt/internal/platform/storage"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Token service, constructed once and injected everywhere tokens
	// are handled.
	tokens := security.NewTokenService(config.AppConfig.JWTKey, config.AppConfig.JWTExp)

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis (backs the token revocation ledger)
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Image store
	uploads, err := storage.NewUploadStore(config.AppConfig.UploadsDir)
	if err != nil {
		log.Fatalf("Could not initialize upload store: %v", err)
	}

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	listingRepo := repository.NewPgListingRepository(database.DB)
	revocations := repository.NewRedisRevocationLedger(cache.RDB)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, revocations, tokens)
	listingService := service.NewListingService(listingRepo, uploads)

	// 8. Initialize Router & HTTP Server
	authHandler := handler.NewAuthHandler(authService, config.AppConfig.IsProduction())
	listingHandler := handler.NewListingHandler(listingService, uploads)
	router := api.NewRouter(
		authHandler,
		listingHandler,
		tokens,
		userRepo,
		revocations,
		config.AppConfig.UploadsDir,
		config.AppConfig.AllowedOrigins,
	)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}

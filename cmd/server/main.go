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

	"shelfwise/internal/api"
	"shelfwise/internal/app/service"
	"shelfwise/internal/common/security"
	"shelfwise/internal/domain/repository"
	"shelfwise/internal/platform/cache"
	"shelfwise/internal/platform/config"
	"shelfwise/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	catalogRepo := repository.NewPgCatalogRepository(database.DB)
	bookRepo := repository.NewPgBookRepository(database.DB)
	authorRepo := repository.NewPgAuthorRepository(database.DB)
	categoryRepo := repository.NewPgCategoryRepository(database.DB)
	borrowRepo := repository.NewPgBorrowRepository(database.DB)
	announcementRepo := repository.NewPgAnnouncementRepository(database.DB)
	ratingRepo := repository.NewPgRatingRepository(database.DB)

	// 6. Initialize Services
	roleCache := cache.NewRoleCache(cache.RDB, config.AppConfig.RoleCacheTTL)
	authzService := service.NewAuthzService(userRepo, catalogRepo, roleCache)
	authService := service.NewAuthService(userRepo, catalogRepo)
	bookService := service.NewBookService(bookRepo, authorRepo, categoryRepo, ratingRepo)
	borrowService := service.NewBorrowService(borrowRepo, bookRepo, authzService, config.AppConfig.LoanPeriodDays)
	announcementService := service.NewAnnouncementService(announcementRepo)
	userService := service.NewUserService(userRepo, catalogRepo, authzService)
	ratingService := service.NewRatingService(ratingRepo, authzService)
	recommendService := service.NewRecommendService(ratingRepo, borrowRepo, bookRepo)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(
		authService,
		authzService,
		bookService,
		borrowService,
		announcementService,
		userService,
		ratingService,
		recommendService,
	)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
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

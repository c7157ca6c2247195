package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"conf-backend/internal/auth"
	"conf-backend/internal/config"
	"conf-backend/internal/database"
	"conf-backend/internal/db"
	"conf-backend/internal/handlers"
	healthpkg "conf-backend/internal/health"
	h "conf-backend/internal/http"
	"conf-backend/internal/live"
	"conf-backend/internal/middleware"
	"conf-backend/internal/notifications"
	"conf-backend/internal/repositories"
	"conf-backend/internal/services"
	"conf-backend/internal/token"
	"conf-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	migrate := flag.Bool("migrate", true, "Run database migrations on startup")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	if *migrate {
		migrator := database.NewMigrator(pool, migrations.FS)
		if err := migrator.RunMigrations(context.Background()); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
	}

	codec, err := token.NewCodec(cfg.Token.HMACSecret)
	if err != nil {
		log.Fatalf("Token codec: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	staffRepo := repositories.NewStaffUserRepository(pool)
	attendeeRepo := repositories.NewAttendeeRepository(pool)
	eventRepo := repositories.NewEventRepository(pool)
	qrTokenRepo := repositories.NewQRTokenRepository(pool)
	accessLogRepo := repositories.NewAccessLogRepository(pool)
	mealUsageRepo := repositories.NewMealUsageRepository(pool)

	// Services
	userService := services.NewUserService(staffRepo, jwtManager)
	attendeeService := services.NewAttendeeService(attendeeRepo, eventRepo)
	tokenService := services.NewTokenService(codec, qrTokenRepo, cfg.Token.ExpiryDays)
	scanService := services.NewScanService(codec, qrTokenRepo, attendeeRepo, mealUsageRepo, accessLogRepo)

	if cfg.SMS.APIKey != "" {
		scanService.SetNotifier(notifications.NewFast2SMSProvider(cfg.SMS.APIKey))
	} else {
		log.Println("No SMS API key configured; using mock notification provider")
		scanService.SetNotifier(notifications.NewMockProvider())
	}

	hub := live.NewHub()
	scanService.SetBroadcaster(hub)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	attendeeHandler := handlers.NewAttendeeHandler(attendeeService)
	qrHandler := handlers.NewQRHandler(tokenService, attendeeService)
	scanHandler := handlers.NewScanHandler(scanService, accessLogRepo)
	systemHandler := handlers.NewSystemHandler(healthpkg.NewChecker(pool))

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, staffRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	router := h.NewRouter(authHandler, attendeeHandler, qrHandler, scanHandler, systemHandler, hub, authMiddleware)
	handler := corsMiddleware(router)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

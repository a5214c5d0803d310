package main

import (
	"log"
	"net/http"
	"os"

	_ "novalabs/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"novalabs/internal/auth"
	"novalabs/internal/billing"
	"novalabs/internal/cache"
	"novalabs/internal/config"
	"novalabs/internal/db"
	"novalabs/internal/handler"
	"novalabs/internal/model"
	"novalabs/internal/repository"
	"novalabs/internal/router"
	"novalabs/internal/service"
)

// @title NovaLabs Platform API
// @version 1.0
// @description Web agency backend with onboarding tracking, Stripe billing webhooks and admin project management.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.OnboardingResponse{},
			&model.Project{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.OnboardingResponse{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	projectRepo := repository.NewProjectRepository(gormDB)
	onboardingRepo := repository.NewOnboardingRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	loginTokenStore := auth.NewLoginTokenStore(cacheClient)

	// Initialize billing gateway
	gateway := billing.NewStripeGateway(cfg.StripeSecretKey)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, loginTokenStore)
	billingService := service.NewBillingService(userRepo, projectRepo, gateway, loginTokenStore)
	projectService := service.NewProjectService(projectRepo, userRepo)
	subscriptionService := service.NewSubscriptionService(gateway, userRepo, projectRepo)
	userService := service.NewUserService(userRepo)
	onboardingService := service.NewOnboardingService(projectRepo, onboardingRepo, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	webhookHandler := handler.NewWebhookHandler(billingService, cfg.StripeWebhookSecret)
	projectHandler := handler.NewAdminProjectHandler(projectService)
	subscriptionHandler := handler.NewAdminSubscriptionHandler(subscriptionService)
	userHandler := handler.NewAdminUserHandler(userService)
	onboardingHandler := handler.NewOnboardingHandler(onboardingService, projectService)
	exportHandler := handler.NewExportHandler(projectService, onboardingRepo)
	seedHandler := handler.NewSeedHandler(userService, projectService, onboardingService)

	// Register routes
	router.Register(
		e,
		cfg,
		jwtService,
		authHandler,
		webhookHandler,
		projectHandler,
		subscriptionHandler,
		userHandler,
		onboardingHandler,
		exportHandler,
		seedHandler,
	)

	// Log swagger full path
	swaggerURL := "http://localhost:" + cfg.ServerPort + "/swagger/index.html"
	if cfg.SwaggerHost != "" {
		swaggerURL = cfg.SwaggerHost + "/swagger/index.html"
		if len(cfg.SwaggerHost) < 7 || cfg.SwaggerHost[:7] != "http://" {
			if len(cfg.SwaggerHost) < 8 || cfg.SwaggerHost[:8] != "https://" {
				swaggerURL = "http://" + cfg.SwaggerHost + "/swagger/index.html"
			}
		}
	}
	log.Printf("Swagger documentation available at: %s", swaggerURL)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}

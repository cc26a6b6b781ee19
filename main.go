package main

import (
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"birdid/api"
	"birdid/config"
	"birdid/database"
	"birdid/middleware"
	"birdid/models"
	"birdid/repository"
	"birdid/services"

	"gorm.io/gorm"
)

func main() {
	// Load application configuration
	config.LoadConfig()

	// Initialize database connection
	db, err := database.Init()
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}

	// Auto-migrate database schema
	runMigrations(db)

	// Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	identificationRepo := repository.NewIdentificationRepository(db)
	sightingRepo := repository.NewSightingRepository(db)
	log.Println("INFO: [Main] Repositories initialized.")

	// Initialize Services
	usageService := services.NewUsageService(userRepo)
	normalizerService := services.NewNormalizerService()
	identifyService := services.NewIdentifyService()
	sightingService := services.NewSightingService(sightingRepo, usageService)
	subscriptionService := services.NewSubscriptionService(userRepo)
	log.Println("INFO: [Main] Services initialized.")

	// Initialize API Handler with all dependencies
	apiHandler := api.NewAPIHandler(
		userRepo,
		identificationRepo,
		usageService,
		normalizerService,
		identifyService,
		sightingService,
		subscriptionService,
	)
	log.Println("INFO: [Main] API Handler initialized.")

	// Create Gin engine
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Register middlewares
	r.Use(middleware.Logger())
	r.Use(middleware.Cors())
	log.Println("INFO: [Main] Middlewares registered.")

	// Register routes
	registerRoutes(r, apiHandler)
	log.Println("INFO: [Main] Routes registered.")

	// Start the server
	serverPort := ":" + config.AppConfig.Server.Port
	if config.AppConfig.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}

func runMigrations(db *gorm.DB) {
	log.Println("INFO: [Main] Running database migrations...")
	err := db.AutoMigrate(
		&models.User{},
		&models.Identification{},
		&models.Sighting{},
	)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to auto-migrate database: %v", err)
	}
	log.Println("INFO: [Main] Database migration completed.")
}

func registerRoutes(r *gin.Engine, handler *api.APIHandler) {
	apiGroup := r.Group("/api")
	{
		// Initialization endpoint
		apiGroup.GET("/init", handler.InitHandler)

		// User provisioning
		apiGroup.POST("/users", handler.CreateUserHandler)
		apiGroup.GET("/users/:id", handler.GetUserHandler)

		// Identification endpoints
		apiGroup.POST("/identify", handler.IdentifyHandler)
		identificationGroup := apiGroup.Group("/identifications")
		{
			identificationGroup.GET("/user/:userID", handler.RecentIdentificationsHandler)
			identificationGroup.GET("/:id", handler.GetIdentificationHandler)
		}

		// Sighting endpoints
		sightingGroup := apiGroup.Group("/sightings")
		{
			sightingGroup.POST("", handler.CreateSightingHandler)
			sightingGroup.GET("/user/:userID", handler.UserSightingsHandler)
			sightingGroup.GET("/:id", handler.GetSightingHandler)
			sightingGroup.PUT("/:id", handler.UpdateSightingHandler)
			sightingGroup.DELETE("/:id", handler.DeleteSightingHandler)
		}

		// Subscription endpoints
		subscriptionGroup := apiGroup.Group("/subscription")
		{
			subscriptionGroup.POST("/checkout", handler.CreateCheckoutSessionHandler)
			subscriptionGroup.POST("/webhook", handler.StripeWebhookHandler)
			subscriptionGroup.POST("/cancel", handler.CancelSubscriptionHandler)
			subscriptionGroup.GET("/:userID", handler.SubscriptionStatusHandler)
		}
	}
}

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront/internal/handlers"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":5000")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "storefront.db")
	viper.SetDefault("JWT_SECRET", "your-secret-key")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables event publication
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	jwtSecret := viper.GetString("JWT_SECRET")

	// --- Database ---
	db, err := openDatabase(viper.GetString("DB_DRIVER"), viper.GetString("DB_DSN"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Cart{}, &models.Order{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, order events disabled")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	seedProducts(productRepo)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cartRepo, jwtSecret)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, mqClient)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService, authService)
	orderHandler := handlers.NewOrderHandler(orderService, authService)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New())

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)
	cartHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// --- Order event consumer ---
	if mqClient != nil {
		err := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Printf("Order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		})
		if err != nil {
			log.Printf("Failed to start order event consumer: %v", err)
		}
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", appPort)
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

func openDatabase(driver, dsn string) (*gorm.DB, error) {
	if driver == "postgres" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}

// seedProducts populates the catalog with sample products when it is
// empty.
func seedProducts(repo repositories.ProductRepository) {
	existing, err := repo.GetAll()
	if err != nil {
		log.Printf("Failed to check catalog before seeding: %v", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	products := []models.Product{
		{Name: "Wireless Headphones", Price: 399.99, Description: "High-quality wireless headphones with noise cancellation and 30-hour battery life.", Stock: 50, Category: "Electronics"},
		{Name: "USB-C Cable", Price: 249.99, Description: "Durable USB-C cable for fast charging and data transfer. Supports 100W charging.", Stock: 100, Category: "Accessories"},
		{Name: "Laptop Stand", Price: 349.99, Description: "Adjustable aluminum laptop stand for better ergonomics and improved desk organization.", Stock: 30, Category: "Office"},
		{Name: "Wireless Mouse", Price: 299.99, Description: "High-precision wireless mouse with ergonomic design and 18-month battery life.", Stock: 40, Category: "Electronics"},
		{Name: "Desk Lamp", Price: 329.99, Description: "LED desk lamp with adjustable brightness and color temperature. Energy efficient.", Stock: 45, Category: "Office"},
	}

	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		}
	}
	log.Printf("Seeded %d sample products", len(products))
}

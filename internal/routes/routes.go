package routes

import (
	"strings"

	"github.com/MonkyMars/gecho"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// NewApp builds the fiber app with the shared middleware stack.
func NewApp(cfg *config.Config, log *gecho.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	if !cfg.IsProduction() {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	app.Use(middleware.Metrics())

	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, svc *services.Services) {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	profileHandler := handlers.NewProfileHandler(svc.Users, svc.Addresses)
	catalogHandler := handlers.NewCatalogHandler(svc.Categories, svc.ProductImages)
	productHandler := handlers.NewProductHandler(svc.Products)
	orderHandler := handlers.NewOrderHandler(svc.Orders, svc.Payments)
	healthHandler := handlers.NewHealthHandler(svc.DB)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Public routes
	api.Get("/health", healthHandler.Check)
	api.Post("/token", authHandler.ObtainToken)
	api.Post("/token/refresh", authHandler.RefreshToken)
	api.Post("/users", profileHandler.Register)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(svc.Auth))

	users := protected.Group("/users")
	users.Get("/", profileHandler.ListUsers)
	users.Get("/:id", profileHandler.GetUser)
	users.Put("/:id", profileHandler.UpdateUser)
	users.Patch("/:id", profileHandler.UpdateUser)
	users.Delete("/:id", profileHandler.DeleteUser)

	addresses := protected.Group("/addresses")
	addresses.Get("/", profileHandler.ListAddresses)
	addresses.Post("/", profileHandler.CreateAddress)
	addresses.Get("/:id", profileHandler.GetAddress)
	addresses.Put("/:id", profileHandler.UpdateAddress)
	addresses.Patch("/:id", profileHandler.UpdateAddress)
	addresses.Delete("/:id", profileHandler.DeleteAddress)

	// Catalog routes
	categories := protected.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Post("/", catalogHandler.CreateCategory)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Put("/:id", catalogHandler.UpdateCategory)
	categories.Patch("/:id", catalogHandler.UpdateCategory)
	categories.Delete("/:id", catalogHandler.DeleteCategory)

	productHandler.RegisterProductRoutes(protected.Group("/products"))

	images := protected.Group("/product-images")
	images.Get("/", catalogHandler.ListImages)
	images.Post("/", catalogHandler.CreateImage)
	images.Get("/:id", catalogHandler.GetImage)
	images.Put("/:id", catalogHandler.UpdateImage)
	images.Patch("/:id", catalogHandler.UpdateImage)
	images.Delete("/:id", catalogHandler.DeleteImage)

	// Orders
	orders := protected.Group("/orders")
	orders.Get("/", orderHandler.ListOrders)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id", orderHandler.UpdateOrder)
	orders.Patch("/:id", orderHandler.UpdateOrder)
	orders.Delete("/:id", orderHandler.DeleteOrder)

	items := protected.Group("/order-items")
	items.Get("/", orderHandler.ListItems)
	items.Post("/", orderHandler.CreateItem)
	items.Get("/:id", orderHandler.GetItem)
	items.Put("/:id", orderHandler.UpdateItem)
	items.Patch("/:id", orderHandler.UpdateItem)
	items.Delete("/:id", orderHandler.DeleteItem)

	payments := protected.Group("/payments")
	payments.Get("/", orderHandler.ListPayments)
	payments.Post("/", orderHandler.CreatePayment)
	payments.Get("/:id", orderHandler.GetPayment)
	payments.Put("/:id", orderHandler.RejectPaymentChange)
	payments.Patch("/:id", orderHandler.RejectPaymentChange)
	payments.Delete("/:id", orderHandler.RejectPaymentChange)
}

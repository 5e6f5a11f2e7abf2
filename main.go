package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/contrib/swagger"

	"github.com/artvaultapp/ArtVault/app/controllers"
	"github.com/artvaultapp/ArtVault/app/repository"
	"github.com/artvaultapp/ArtVault/internal/pkg/analytics"
	"github.com/artvaultapp/ArtVault/internal/pkg/buzz"
	"github.com/artvaultapp/ArtVault/internal/pkg/database"
	"github.com/artvaultapp/ArtVault/internal/pkg/env"
	"github.com/artvaultapp/ArtVault/internal/pkg/middleware"
	"github.com/artvaultapp/ArtVault/internal/pkg/payment"
	"github.com/artvaultapp/ArtVault/internal/pkg/router"
	"github.com/artvaultapp/ArtVault/internal/pkg/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()

	paymentConfig := payment.NewConfigFromEnv()
	paymentService := payment.NewService(
		payment.NewRepository(database.GetDB()),
		payment.NewStripeProvider(env.GetEnv("STRIPE_SECRET_KEY", "")),
		buzz.NewClientFromEnv(),
		analytics.NewClientFromEnv(),
		payment.InvalidatorFunc(session.InvalidateUser),
		paymentConfig,
	)
	controllers.InitializePaymentController(paymentService)
	middleware.InitializeUserContext(paymentConfig.PlanMetadataKey)
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		BodyLimit: 1048576, // webhook payloads only, 1 MiB is plenty
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	// Keep the local catalog mirror fresh without waiting for webhooks.
	paymentService.StartCatalogSyncScheduler(context.Background(), 6*time.Hour)

	return app
}

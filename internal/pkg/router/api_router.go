package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/artvaultapp/ArtVault/app/controllers"
	"github.com/artvaultapp/ArtVault/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Catalog (public)
	v1.Get("/plans", controllers.HandleApiGetPlans)
	v1.Get("/buzz/packages", controllers.HandleApiGetBuzzPackages)

	// Checkout and subscription management (session auth)
	v1.Post("/payment/subscribe", middleware.RequireAPISessionAuth, controllers.HandleApiSubscribe)
	v1.Post("/payment/donate", middleware.RequireAPISessionAuth, controllers.HandleApiDonate)
	v1.Post("/payment/buzz", middleware.RequireAPISessionAuth, controllers.HandleApiBuzzPurchase)
	v1.Post("/payment/manage", middleware.RequireAPISessionAuth, controllers.HandleApiManageBilling)
	v1.Get("/payment/subscription", middleware.RequireAPISessionAuth, controllers.HandleApiCurrentSubscription)
	v1.Post("/payment/subscription/cancel", middleware.RequireAPISessionAuth, controllers.HandleApiCancelSubscription)

	// Administration
	v1.Post("/catalog/sync", middleware.RequireAPISessionAuth, controllers.HandleApiCatalogSync)
	v1.Get("/webhooks/stats", middleware.RequireAPISessionAuth, controllers.HandleApiWebhookStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

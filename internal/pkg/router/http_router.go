package router

import (
	"github.com/artvaultapp/ArtVault/app/controllers"
	"github.com/artvaultapp/ArtVault/internal/pkg/middleware"
	"github.com/artvaultapp/ArtVault/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Post("/login", controllers.HandleAuthLogin)
	app.Post("/logout", controllers.HandleAuthLogout)

	// Provider webhook endpoint; authenticated by signature, not session.
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)

	// Browser return page after provider-hosted checkout.
	app.Get("/payment/success", middleware.RequireAuth, controllers.HandleCheckoutSuccess)
}

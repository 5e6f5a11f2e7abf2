package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/artvaultapp/ArtVault/internal/pkg/usercontext"
)

// HandleApiGetPlans lists the membership plans shown on the pricing page.
func HandleApiGetPlans(c *fiber.Ctx) error {
	plans, err := paymentService.GetPlans()
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleApiGetBuzzPackages lists purchasable buzz credit packs.
func HandleApiGetBuzzPackages(c *fiber.Ctx) error {
	packages, err := paymentService.GetBuzzPackages()
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"packages": packages})
}

// HandleApiCatalogSync triggers a full catalog mirror refresh. Admin only.
func HandleApiCatalogSync(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := paymentService.SyncCatalog(ctx); err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

package controllers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/artvaultapp/ArtVault/internal/pkg/payment"
	"github.com/artvaultapp/ArtVault/internal/pkg/usercontext"
)

var (
	paymentService   *payment.Service
	paymentValidator = validator.New()
)

// InitializePaymentController wires the billing service used by the payment
// and catalog handlers.
func InitializePaymentController(svc *payment.Service) {
	paymentService = svc
}

const paymentRequestTimeout = 15 * time.Second

type subscribeRequest struct {
	PriceID    string `json:"priceId" validate:"required"`
	SuccessURL string `json:"successUrl" validate:"omitempty,url"`
	CancelURL  string `json:"cancelUrl" validate:"omitempty,url"`
}

type donateRequest struct {
	ReturnURL string `json:"returnUrl" validate:"omitempty,url"`
}

type buzzPurchaseRequest struct {
	PriceID      string `json:"priceId" validate:"required"`
	ReturnURL    string `json:"returnUrl" validate:"omitempty,url"`
	CustomAmount int64  `json:"customAmount" validate:"omitempty,gt=0"`
}

// HandleApiSubscribe starts a membership checkout for the logged-in user.
func HandleApiSubscribe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	if err := paymentValidator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), paymentRequestTimeout)
	defer cancel()

	result, err := paymentService.CreateSubscribeSession(ctx, payment.SubscribeSessionInput{
		PriceID:    req.PriceID,
		User:       payment.CustomerInput{UserID: userCtx.UserID},
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(result)
}

// HandleApiDonate starts a one-time donation checkout.
func HandleApiDonate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req donateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	if err := paymentValidator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), paymentRequestTimeout)
	defer cancel()

	result, err := paymentService.CreateDonateSession(ctx, payment.DonateSessionInput{
		User:      payment.CustomerInput{UserID: userCtx.UserID},
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(result)
}

// HandleApiBuzzPurchase starts a buzz credit-pack checkout.
func HandleApiBuzzPurchase(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req buzzPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	if err := paymentValidator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), paymentRequestTimeout)
	defer cancel()

	result, err := paymentService.CreateBuzzSession(ctx, payment.BuzzSessionInput{
		User:         payment.CustomerInput{UserID: userCtx.UserID},
		ReturnURL:    req.ReturnURL,
		PriceID:      req.PriceID,
		CustomAmount: req.CustomAmount,
	})
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(result)
}

// HandleApiManageBilling opens the provider billing portal for the user.
func HandleApiManageBilling(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), paymentRequestTimeout)
	defer cancel()

	url, err := paymentService.CreateManageSession(ctx, userCtx.UserID)
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleApiCurrentSubscription returns the user's mirrored subscription.
func HandleApiCurrentSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	sub, err := paymentService.GetUserSubscription(userCtx.UserID)
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(sub)
}

// HandleApiCancelSubscription cancels the user's subscription at the
// provider; the local mirror follows via webhook.
func HandleApiCancelSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), paymentRequestTimeout)
	defer cancel()

	if err := paymentService.CancelSubscription(ctx, userCtx.UserID); err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleCheckoutSuccess is the browser return page after a provider-hosted
// checkout. The authoritative state change arrives via webhook; this page
// only confirms to the user.
func HandleCheckoutSuccess(c *fiber.Ctx) error {
	target := "/user/account"
	message := "Payment successful. Your account will update shortly."
	switch c.Query("type") {
	case "donation":
		target = "/"
		message = "Thank you for your donation!"
	case "buzz":
		message = "Payment successful. Your Buzz will be credited shortly."
	}
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": message}).Redirect(target)
}

func paymentErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case payment.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	case payment.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
}

package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/artvaultapp/ArtVault/internal/pkg/env"
	"github.com/artvaultapp/ArtVault/internal/pkg/metrics/counter"
	"github.com/artvaultapp/ArtVault/internal/pkg/payment"
	"github.com/artvaultapp/ArtVault/internal/pkg/usercontext"
)

// HandleStripeWebhook receives billing-provider events. Every delivery is
// recorded before processing; replays of a successfully handled event id
// are acknowledged without reprocessing, while redeliveries after a failed
// attempt run again. A non-2xx response asks the provider to redeliver, so
// only transient failures return 5xx.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	event, verr := webhook.ConstructEvent(rawBody, signature, secret)
	signatureValid := verr == nil

	eventID := event.ID
	eventType := string(event.Type)
	if !signatureValid {
		// Keep id/type for the audit row even when the signature fails.
		var probe struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		_ = json.Unmarshal(rawBody, &probe)
		eventID = probe.ID
		eventType = probe.Type
	}

	storedID, created, process, err := paymentService.RecordWebhookEvent(payment.WebhookEventInput{
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !process {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if created {
		_ = counter.AddWebhookEvent(eventType)
	}
	if !signatureValid {
		_ = paymentService.MarkWebhookProcessed(storedID, "invalid webhook signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handled, procErr := dispatchStripeEvent(ctx, eventType, event.Created, event.Data.Raw)

	switch {
	case procErr == nil:
		_ = paymentService.MarkWebhookProcessed(storedID, "")
		if !handled {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	case payment.IsNotFound(procErr) || payment.IsValidation(procErr):
		// Permanent for this payload; redelivery cannot fix it.
		_ = paymentService.MarkWebhookProcessed(storedID, procErr.Error())
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	default:
		_ = paymentService.MarkWebhookProcessed(storedID, procErr.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_processing_failed"})
	}
}

// HandleApiWebhookStats reports per-event-type delivery counters. Admin only.
func HandleApiWebhookStats(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	counts, err := counter.WebhookEventCounts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"events": counts})
}

// dispatchStripeEvent routes a verified event payload to its handler. It
// reports false for event types this service does not act on.
func dispatchStripeEvent(ctx context.Context, eventType string, createdAt int64, raw json.RawMessage) (bool, error) {
	switch eventType {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub payment.SubscriptionObject
		if err := json.Unmarshal(raw, &sub); err != nil {
			return true, err
		}
		return true, paymentService.UpsertSubscription(ctx, sub, time.Unix(createdAt, 0), eventType)

	case "checkout.session.completed":
		var session payment.CheckoutSessionObject
		if err := json.Unmarshal(raw, &session); err != nil {
			return true, err
		}
		return true, paymentService.ProcessCheckoutCompleted(ctx, session.ID, session.Customer)

	case "invoice.paid":
		var invoice payment.InvoiceObject
		if err := json.Unmarshal(raw, &invoice); err != nil {
			return true, err
		}
		return true, paymentService.ProcessInvoicePaid(ctx, invoice)

	case "product.created", "product.updated":
		var product payment.CatalogProduct
		if err := json.Unmarshal(raw, &product); err != nil {
			return true, err
		}
		return true, paymentService.UpsertProductRecord(product)

	case "price.created", "price.updated":
		var price payment.CatalogPrice
		if err := json.Unmarshal(raw, &price); err != nil {
			return true, err
		}
		return true, paymentService.UpsertPriceRecord(price)

	default:
		return false, nil
	}
}

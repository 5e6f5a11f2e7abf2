package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artvaultapp/ArtVault/app/models"
)

func TestEnsureCustomerBindsOnce(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "")
	env.provider.nextCustomerID = "cus_created"

	id, err := env.svc.EnsureCustomer(context.Background(), CustomerInput{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "cus_created", id)
	assert.Equal(t, []string{"a@example.com"}, env.provider.createdEmails)
	assert.Equal(t, []uint{1}, env.invalidator.invalidated)

	// Second call returns the stored binding without a provider call.
	id, err = env.svc.EnsureCustomer(context.Background(), CustomerInput{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "cus_created", id)
	assert.Len(t, env.provider.createdEmails, 1)
}

func TestEnsureCustomerRequiresEmail(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "", "")

	_, err := env.svc.EnsureCustomer(context.Background(), CustomerInput{UserID: 1})
	assert.True(t, IsValidation(err))
}

func TestCreateSubscribeSessionShortCircuitsToPortal(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")
	env.provider.subscriptions["cus_1"] = []SubscriptionSummary{
		{ID: "sub_old", Status: models.SubscriptionStatusPastDue},
	}

	result, err := env.svc.CreateSubscribeSession(context.Background(), SubscribeSessionInput{
		PriceID: "price_plan",
		User:    CustomerInput{UserID: 1},
	})
	require.NoError(t, err)
	assert.Nil(t, result.SessionID)
	assert.Equal(t, env.provider.portalURL, result.URL)
	assert.Empty(t, env.provider.checkoutParams)
	assert.Equal(t, []uint{1}, env.invalidator.invalidated)
}

func TestCreateSubscribeSessionIgnoresCanceledSubscriptions(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")
	env.provider.subscriptions["cus_1"] = []SubscriptionSummary{
		{ID: "sub_old", Status: models.SubscriptionStatusCanceled},
	}

	result, err := env.svc.CreateSubscribeSession(context.Background(), SubscribeSessionInput{
		PriceID: "price_plan",
		User:    CustomerInput{UserID: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, result.SessionID)
	assert.Equal(t, "cs_test", *result.SessionID)

	require.Len(t, env.provider.checkoutParams, 1)
	params := env.provider.checkoutParams[0]
	assert.Equal(t, CheckoutModeSubscription, params.Mode)
	assert.True(t, params.AllowPromotionCodes)
	require.Len(t, params.Items, 1)
	assert.Equal(t, "price_plan", params.Items[0].PriceID)
	assert.Equal(t, int64(1), params.Items[0].Quantity)
	// Success URL carries the last 8 characters of the customer id.
	assert.True(t, strings.HasSuffix(params.SuccessURL, "cid="+shortCustomerRef("cus_1")))
	assert.Equal(t, "https://artvault.test/pricing?canceled=true", params.CancelURL)
}

func TestCreateSubscribeSessionRequiresPrice(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.CreateSubscribeSession(context.Background(), SubscribeSessionInput{
		User: CustomerInput{UserID: 1},
	})
	assert.True(t, IsValidation(err))
}

func TestCreateDonateSession(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")

	result, err := env.svc.CreateDonateSession(context.Background(), DonateSessionInput{
		User:      CustomerInput{UserID: 1},
		ReturnURL: "https://artvault.test/about",
	})
	require.NoError(t, err)
	require.NotNil(t, result.SessionID)

	require.Len(t, env.provider.checkoutParams, 1)
	params := env.provider.checkoutParams[0]
	assert.Equal(t, CheckoutModePayment, params.Mode)
	assert.Equal(t, "donate", params.SubmitType)
	require.Len(t, params.Items, 1)
	assert.Equal(t, "price_donate", params.Items[0].PriceID)
	assert.Contains(t, params.SuccessURL, "type=donation")
}

func TestCreateDonateSessionUnconfigured(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")
	cfg := testConfig()
	cfg.DonatePriceID = ""
	env.svc = NewService(env.repo, env.provider, env.ledger, env.tracker, env.invalidator, cfg)

	_, err := env.svc.CreateDonateSession(context.Background(), DonateSessionInput{User: CustomerInput{UserID: 1}})
	assert.True(t, IsValidation(err))
}

func TestCreateBuzzSessionCatalogPrice(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")
	amount := int64(999)
	env.repo.prices["price_buzz"] = &models.Price{
		ID: "price_buzz", ProductID: "prod_buzz", Active: true,
		Currency: "usd", Type: models.PriceTypeOneTime, UnitAmount: &amount,
	}

	result, err := env.svc.CreateBuzzSession(context.Background(), BuzzSessionInput{
		User:    CustomerInput{UserID: 1},
		PriceID: "price_buzz",
	})
	require.NoError(t, err)
	require.NotNil(t, result.SessionID)

	params := env.provider.checkoutParams[0]
	assert.Equal(t, CheckoutModePayment, params.Mode)
	assert.Equal(t, "price_buzz", params.Items[0].PriceID)
}

func TestCreateBuzzSessionRecurringPriceUsesSubscriptionMode(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")
	env.repo.prices["price_buzz_monthly"] = &models.Price{
		ID: "price_buzz_monthly", ProductID: "prod_buzz", Active: true,
		Currency: "usd", Type: models.PriceTypeRecurring,
	}

	_, err := env.svc.CreateBuzzSession(context.Background(), BuzzSessionInput{
		User:    CustomerInput{UserID: 1},
		PriceID: "price_buzz_monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, CheckoutModeSubscription, env.provider.checkoutParams[0].Mode)
}

func TestCreateBuzzSessionCustomAmount(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")
	env.repo.prices["price_buzz"] = &models.Price{
		ID: "price_buzz", ProductID: "prod_buzz", Active: true,
		Currency: "usd", Type: models.PriceTypeOneTime,
	}

	_, err := env.svc.CreateBuzzSession(context.Background(), BuzzSessionInput{
		User:         CustomerInput{UserID: 1},
		PriceID:      "price_buzz",
		CustomAmount: 25,
	})
	require.NoError(t, err)

	item := env.provider.checkoutParams[0].Items[0]
	assert.Empty(t, item.PriceID)
	assert.Equal(t, int64(2500), item.UnitAmount)
	assert.Equal(t, "usd", item.Currency)
	assert.Equal(t, "prod_buzz", item.ProductID)
}

func TestCreateBuzzSessionUnknownPrice(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")

	_, err := env.svc.CreateBuzzSession(context.Background(), BuzzSessionInput{
		User:    CustomerInput{UserID: 1},
		PriceID: "price_missing",
	})
	assert.True(t, IsNotFound(err))
}

func TestCreateManageSessionRequiresCustomer(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "")

	_, err := env.svc.CreateManageSession(context.Background(), 1)
	assert.True(t, IsNotFound(err))
}

func TestCancelSubscription(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")
	env.repo.subs["sub_A"] = &models.CustomerSubscription{ID: "sub_A", UserID: 1, Status: models.SubscriptionStatusActive}

	require.NoError(t, env.svc.CancelSubscription(context.Background(), 1))
	assert.Equal(t, []string{"sub_A"}, env.provider.canceled)
}

func TestCancelSubscriptionWithoutRecordIsNoop(t *testing.T) {
	env := newTestEnv()
	env.repo.addUser(1, "a@example.com", "cus_1")

	require.NoError(t, env.svc.CancelSubscription(context.Background(), 1))
	assert.Empty(t, env.provider.canceled)
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	env := newTestEnv()

	id, created, process, err := env.svc.RecordWebhookEvent(WebhookEventInput{
		ProviderEventID: "evt_1", EventType: "invoice.paid", PayloadJSON: "{}", SignatureValid: true,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, process)
	assert.Equal(t, "evt_1", id)
	require.NoError(t, env.svc.MarkWebhookProcessed(id, ""))

	_, created, process, err = env.svc.RecordWebhookEvent(WebhookEventInput{
		ProviderEventID: "evt_1", EventType: "invoice.paid", PayloadJSON: "{}", SignatureValid: true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, process)
}

func TestRecordWebhookEventRedeliversAfterFailure(t *testing.T) {
	env := newTestEnv()

	id, _, _, err := env.svc.RecordWebhookEvent(WebhookEventInput{
		ProviderEventID: "evt_1", EventType: "checkout.session.completed", PayloadJSON: "{}", SignatureValid: true,
	})
	require.NoError(t, err)
	require.NoError(t, env.svc.MarkWebhookProcessed(id, "ledger unavailable"))

	// The provider redelivers after our 5xx; the failed attempt must not
	// count as handled.
	_, created, process, err := env.svc.RecordWebhookEvent(WebhookEventInput{
		ProviderEventID: "evt_1", EventType: "checkout.session.completed", PayloadJSON: "{}", SignatureValid: true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, process)

	require.NoError(t, env.svc.MarkWebhookProcessed(id, ""))
	_, _, process, err = env.svc.RecordWebhookEvent(WebhookEventInput{
		ProviderEventID: "evt_1", EventType: "checkout.session.completed", PayloadJSON: "{}", SignatureValid: true,
	})
	require.NoError(t, err)
	assert.False(t, process)
}

func TestRecordWebhookEventHashFallback(t *testing.T) {
	env := newTestEnv()

	id1, created, _, err := env.svc.RecordWebhookEvent(WebhookEventInput{PayloadJSON: `{"a":1}`})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, strings.HasPrefix(id1, "payload:"))
	require.NoError(t, env.svc.MarkWebhookProcessed(id1, ""))

	// The same payload without an id collapses to the same key.
	id2, created, process, err := env.svc.RecordWebhookEvent(WebhookEventInput{PayloadJSON: `{"a":1}`})
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, process)
	assert.Equal(t, id1, id2)
}

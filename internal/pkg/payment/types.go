package payment

import (
	"strings"

	"github.com/artvaultapp/ArtVault/internal/pkg/env"
)

// Config carries all provider and redirect settings explicitly so that no
// component depends on hidden module-level state.
type Config struct {
	// BaseURL is the public origin used for default redirect URLs.
	BaseURL string
	// DonatePriceID is the fixed catalog price charged by donate sessions.
	DonatePriceID string
	// PlanMetadataKey is the product metadata key marking membership plans.
	PlanMetadataKey string
	// BuzzProductTier is the product metadata tier value marking the buzz
	// credit-pack product.
	BuzzProductTier string
}

// NewConfigFromEnv builds the payment configuration from environment values.
func NewConfigFromEnv() Config {
	return Config{
		BaseURL:         strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"),
		DonatePriceID:   strings.TrimSpace(env.GetEnv("STRIPE_DONATE_PRICE_ID", "")),
		PlanMetadataKey: strings.TrimSpace(env.GetEnv("STRIPE_METADATA_KEY", "artvaultTier")),
		BuzzProductTier: strings.TrimSpace(env.GetEnv("BUZZ_PRODUCT_TIER", "buzz")),
	}
}

// CustomerInput identifies the local user a billing customer is created for.
type CustomerInput struct {
	UserID uint
	Email  string
}

// SessionResult is the outcome of a checkout-session request. SessionID is
// nil when no new checkout was needed (the caller is sent to the billing
// portal instead).
type SessionResult struct {
	SessionID *string `json:"sessionId"`
	URL       string  `json:"url"`
}

// SubscribeSessionInput describes a membership checkout request.
type SubscribeSessionInput struct {
	PriceID    string
	User       CustomerInput
	CustomerID string // optional pre-resolved billing identity
	SuccessURL string
	CancelURL  string
}

// DonateSessionInput describes a one-time donation checkout request.
type DonateSessionInput struct {
	User       CustomerInput
	CustomerID string
	ReturnURL  string
}

// BuzzSessionInput describes a buzz credit-pack checkout request. Either
// PriceID references a catalog price, or CustomAmount carries a
// caller-chosen amount in major currency units charged against the catalog
// price's product and currency.
type BuzzSessionInput struct {
	User         CustomerInput
	CustomerID   string
	ReturnURL    string
	PriceID      string
	CustomAmount int64
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

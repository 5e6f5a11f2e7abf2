package payment

import (
	"context"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Wire shapes of provider objects as delivered in webhook payloads. Provider
// objects are taken verbatim; only the fields this core reads are declared.

// SubscriptionObject is a provider subscription as carried by a
// subscription-change event.
type SubscriptionObject struct {
	ID                 string               `json:"id"`
	Customer           string               `json:"customer"`
	Status             string               `json:"status"`
	Metadata           map[string]string    `json:"metadata"`
	CancelAtPeriodEnd  bool                 `json:"cancel_at_period_end"`
	CancelAt           int64                `json:"cancel_at"`
	CanceledAt         int64                `json:"canceled_at"`
	CurrentPeriodStart int64                `json:"current_period_start"`
	CurrentPeriodEnd   int64                `json:"current_period_end"`
	Created            int64                `json:"created"`
	EndedAt            int64                `json:"ended_at"`
	Items              SubscriptionItemList `json:"items"`
}

type SubscriptionItemList struct {
	Data []SubscriptionItem `json:"data"`
}

type SubscriptionItem struct {
	Price LineItemPrice `json:"price"`
}

// LineItemPrice is the price reference embedded in subscription and invoice
// line items.
type LineItemPrice struct {
	ID       string            `json:"id"`
	Product  string            `json:"product"`
	Metadata map[string]string `json:"metadata"`
}

// InvoiceObject is a provider invoice as carried by an invoice event.
type InvoiceObject struct {
	Customer      string          `json:"customer"`
	CustomerEmail string          `json:"customer_email"`
	Status        string          `json:"status"`
	Lines         InvoiceLineList `json:"lines"`
}

type InvoiceLineList struct {
	Data []InvoiceLine `json:"data"`
}

type InvoiceLine struct {
	Price *LineItemPrice `json:"price"`
}

// CheckoutSessionObject is the slim checkout-session payload carried by a
// checkout-completion event.
type CheckoutSessionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// CatalogProduct mirrors a provider product, both from list calls and from
// product webhook payloads.
type CatalogProduct struct {
	ID             string            `json:"id"`
	Active         bool              `json:"active"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Metadata       map[string]string `json:"metadata"`
	DefaultPriceID string            `json:"default_price"`
}

// CatalogPrice mirrors a provider price, both from list calls and from price
// webhook payloads. A zero UnitAmount means pay-what-you-want; a nil
// Recurring means one-time.
type CatalogPrice struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"product"`
	Active     bool              `json:"active"`
	Currency   string            `json:"currency"`
	Nickname   string            `json:"nickname"`
	Type       string            `json:"type"`
	UnitAmount int64             `json:"unit_amount"`
	Recurring  *PriceRecurrence  `json:"recurring"`
	Metadata   map[string]string `json:"metadata"`
}

type PriceRecurrence struct {
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
}

// SubscriptionSummary is the slice of a provider subscription needed to
// decide whether a customer already subscribes.
type SubscriptionSummary struct {
	ID     string
	Status string
}

// ProviderSession is a newly created provider-hosted checkout session.
type ProviderSession struct {
	ID  string
	URL string
}

// Checkout modes accepted by the provider.
const (
	CheckoutModeSubscription = "subscription"
	CheckoutModePayment      = "payment"
)

// CheckoutItemParams describes one checkout line item: either a catalog
// price reference, or an ad-hoc amount (minor units) against a product and
// currency.
type CheckoutItemParams struct {
	PriceID    string
	UnitAmount int64
	Currency   string
	ProductID  string
	Quantity   int64
}

// CheckoutParams describes a provider-hosted checkout session.
type CheckoutParams struct {
	CustomerID          string
	Mode                string
	SuccessURL          string
	CancelURL           string
	SubmitType          string
	AllowPromotionCodes bool
	Items               []CheckoutItemParams
}

// CheckoutLineItem is one finalized line item of a completed checkout.
type CheckoutLineItem struct {
	PriceID       string
	ProductID     string
	PriceMetadata map[string]string
}

// CheckoutDetails is the finalized state of a retrieved checkout session.
type CheckoutDetails struct {
	PaymentStatus string
	LineItems     []CheckoutLineItem
}

// Provider is the billing-provider API surface consumed by this core.
type Provider interface {
	CreateCustomer(ctx context.Context, email string) (string, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]SubscriptionSummary, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*ProviderSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutDetails, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ListPrices(ctx context.Context) ([]CatalogPrice, error)
	ListProducts(ctx context.Context) ([]CatalogProduct, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a Stripe-backed provider with its own API
// client; keys are never installed globally.
func NewStripeProvider(apiKey string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	cus, err := p.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cus.ID, nil
}

func (p *StripeProvider) ListSubscriptions(ctx context.Context, customerID string) ([]SubscriptionSummary, error) {
	params := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	var out []SubscriptionSummary
	iter := p.api.Subscriptions.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		out = append(out, SubscriptionSummary{ID: sub.ID, Status: string(sub.Status)})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*ProviderSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(in.CustomerID),
		Mode:       stripe.String(in.Mode),
		SuccessURL: stripe.String(in.SuccessURL),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	if in.CancelURL != "" {
		params.CancelURL = stripe.String(in.CancelURL)
	}
	if in.SubmitType != "" {
		params.SubmitType = stripe.String(in.SubmitType)
	}
	if in.AllowPromotionCodes {
		params.AllowPromotionCodes = stripe.Bool(true)
	}

	for _, item := range in.Items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		li := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(quantity)}
		if item.PriceID != "" {
			li.Price = stripe.String(item.PriceID)
		} else {
			li.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
				UnitAmount: stripe.Int64(item.UnitAmount),
				Currency:   stripe.String(item.Currency),
				Product:    stripe.String(item.ProductID),
			}
		}
		params.LineItems = append(params.LineItems, li)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &ProviderSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutDetails, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	details := &CheckoutDetails{PaymentStatus: string(sess.PaymentStatus)}
	if sess.LineItems != nil {
		for _, li := range sess.LineItems.Data {
			item := CheckoutLineItem{}
			if li.Price != nil {
				item.PriceID = li.Price.ID
				item.PriceMetadata = li.Price.Metadata
				if li.Price.Product != nil {
					item.ProductID = li.Price.Product.ID
				}
			}
			details.LineItems = append(details.LineItems, item)
		}
	}
	return details, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

func (p *StripeProvider) ListPrices(ctx context.Context) ([]CatalogPrice, error) {
	params := &stripe.PriceListParams{}
	params.Context = ctx

	var out []CatalogPrice
	iter := p.api.Prices.List(params)
	for iter.Next() {
		price := iter.Price()
		cp := CatalogPrice{
			ID:         price.ID,
			Active:     price.Active,
			Currency:   string(price.Currency),
			Nickname:   price.Nickname,
			Type:       string(price.Type),
			UnitAmount: price.UnitAmount,
			Metadata:   price.Metadata,
		}
		if price.Product != nil {
			cp.ProductID = price.Product.ID
		}
		if price.Recurring != nil {
			cp.Recurring = &PriceRecurrence{
				Interval:      string(price.Recurring.Interval),
				IntervalCount: price.Recurring.IntervalCount,
			}
		}
		out = append(out, cp)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *StripeProvider) ListProducts(ctx context.Context) ([]CatalogProduct, error) {
	params := &stripe.ProductListParams{}
	params.Context = ctx

	var out []CatalogProduct
	iter := p.api.Products.List(params)
	for iter.Next() {
		product := iter.Product()
		cp := CatalogProduct{
			ID:          product.ID,
			Active:      product.Active,
			Name:        product.Name,
			Description: product.Description,
			Metadata:    product.Metadata,
		}
		if product.DefaultPrice != nil {
			cp.DefaultPriceID = product.DefaultPrice.ID
		}
		out = append(out, cp)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	_, err := p.api.Subscriptions.Cancel(subscriptionID, params)
	return err
}

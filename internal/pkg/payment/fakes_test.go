package payment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/artvaultapp/ArtVault/app/models"
	"github.com/artvaultapp/ArtVault/internal/pkg/analytics"
	"github.com/artvaultapp/ArtVault/internal/pkg/buzz"
)

// In-memory collaborators for service tests.

type fakeRepo struct {
	users     map[uint]*models.User
	subs      map[string]*models.CustomerSubscription
	products  map[string]*models.Product
	prices    map[string]*models.Price
	purchases []models.Purchase
	events    map[string]*models.WebhookEvent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[uint]*models.User),
		subs:     make(map[string]*models.CustomerSubscription),
		products: make(map[string]*models.Product),
		prices:   make(map[string]*models.Price),
		events:   make(map[string]*models.WebhookEvent),
	}
}

func (r *fakeRepo) addUser(id uint, email, customerID string) *models.User {
	u := &models.User{ID: id, Name: fmt.Sprintf("user%d", id), Email: email}
	if customerID != "" {
		cid := customerID
		u.CustomerID = &cid
	}
	r.users[id] = u
	return u
}

func (r *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, notFoundf("user %d", id)
	}
	return u, nil
}

func (r *fakeRepo) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, notFoundf("user by email")
}

func (r *fakeRepo) GetUserByCustomerID(customerID string) (*models.User, error) {
	for _, u := range r.users {
		if u.CustomerID != nil && *u.CustomerID == customerID {
			return u, nil
		}
	}
	return nil, notFoundf("user by customer %s", customerID)
}

func (r *fakeRepo) SetUserCustomerID(userID uint, customerID string) error {
	u, ok := r.users[userID]
	if !ok {
		return notFoundf("user %d", userID)
	}
	cid := customerID
	u.CustomerID = &cid
	return nil
}

func (r *fakeRepo) GetSubscription(id string) (*models.CustomerSubscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, notFoundf("subscription %s", id)
	}
	return s, nil
}

func (r *fakeRepo) GetSubscriptionByUser(userID uint) (*models.CustomerSubscription, error) {
	for _, s := range r.subs {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, notFoundf("subscription for user %d", userID)
}

func (r *fakeRepo) ReplaceSubscription(sub *models.CustomerSubscription, supersededID string, insertOnly bool) error {
	if supersededID != "" && supersededID != sub.ID {
		delete(r.subs, supersededID)
	}
	if insertOnly {
		if _, exists := r.subs[sub.ID]; exists {
			return fmt.Errorf("duplicate key %s", sub.ID)
		}
	}
	copied := *sub
	r.subs[sub.ID] = &copied
	if u, ok := r.users[sub.UserID]; ok {
		id := sub.ID
		u.SubscriptionID = &id
	}
	return nil
}

func (r *fakeRepo) GetProduct(id string) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, notFoundf("product %s", id)
	}
	return p, nil
}

func (r *fakeRepo) GetPrice(id string) (*models.Price, error) {
	p, ok := r.prices[id]
	if !ok {
		return nil, notFoundf("price %s", id)
	}
	return p, nil
}

func (r *fakeRepo) UpsertProduct(product *models.Product) error {
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *fakeRepo) UpsertPrice(price *models.Price) error {
	copied := *price
	r.prices[price.ID] = &copied
	return nil
}

func (r *fakeRepo) ListPlanCandidateProducts() ([]models.Product, error) {
	var out []models.Product
	for _, product := range r.products {
		if !product.Active {
			continue
		}
		var activePrices []models.Price
		hasRecurring := false
		for _, price := range r.prices {
			if price.ProductID != product.ID || !price.Active {
				continue
			}
			activePrices = append(activePrices, *price)
			if price.IsRecurring() {
				hasRecurring = true
			}
		}
		if !hasRecurring {
			continue
		}
		copied := *product
		copied.Prices = activePrices
		out = append(out, copied)
	}
	return out, nil
}

func (r *fakeRepo) GetProductByTier(tier string) (*models.Product, error) {
	for _, product := range r.products {
		if product.Active && product.Metadata["tier"] == tier {
			return product, nil
		}
	}
	return nil, notFoundf("product with tier %s", tier)
}

func (r *fakeRepo) ListActivePricesByProduct(productID string) ([]models.Price, error) {
	var out []models.Price
	for _, price := range r.prices {
		if price.ProductID == productID && price.Active {
			out = append(out, *price)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].UnitAmount, out[j].UnitAmount
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	return out, nil
}

func (r *fakeRepo) CreatePurchases(purchases []models.Purchase) error {
	r.purchases = append(r.purchases, purchases...)
	return nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, error) {
	if _, exists := r.events[event.ProviderEventID]; exists {
		return false, nil
	}
	copied := *event
	r.events[event.ProviderEventID] = &copied
	return true, nil
}

func (r *fakeRepo) GetWebhookEvent(providerEventID string) (*models.WebhookEvent, error) {
	e, ok := r.events[providerEventID]
	if !ok {
		return nil, notFoundf("webhook event %s", providerEventID)
	}
	return e, nil
}

func (r *fakeRepo) MarkWebhookProcessed(providerEventID string, processingError string) error {
	e, ok := r.events[providerEventID]
	if !ok {
		return notFoundf("webhook event %s", providerEventID)
	}
	now := time.Now()
	e.ProcessedAt = &now
	e.ProcessingError = processingError
	return nil
}

type fakeProvider struct {
	nextCustomerID  string
	createdEmails   []string
	subscriptions   map[string][]SubscriptionSummary
	checkoutParams  []CheckoutParams
	checkoutSession *ProviderSession
	portalURL       string
	portalCustomers []string
	checkouts       map[string]*CheckoutDetails
	catalogPrices   []CatalogPrice
	catalogProducts []CatalogProduct
	canceled        []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		nextCustomerID:  "cus_new",
		subscriptions:   make(map[string][]SubscriptionSummary),
		checkoutSession: &ProviderSession{ID: "cs_test", URL: "https://checkout.example/cs_test"},
		portalURL:       "https://portal.example/session",
		checkouts:       make(map[string]*CheckoutDetails),
	}
}

func (p *fakeProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	p.createdEmails = append(p.createdEmails, email)
	return p.nextCustomerID, nil
}

func (p *fakeProvider) ListSubscriptions(ctx context.Context, customerID string) ([]SubscriptionSummary, error) {
	return p.subscriptions[customerID], nil
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*ProviderSession, error) {
	p.checkoutParams = append(p.checkoutParams, params)
	return p.checkoutSession, nil
}

func (p *fakeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutDetails, error) {
	d, ok := p.checkouts[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session %s", sessionID)
	}
	return d, nil
}

func (p *fakeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	p.portalCustomers = append(p.portalCustomers, customerID)
	return p.portalURL, nil
}

func (p *fakeProvider) ListPrices(ctx context.Context) ([]CatalogPrice, error) {
	return p.catalogPrices, nil
}

func (p *fakeProvider) ListProducts(ctx context.Context) ([]CatalogProduct, error) {
	return p.catalogProducts, nil
}

func (p *fakeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	p.canceled = append(p.canceled, subscriptionID)
	return nil
}

type fakeLedger struct {
	transactions []buzz.Transaction
	err          error
}

func (l *fakeLedger) CreateTransaction(ctx context.Context, tx buzz.Transaction) error {
	if l.err != nil {
		return l.err
	}
	l.transactions = append(l.transactions, tx)
	return nil
}

type fakeTracker struct {
	events []analytics.Event
	users  []uint
}

func (t *fakeTracker) TrackEvent(ctx context.Context, userID uint, event analytics.Event) error {
	t.users = append(t.users, userID)
	t.events = append(t.events, event)
	return nil
}

type fakeInvalidator struct {
	invalidated []uint
}

func (f *fakeInvalidator) InvalidateUser(userID uint) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func testConfig() Config {
	return Config{
		BaseURL:         "https://artvault.test",
		DonatePriceID:   "price_donate",
		PlanMetadataKey: "artvaultTier",
		BuzzProductTier: "buzz",
	}
}

type testEnv struct {
	repo        *fakeRepo
	provider    *fakeProvider
	ledger      *fakeLedger
	tracker     *fakeTracker
	invalidator *fakeInvalidator
	svc         *Service
}

func newTestEnv() *testEnv {
	repo := newFakeRepo()
	provider := newFakeProvider()
	ledger := &fakeLedger{}
	tracker := &fakeTracker{}
	invalidator := &fakeInvalidator{}
	return &testEnv{
		repo:        repo,
		provider:    provider,
		ledger:      ledger,
		tracker:     tracker,
		invalidator: invalidator,
		svc:         NewService(repo, provider, ledger, tracker, invalidator, testConfig()),
	}
}

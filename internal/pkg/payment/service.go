package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/artvaultapp/ArtVault/app/models"
	"github.com/artvaultapp/ArtVault/internal/pkg/analytics"
	"github.com/artvaultapp/ArtVault/internal/pkg/buzz"
)

// LedgerClient grants buzz credits after a paid checkout.
type LedgerClient interface {
	CreateTransaction(ctx context.Context, tx buzz.Transaction) error
}

// Tracker records membership lifecycle events. Implementations must not
// fail billing flows; errors are logged and dropped by the service.
type Tracker interface {
	TrackEvent(ctx context.Context, userID uint, event analytics.Event) error
}

// SessionInvalidator flags a user's cached session state for refresh.
type SessionInvalidator interface {
	InvalidateUser(userID uint) error
}

// InvalidatorFunc adapts a plain function to SessionInvalidator.
type InvalidatorFunc func(userID uint) error

func (f InvalidatorFunc) InvalidateUser(userID uint) error {
	return f(userID)
}

// Service is the billing core: customer identity, checkout sessions,
// subscription state and catalog mirroring.
type Service struct {
	repo     Repository
	provider Provider
	ledger   LedgerClient
	tracker  Tracker
	sessions SessionInvalidator
	cfg      Config
}

func NewService(repo Repository, provider Provider, ledger LedgerClient, tracker Tracker, sessions SessionInvalidator, cfg Config) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		ledger:   ledger,
		tracker:  tracker,
		sessions: sessions,
		cfg:      cfg,
	}
}

// EnsureCustomer returns the user's billing customer id, creating and
// binding one on first use. The binding is permanent; repeated calls return
// the stored id without touching the provider.
func (s *Service) EnsureCustomer(ctx context.Context, in CustomerInput) (string, error) {
	user, err := s.repo.GetUserByID(in.UserID)
	if err != nil {
		return "", err
	}
	if user.HasCustomer() {
		return *user.CustomerID, nil
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = strings.TrimSpace(user.Email)
	}
	if email == "" {
		return "", validationf("email is required to create a customer for user %d", in.UserID)
	}

	customerID, err := s.provider.CreateCustomer(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetUserCustomerID(user.ID, customerID); err != nil {
		return "", err
	}
	s.invalidate(user.ID)

	return customerID, nil
}

// resolveCustomer prefers a caller-supplied customer id and otherwise
// ensures one exists for the user.
func (s *Service) resolveCustomer(ctx context.Context, user CustomerInput, customerID string) (string, error) {
	if strings.TrimSpace(customerID) != "" {
		return customerID, nil
	}
	return s.EnsureCustomer(ctx, user)
}

// CreateSubscribeSession starts a membership checkout. A customer who
// already holds any non-canceled provider subscription is sent to the
// billing portal instead of a second checkout.
func (s *Service) CreateSubscribeSession(ctx context.Context, in SubscribeSessionInput) (*SessionResult, error) {
	if strings.TrimSpace(in.PriceID) == "" {
		return nil, validationf("price id is required")
	}

	customerID, err := s.resolveCustomer(ctx, in.User, in.CustomerID)
	if err != nil {
		return nil, err
	}

	subs, err := s.provider.ListSubscriptions(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.Status != models.SubscriptionStatusCanceled {
			url, err := s.provider.CreatePortalSession(ctx, customerID, s.cfg.BaseURL+"/pricing")
			if err != nil {
				return nil, err
			}
			s.invalidate(in.User.UserID)
			return &SessionResult{URL: url}, nil
		}
	}

	successURL := in.SuccessURL
	if successURL == "" {
		successURL = fmt.Sprintf("%s/payment/success?cid=%s", s.cfg.BaseURL, shortCustomerRef(customerID))
	}
	cancelURL := in.CancelURL
	if cancelURL == "" {
		cancelURL = s.cfg.BaseURL + "/pricing?canceled=true"
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID:          customerID,
		Mode:                CheckoutModeSubscription,
		SuccessURL:          successURL,
		CancelURL:           cancelURL,
		AllowPromotionCodes: true,
		Items:               []CheckoutItemParams{{PriceID: in.PriceID, Quantity: 1}},
	})
	if err != nil {
		return nil, err
	}
	return &SessionResult{SessionID: &session.ID, URL: session.URL}, nil
}

// CreateDonateSession starts a one-time donation checkout against the
// configured donation price.
func (s *Service) CreateDonateSession(ctx context.Context, in DonateSessionInput) (*SessionResult, error) {
	if s.cfg.DonatePriceID == "" {
		return nil, validationf("no donation price is configured")
	}

	customerID, err := s.resolveCustomer(ctx, in.User, in.CustomerID)
	if err != nil {
		return nil, err
	}

	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = s.cfg.BaseURL
	}
	successURL := fmt.Sprintf("%s/payment/success?type=donation&cid=%s", s.cfg.BaseURL, shortCustomerRef(customerID))

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID: customerID,
		Mode:       CheckoutModePayment,
		SuccessURL: successURL,
		CancelURL:  returnURL,
		SubmitType: "donate",
		Items:      []CheckoutItemParams{{PriceID: s.cfg.DonatePriceID, Quantity: 1}},
	})
	if err != nil {
		return nil, err
	}
	return &SessionResult{SessionID: &session.ID, URL: session.URL}, nil
}

// CreateBuzzSession starts a buzz credit-pack checkout. With CustomAmount
// set the catalog price only supplies currency and product, and the charge
// is the caller's amount. The checkout mode follows the referenced price.
func (s *Service) CreateBuzzSession(ctx context.Context, in BuzzSessionInput) (*SessionResult, error) {
	if strings.TrimSpace(in.PriceID) == "" {
		return nil, validationf("price id is required")
	}
	if in.CustomAmount < 0 {
		return nil, validationf("custom amount must not be negative")
	}

	price, err := s.repo.GetPrice(in.PriceID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.resolveCustomer(ctx, in.User, in.CustomerID)
	if err != nil {
		return nil, err
	}

	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = s.cfg.BaseURL
	}
	successURL := fmt.Sprintf("%s/payment/success?type=buzz&cid=%s", s.cfg.BaseURL, shortCustomerRef(customerID))

	mode := CheckoutModePayment
	if price.IsRecurring() {
		mode = CheckoutModeSubscription
	}

	item := CheckoutItemParams{PriceID: price.ID, Quantity: 1}
	if in.CustomAmount > 0 {
		item = CheckoutItemParams{
			UnitAmount: in.CustomAmount * 100,
			Currency:   price.Currency,
			ProductID:  price.ProductID,
			Quantity:   1,
		}
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID: customerID,
		Mode:       mode,
		SuccessURL: successURL,
		CancelURL:  returnURL,
		Items:      []CheckoutItemParams{item},
	})
	if err != nil {
		return nil, err
	}
	return &SessionResult{SessionID: &session.ID, URL: session.URL}, nil
}

// CreateManageSession opens the provider-hosted billing portal for the
// user. The user must already have a bound customer identity.
func (s *Service) CreateManageSession(ctx context.Context, userID uint) (string, error) {
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	if !user.HasCustomer() {
		return "", notFoundf("no billing customer for user %d", userID)
	}
	return s.provider.CreatePortalSession(ctx, *user.CustomerID, s.cfg.BaseURL+"/user/account")
}

// GetUserSubscription returns the user's mirrored subscription row.
func (s *Service) GetUserSubscription(userID uint) (*models.CustomerSubscription, error) {
	return s.repo.GetSubscriptionByUser(userID)
}

// CancelSubscription cancels the user's provider subscription immediately.
// The local mirror is updated by the resulting webhook, not here. A user
// with no recorded subscription is a no-op.
func (s *Service) CancelSubscription(ctx context.Context, userID uint) error {
	sub, err := s.repo.GetSubscriptionByUser(userID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	return s.provider.CancelSubscription(ctx, sub.ID)
}

// RecordWebhookEvent persists an incoming event for dedup and audit. It
// returns the storage key, whether the event is new, and whether it should
// be processed: only redeliveries of a successfully handled event are
// collapsed, a redelivery whose earlier attempt failed or never finished
// runs again. Events without a provider id are keyed by a payload hash so
// replays still collapse.
func (s *Service) RecordWebhookEvent(in WebhookEventInput) (string, bool, bool, error) {
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "payload:" + hex.EncodeToString(sum[:])
	}
	created, err := s.repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		ProviderEventID: eventID,
		EventType:       in.EventType,
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	})
	if err != nil {
		return eventID, false, false, err
	}
	if created {
		return eventID, true, true, nil
	}

	existing, err := s.repo.GetWebhookEvent(eventID)
	if err != nil {
		return eventID, false, false, err
	}
	retry := existing.ProcessedAt == nil || existing.ProcessingError != ""
	return eventID, false, retry, nil
}

// MarkWebhookProcessed stamps the stored event with its processing outcome.
func (s *Service) MarkWebhookProcessed(providerEventID string, processingError string) error {
	return s.repo.MarkWebhookProcessed(providerEventID, processingError)
}

func (s *Service) invalidate(userID uint) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.InvalidateUser(userID); err != nil {
		log.Printf("[Payment] failed to invalidate session for user %d: %v", userID, err)
	}
}

func (s *Service) track(ctx context.Context, userID uint, event analytics.Event) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.TrackEvent(ctx, userID, event); err != nil {
		log.Printf("[Payment] failed to track %s for user %d: %v", event.Name, userID, err)
	}
}

// shortCustomerRef is a non-identifying suffix of the customer id used in
// redirect URLs.
func shortCustomerRef(customerID string) string {
	if len(customerID) <= 8 {
		return customerID
	}
	return customerID[len(customerID)-8:]
}

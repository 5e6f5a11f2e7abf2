package payment

import (
	"context"
	"log"
	"time"

	"github.com/artvaultapp/ArtVault/app/models"
	"github.com/artvaultapp/ArtVault/internal/pkg/analytics"
	"github.com/artvaultapp/ArtVault/internal/pkg/buzz"
)

// UpsertSubscription merges one provider subscription-change event into
// local state. It is safe under at-least-once delivery: a replayed create
// for an already-recorded id is a no-op, and a subscription id change for
// the same user supersedes (deletes) the old record inside the same
// transaction that writes the new one.
func (s *Service) UpsertSubscription(ctx context.Context, sub SubscriptionObject, eventTime time.Time, eventType string) error {
	user, err := s.repo.GetUserByCustomerID(sub.Customer)
	if err != nil {
		return err
	}

	if len(sub.Items.Data) == 0 {
		return validationf("subscription %s has no line items", sub.ID)
	}
	item := sub.Items.Data[0].Price

	isCreate := eventType == "customer.subscription.created"

	var prior *models.CustomerSubscription
	prior, err = s.repo.GetSubscriptionByUser(user.ID)
	if err != nil {
		if !IsNotFound(err) {
			return err
		}
		prior = nil
	}

	supersededID := ""
	if prior != nil {
		if prior.ID == sub.ID && isCreate {
			// Duplicate delivery of the creation event.
			return nil
		}
		if prior.ID != sub.ID {
			supersededID = prior.ID
		}
	}

	record := &models.CustomerSubscription{
		ID:                 sub.ID,
		UserID:             user.ID,
		Metadata:           models.JSONMap(sub.Metadata),
		Status:             sub.Status,
		PriceID:            item.ID,
		ProductID:          item.Product,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CancelAt:           unixTimePtr(sub.CancelAt),
		CanceledAt:         unixTimePtr(sub.CanceledAt),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		CreatedAt:          unixTime(sub.Created),
		EndedAt:            unixTimePtr(sub.EndedAt),
		UpdatedAt:          eventTime,
	}

	insertOnly := isCreate && prior == nil
	if err := s.repo.ReplaceSubscription(record, supersededID, insertOnly); err != nil {
		return err
	}

	statusChanged := prior == nil || prior.Status != sub.Status
	if statusChanged {
		switch sub.Status {
		case models.SubscriptionStatusActive:
			s.track(ctx, user.ID, analytics.Event{Name: analytics.EventStartMembership, ProductID: item.Product})
		case models.SubscriptionStatusCanceled:
			s.track(ctx, user.ID, analytics.Event{Name: analytics.EventCancelMembership, ProductID: item.Product})
		}
	}

	s.invalidate(user.ID)
	return nil
}

// ProcessCheckoutCompleted records the finalized line items of a completed
// checkout as purchases, then credits buzz for every line whose price
// metadata declares a buzz amount. Purchases are append-only; a replayed
// event inserts duplicate rows.
func (s *Service) ProcessCheckoutCompleted(ctx context.Context, sessionID, customerID string) error {
	details, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return err
	}

	purchases := make([]models.Purchase, 0, len(details.LineItems))
	for _, li := range details.LineItems {
		p := models.Purchase{
			CustomerID: customerID,
			Status:     details.PaymentStatus,
		}
		if li.PriceID != "" {
			priceID := li.PriceID
			p.PriceID = &priceID
		}
		if li.ProductID != "" {
			productID := li.ProductID
			p.ProductID = &productID
		}
		purchases = append(purchases, p)
	}
	if err := s.repo.CreatePurchases(purchases); err != nil {
		return err
	}

	return s.creditBuzzPurchases(ctx, customerID, details.LineItems)
}

// creditBuzzPurchases grants buzz for metadata-tagged line items. A
// checkout by a customer with no local user is logged and skipped; ledger
// failures propagate so delivery retries can re-credit.
func (s *Service) creditBuzzPurchases(ctx context.Context, customerID string, items []CheckoutLineItem) error {
	var user *models.User
	for _, li := range items {
		meta, ok := ParseBuzzPriceMetadata(li.PriceMetadata)
		if !ok {
			continue
		}

		if user == nil {
			u, err := s.repo.GetUserByCustomerID(customerID)
			if err != nil {
				if IsNotFound(err) {
					log.Printf("[Payment] buzz credit skipped, no user for customer %s", customerID)
					return nil
				}
				return err
			}
			user = u
		}

		err := s.ledger.CreateTransaction(ctx, buzz.Transaction{
			Amount:        meta.BuzzAmount,
			Type:          buzz.TransactionTypePurchase,
			FromAccountID: buzz.SystemAccountID,
			ToAccountID:   int64(user.ID),
			Details:       meta.BonusDescription,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ProcessInvoicePaid backfills the customer binding for users matched by
// billing email and records one purchase row per invoice line.
func (s *Service) ProcessInvoicePaid(ctx context.Context, inv InvoiceObject) error {
	if inv.CustomerEmail != "" && inv.Customer != "" {
		user, err := s.repo.GetUserByEmail(inv.CustomerEmail)
		switch {
		case err == nil:
			if !user.HasCustomer() {
				if err := s.repo.SetUserCustomerID(user.ID, inv.Customer); err != nil {
					return err
				}
				s.invalidate(user.ID)
			}
		case IsNotFound(err):
			// Invoice email without a local account, nothing to bind.
		default:
			return err
		}
	}

	purchases := make([]models.Purchase, 0, len(inv.Lines.Data))
	for _, line := range inv.Lines.Data {
		p := models.Purchase{
			CustomerID: inv.Customer,
			Status:     inv.Status,
		}
		if line.Price != nil {
			if line.Price.ID != "" {
				priceID := line.Price.ID
				p.PriceID = &priceID
			}
			if line.Price.Product != "" {
				productID := line.Price.Product
				p.ProductID = &productID
			}
		}
		purchases = append(purchases, p)
	}
	return s.repo.CreatePurchases(purchases)
}

package payment

import (
	"context"
	"log"
	"sort"

	"github.com/artvaultapp/ArtVault/app/models"
)

// Plan is a membership offering shown on the pricing page: an active
// recurring product carrying the plan metadata key, with its default price.
type Plan struct {
	ProductID   string         `json:"productId"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Tier        string         `json:"tier"`
	Price       *models.Price  `json:"price"`
	Metadata    models.JSONMap `json:"metadata"`
}

// BuzzPackage is one purchasable credit pack: an active price of the buzz
// product annotated with the buzz amount it grants. A nil UnitAmount means
// pay-what-you-want.
type BuzzPackage struct {
	PriceID          string  `json:"priceId"`
	Currency         string  `json:"currency"`
	UnitAmount       *int64  `json:"unitAmount,omitempty"`
	Interval         *string `json:"interval,omitempty"`
	BuzzAmount       int64   `json:"buzzAmount,omitempty"`
	BonusDescription string  `json:"bonusDescription,omitempty"`
}

// UpsertProductRecord mirrors one provider product locally, keyed by its
// provider id. Absent optional fields map to NULL.
func (s *Service) UpsertProductRecord(product CatalogProduct) error {
	record := &models.Product{
		ID:       product.ID,
		Active:   product.Active,
		Name:     product.Name,
		Metadata: models.JSONMap(product.Metadata),
	}
	if product.Description != "" {
		desc := product.Description
		record.Description = &desc
	}
	if product.DefaultPriceID != "" {
		priceID := product.DefaultPriceID
		record.DefaultPriceID = &priceID
	}
	return s.repo.UpsertProduct(record)
}

// UpsertPriceRecord mirrors one provider price locally. A zero unit amount
// is stored as NULL (pay-what-you-want).
func (s *Service) UpsertPriceRecord(price CatalogPrice) error {
	record := &models.Price{
		ID:        price.ID,
		ProductID: price.ProductID,
		Active:    price.Active,
		Currency:  price.Currency,
		Type:      price.Type,
		Metadata:  models.JSONMap(price.Metadata),
	}
	if price.Nickname != "" {
		nickname := price.Nickname
		record.Description = &nickname
	}
	if price.UnitAmount != 0 {
		amount := price.UnitAmount
		record.UnitAmount = &amount
	}
	if price.Recurring != nil {
		interval := price.Recurring.Interval
		count := price.Recurring.IntervalCount
		record.Interval = &interval
		record.IntervalCount = &count
	}
	return s.repo.UpsertPrice(record)
}

// SyncProducts mirrors the full provider product listing. Entries the
// provider no longer returns keep their local row untouched.
func (s *Service) SyncProducts(ctx context.Context) error {
	products, err := s.provider.ListProducts(ctx)
	if err != nil {
		return err
	}
	for _, product := range products {
		if err := s.UpsertProductRecord(product); err != nil {
			return err
		}
	}
	return nil
}

// SyncPrices mirrors the full provider price listing.
func (s *Service) SyncPrices(ctx context.Context) error {
	prices, err := s.provider.ListPrices(ctx)
	if err != nil {
		return err
	}
	for _, price := range prices {
		if err := s.UpsertPriceRecord(price); err != nil {
			return err
		}
	}
	return nil
}

// SyncCatalog runs both sync passes; products first so prices never
// reference a product the mirror has not seen.
func (s *Service) SyncCatalog(ctx context.Context) error {
	if err := s.SyncProducts(ctx); err != nil {
		return err
	}
	return s.SyncPrices(ctx)
}

// GetPlans lists membership plans: active products tagged with the plan
// metadata key whose default price is an active recurring price, ordered by
// ascending amount.
func (s *Service) GetPlans() ([]Plan, error) {
	products, err := s.repo.ListPlanCandidateProducts()
	if err != nil {
		return nil, err
	}

	plans := make([]Plan, 0, len(products))
	for i := range products {
		product := products[i]
		tier, ok := product.Metadata[s.cfg.PlanMetadataKey]
		if !ok {
			continue
		}
		if product.DefaultPriceID == nil {
			continue
		}

		var defaultPrice *models.Price
		for j := range product.Prices {
			if product.Prices[j].ID == *product.DefaultPriceID {
				defaultPrice = &product.Prices[j]
				break
			}
		}
		if defaultPrice == nil || !defaultPrice.IsRecurring() {
			continue
		}

		plans = append(plans, Plan{
			ProductID:   product.ID,
			Name:        product.Name,
			Description: product.Description,
			Tier:        tier,
			Price:       defaultPrice,
			Metadata:    product.Metadata,
		})
	}

	sort.Slice(plans, func(i, j int) bool {
		return planAmount(plans[i]) < planAmount(plans[j])
	})
	return plans, nil
}

func planAmount(p Plan) int64 {
	if p.Price == nil || p.Price.UnitAmount == nil {
		return 0
	}
	return *p.Price.UnitAmount
}

// GetBuzzPackages lists the active prices of the buzz-tier product,
// annotated with the amount each grants. Prices without a parseable buzz
// annotation are still listed (custom-amount candidates) with amount 0.
func (s *Service) GetBuzzPackages() ([]BuzzPackage, error) {
	product, err := s.repo.GetProductByTier(s.cfg.BuzzProductTier)
	if err != nil {
		return nil, err
	}

	prices, err := s.repo.ListActivePricesByProduct(product.ID)
	if err != nil {
		return nil, err
	}

	packages := make([]BuzzPackage, 0, len(prices))
	for i := range prices {
		price := prices[i]
		pkg := BuzzPackage{
			PriceID:    price.ID,
			Currency:   price.Currency,
			UnitAmount: price.UnitAmount,
			Interval:   price.Interval,
		}
		if meta, ok := ParseBuzzPriceMetadata(price.Metadata); ok {
			pkg.BuzzAmount = meta.BuzzAmount
			pkg.BonusDescription = meta.BonusDescription
		} else if len(price.Metadata) > 0 {
			log.Printf("[Payment] buzz price %s has no buzz amount annotation", price.ID)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

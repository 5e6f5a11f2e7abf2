package payment

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/artvaultapp/ArtVault/app/models"
)

// Repository is the persistence surface of the billing core.
type Repository interface {
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByCustomerID(customerID string) (*models.User, error)
	SetUserCustomerID(userID uint, customerID string) error

	GetSubscription(id string) (*models.CustomerSubscription, error)
	GetSubscriptionByUser(userID uint) (*models.CustomerSubscription, error)
	ReplaceSubscription(sub *models.CustomerSubscription, supersededID string, insertOnly bool) error

	GetProduct(id string) (*models.Product, error)
	GetPrice(id string) (*models.Price, error)
	UpsertProduct(product *models.Product) error
	UpsertPrice(price *models.Price) error
	ListPlanCandidateProducts() ([]models.Product, error)
	GetProductByTier(tier string) (*models.Product, error)
	ListActivePricesByProduct(productID string) ([]models.Price, error)

	CreatePurchases(purchases []models.Purchase) error

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, error)
	GetWebhookEvent(providerEventID string) (*models.WebhookEvent, error)
	MarkWebhookProcessed(providerEventID string, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository wraps the given database handle.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("user %d", id)
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("user by email")
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetUserByCustomerID(customerID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("customer_id = ?", customerID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("user by customer %s", customerID)
		}
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) SetUserCustomerID(userID uint, customerID string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("customer_id", customerID).Error
}

func (r *gormRepository) GetSubscription(id string) (*models.CustomerSubscription, error) {
	var sub models.CustomerSubscription
	if err := r.db.Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("subscription %s", id)
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionByUser(userID uint) (*models.CustomerSubscription, error) {
	var sub models.CustomerSubscription
	if err := r.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("subscription for user %d", userID)
		}
		return nil, err
	}
	return &sub, nil
}

// ReplaceSubscription writes the subscription row and the user's current
// subscription pointer in one transaction. When supersededID is set, that
// older row is removed first so the one-row-per-user index holds. With
// insertOnly the write is a plain insert, so a concurrent create of the
// same id fails instead of overwriting newer state.
func (r *gormRepository) ReplaceSubscription(sub *models.CustomerSubscription, supersededID string, insertOnly bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if supersededID != "" && supersededID != sub.ID {
			if err := tx.Where("id = ?", supersededID).
				Delete(&models.CustomerSubscription{}).Error; err != nil {
				return err
			}
		}

		if insertOnly {
			if err := tx.Create(sub).Error; err != nil {
				return err
			}
		} else {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(sub).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&models.User{}).
			Where("id = ?", sub.UserID).
			Update("subscription_id", sub.ID).Error
	})
}

func (r *gormRepository) GetProduct(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("product %s", id)
		}
		return nil, err
	}
	return &product, nil
}

func (r *gormRepository) GetPrice(id string) (*models.Price, error) {
	var price models.Price
	if err := r.db.Where("id = ?", id).First(&price).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("price %s", id)
		}
		return nil, err
	}
	return &price, nil
}

func (r *gormRepository) UpsertProduct(product *models.Product) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"active", "name", "description", "metadata", "default_price_id", "updated_at",
		}),
	}).Create(product).Error
}

func (r *gormRepository) UpsertPrice(price *models.Price) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"product_id", "active", "currency", "description", "type",
			"unit_amount", "interval", "interval_count", "metadata", "updated_at",
		}),
	}).Create(price).Error
}

// ListPlanCandidateProducts returns active products carrying at least one
// active recurring price, with those prices preloaded. Plan filtering on
// metadata happens in the service layer.
func (r *gormRepository) ListPlanCandidateProducts() ([]models.Product, error) {
	var products []models.Product
	err := r.db.
		Where("active = ?", true).
		Where("id IN (?)", r.db.Model(&models.Price{}).
			Select("product_id").
			Where("active = ? AND type = ?", true, models.PriceTypeRecurring)).
		Preload("Prices", "active = ?", true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *gormRepository) GetProductByTier(tier string) (*models.Product, error) {
	var product models.Product
	err := r.db.
		Where("active = ?", true).
		Where("JSON_UNQUOTE(JSON_EXTRACT(metadata, '$.tier')) = ?", tier).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("product with tier %s", tier)
		}
		return nil, err
	}
	return &product, nil
}

// ListActivePricesByProduct orders fixed amounts ascending with
// pay-what-you-want prices last.
func (r *gormRepository) ListActivePricesByProduct(productID string) ([]models.Price, error) {
	var prices []models.Price
	err := r.db.
		Where("product_id = ? AND active = ?", productID, true).
		Order("unit_amount IS NULL ASC, unit_amount ASC").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *gormRepository) CreatePurchases(purchases []models.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}
	return r.db.Create(&purchases).Error
}

// CreateWebhookEventIfNotExists inserts the event keyed by its provider id.
// It reports false when the event was already recorded.
func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormRepository) GetWebhookEvent(providerEventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.Where("provider_event_id = ?", providerEventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("webhook event %s", providerEventID)
		}
		return nil, err
	}
	return &event, nil
}

func (r *gormRepository) MarkWebhookProcessed(providerEventID string, processingError string) error {
	return r.db.Model(&models.WebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Updates(map[string]interface{}{
			"processed_at":     gorm.Expr("CURRENT_TIMESTAMP"),
			"processing_error": processingError,
		}).Error
}

package models

import "time"

// Provider subscription statuses as reported by the billing provider.
const (
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusPaused            = "paused"
)

// CustomerSubscription mirrors the user's current provider subscription.
// The primary key is the provider-assigned subscription id; a user holds at
// most one row at a time. When the provider reports a new subscription id
// for a user the old row is deleted and replaced, never merged.
type CustomerSubscription struct {
	ID                 string     `gorm:"primaryKey;type:varchar(191)" json:"id"`
	UserID             uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Metadata           JSONMap    `gorm:"type:json" json:"metadata"`
	Status             string     `gorm:"type:varchar(32);not null;index" json:"status"`
	PriceID            string     `gorm:"type:varchar(191);not null" json:"price_id"`
	ProductID          string     `gorm:"type:varchar(191);not null" json:"product_id"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CancelAt           *time.Time `gorm:"type:timestamp;default:null" json:"cancel_at,omitempty"`
	CanceledAt         *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	CurrentPeriodStart time.Time  `gorm:"type:timestamp" json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `gorm:"type:timestamp" json:"current_period_end"`
	CreatedAt          time.Time  `gorm:"type:timestamp" json:"created_at"`
	EndedAt            *time.Time `gorm:"type:timestamp;default:null" json:"ended_at,omitempty"`
	UpdatedAt          time.Time  `gorm:"type:timestamp" json:"updated_at"`
}

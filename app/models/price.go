package models

import "time"

const (
	PriceTypeOneTime   = "one_time"
	PriceTypeRecurring = "recurring"
)

// Price mirrors a billing-provider catalog price. UnitAmount is the amount
// in the smallest currency unit; NULL means pay-what-you-want. A NULL
// interval marks a one-time price.
type Price struct {
	ID            string    `gorm:"primaryKey;type:varchar(191)" json:"id"`
	ProductID     string    `gorm:"type:varchar(191);not null;index" json:"product_id"`
	Active        bool      `gorm:"not null;default:true;index" json:"active"`
	Currency      string    `gorm:"type:varchar(10);not null" json:"currency"`
	Description   *string   `gorm:"type:varchar(255)" json:"description,omitempty"`
	Type          string    `gorm:"type:varchar(16);not null;default:'one_time'" json:"type"`
	UnitAmount    *int64    `gorm:"default:null" json:"unit_amount,omitempty"`
	Interval      *string   `gorm:"type:varchar(16);default:null" json:"interval,omitempty"`
	IntervalCount *int64    `gorm:"default:null" json:"interval_count,omitempty"`
	Metadata      JSONMap   `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsRecurring reports whether the price bills on an interval.
func (p *Price) IsRecurring() bool {
	return p.Type == PriceTypeRecurring
}

package models

import "time"

// Purchase is an append-only record of one completed checkout or invoice
// line item. Rows are only ever inserted; replayed provider events may
// produce duplicate rows by design.
type Purchase struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID string    `gorm:"type:varchar(191);not null;index" json:"customer_id"`
	PriceID    *string   `gorm:"type:varchar(191);default:null" json:"price_id,omitempty"`
	ProductID  *string   `gorm:"type:varchar(191);default:null" json:"product_id,omitempty"`
	Status     string    `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

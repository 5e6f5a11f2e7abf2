package models

import "time"

// Product mirrors a billing-provider catalog product. Rows are created and
// updated only by the catalog sync and are never deleted locally; inactive
// entries keep their row with Active=false.
type Product struct {
	ID             string    `gorm:"primaryKey;type:varchar(191)" json:"id"`
	Active         bool      `gorm:"not null;default:true;index" json:"active"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Description    *string   `gorm:"type:text" json:"description,omitempty"`
	Metadata       JSONMap   `gorm:"type:json" json:"metadata"`
	DefaultPriceID *string   `gorm:"type:varchar(191);default:null" json:"default_price_id,omitempty"`
	Prices         []Price   `gorm:"foreignKey:ProductID" json:"prices,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// internal/models/offer.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Offer struct {
	BaseModel
	ProductID     uuid.UUID   `json:"product_id" gorm:"type:uuid;not null;index:idx_offers_product_marketplace"`
	Marketplace   Marketplace `json:"marketplace" gorm:"type:varchar(20);not null;index:idx_offers_product_marketplace"`
	StoreName     string      `json:"store_name" gorm:"size:255;not null"`
	Price         float64     `json:"price" gorm:"type:decimal(12,2);not null"`
	Currency      string      `json:"currency" gorm:"size:8;not null;default:'THB'"`
	LastCheckedAt time.Time   `json:"last_checked_at" gorm:"not null"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

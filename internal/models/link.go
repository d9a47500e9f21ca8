// internal/models/link.go
package models

import "github.com/google/uuid"

// Link is immutable after creation: the short code is the public handle
// for the redirect URL and is never reassigned.
type Link struct {
	BaseModel
	ProductID   uuid.UUID   `json:"product_id" gorm:"type:uuid;not null;index"`
	CampaignID  *uuid.UUID  `json:"campaign_id" gorm:"type:uuid;index"`
	ShortCode   string      `json:"short_code" gorm:"size:16;not null;uniqueIndex:idx_links_short_code"`
	Marketplace Marketplace `json:"marketplace" gorm:"type:varchar(20);not null"`
	TargetURL   string      `json:"target_url" gorm:"type:text;not null"`
	UTMSource   *string     `json:"utm_source" gorm:"column:utm_source;type:text"`
	UTMMedium   *string     `json:"utm_medium" gorm:"column:utm_medium;type:text"`
	UTMCampaign *string     `json:"utm_campaign" gorm:"column:utm_campaign;type:text"`

	Product  Product   `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Campaign *Campaign `json:"-" gorm:"foreignKey:CampaignID;constraint:OnDelete:SET NULL"`
}

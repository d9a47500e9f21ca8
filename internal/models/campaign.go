// internal/models/campaign.go
package models

import "time"

type Campaign struct {
	BaseModel
	Name        string         `json:"name" gorm:"size:255;not null"`
	UTMCampaign *string        `json:"utm_campaign" gorm:"column:utm_campaign;type:text"`
	StartAt     *time.Time     `json:"start_at"`
	EndAt       *time.Time     `json:"end_at"`
	Status      CampaignStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`

	Links []Link `json:"links,omitempty" gorm:"foreignKey:CampaignID"`
}

// IsActive reports whether the campaign is published and inside its
// optional time window at the given instant.
func (c *Campaign) IsActive(now time.Time) bool {
	if c.Status != CampaignStatusPublished {
		return false
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	return true
}

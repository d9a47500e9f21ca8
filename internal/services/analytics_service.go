// internal/services/analytics_service.go
package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/models"
)

type AnalyticsService struct {
	db *gorm.DB
}

type ProductClickStats struct {
	Clicks int64   `json:"clicks"`
	Title  *string `json:"title"`
}

type CampaignClickStats struct {
	Clicks int64  `json:"clicks"`
	Name   string `json:"name"`
}

type MarketplaceClickStats struct {
	Clicks int64 `json:"clicks"`
}

type DashboardSnapshot struct {
	ByProduct     map[string]ProductClickStats     `json:"byProduct"`
	ByCampaign    map[string]CampaignClickStats    `json:"byCampaign"`
	ByMarketplace map[string]MarketplaceClickStats `json:"byMarketplace"`
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

func (s *AnalyticsService) GetDashboardSnapshot() (*DashboardSnapshot, error) {
	byProduct, err := s.aggregateByProduct()
	if err != nil {
		return nil, err
	}

	byCampaign, err := s.aggregateByCampaign()
	if err != nil {
		return nil, err
	}

	byMarketplace, err := s.aggregateByMarketplace()
	if err != nil {
		return nil, err
	}

	return &DashboardSnapshot{
		ByProduct:     byProduct,
		ByCampaign:    byCampaign,
		ByMarketplace: byMarketplace,
	}, nil
}

func (s *AnalyticsService) aggregateByProduct() (map[string]ProductClickStats, error) {
	var rows []struct {
		ProductID string
		Clicks    int64
		Title     *string
	}

	err := s.db.Model(&models.Click{}).
		Joins("JOIN links ON links.id = clicks.link_id").
		Joins("JOIN products ON products.id = links.product_id").
		Select("links.product_id AS product_id, COUNT(*) AS clicks, products.title AS title").
		Group("links.product_id, products.title").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks by product: %w", err)
	}

	stats := make(map[string]ProductClickStats, len(rows))
	for _, row := range rows {
		stats[row.ProductID] = ProductClickStats{Clicks: row.Clicks, Title: row.Title}
	}
	return stats, nil
}

func (s *AnalyticsService) aggregateByCampaign() (map[string]CampaignClickStats, error) {
	var rows []struct {
		CampaignID string
		Clicks     int64
		Name       string
	}

	err := s.db.Model(&models.Click{}).
		Joins("JOIN links ON links.id = clicks.link_id").
		Joins("JOIN campaigns ON campaigns.id = links.campaign_id").
		Where("links.campaign_id IS NOT NULL").
		Select("links.campaign_id AS campaign_id, COUNT(*) AS clicks, campaigns.name AS name").
		Group("links.campaign_id, campaigns.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks by campaign: %w", err)
	}

	stats := make(map[string]CampaignClickStats, len(rows))
	for _, row := range rows {
		stats[row.CampaignID] = CampaignClickStats{Clicks: row.Clicks, Name: row.Name}
	}
	return stats, nil
}

func (s *AnalyticsService) aggregateByMarketplace() (map[string]MarketplaceClickStats, error) {
	var rows []struct {
		Marketplace string
		Clicks      int64
	}

	err := s.db.Model(&models.Click{}).
		Joins("JOIN links ON links.id = clicks.link_id").
		Select("links.marketplace AS marketplace, COUNT(*) AS clicks").
		Group("links.marketplace").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks by marketplace: %w", err)
	}

	stats := make(map[string]MarketplaceClickStats, len(rows))
	for _, row := range rows {
		stats[row.Marketplace] = MarketplaceClickStats{Clicks: row.Clicks}
	}
	return stats, nil
}

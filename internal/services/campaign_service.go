// internal/services/campaign_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/queue"
	"github.com/affilink/affiliate-backend/internal/utils"
)

var ErrCampaignDemotion = errors.New("published campaigns cannot return to draft")

type CampaignService struct {
	db        *gorm.DB
	publisher events.Publisher
	enqueuer  queue.Enqueuer
}

type UpsertCampaignRequest struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Name        string     `json:"name" validate:"required,min=1,max=255"`
	UTMCampaign string     `json:"utm_campaign,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
}

type CampaignResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	UTMCampaign *string    `json:"utmCampaign"`
	StartAt     *time.Time `json:"startAt"`
	EndAt       *time.Time `json:"endAt"`
	Status      string     `json:"status"`
}

type CampaignLandingResult struct {
	Campaign CampaignResponse `json:"campaign"`
	Links    []models.Link    `json:"links"`
}

func NewCampaignService(db *gorm.DB, publisher events.Publisher, enqueuer queue.Enqueuer) *CampaignService {
	return &CampaignService{
		db:        db,
		publisher: publisher,
		enqueuer:  enqueuer,
	}
}

// Upsert creates or updates a campaign. The lifecycle is one-way:
// draft -> published. The transition is detected by comparing the old
// and new status snapshots, and triggers the publish side effects.
func (s *CampaignService) Upsert(ctx context.Context, req *UpsertCampaignRequest) (*CampaignResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.ID == nil {
		return s.create(ctx, req)
	}
	return s.update(ctx, req)
}

func (s *CampaignService) create(ctx context.Context, req *UpsertCampaignRequest) (*CampaignResponse, error) {
	status := models.CampaignStatus(req.Status)
	if status == "" {
		status = models.CampaignStatusDraft
	}

	campaign := &models.Campaign{
		Name:        req.Name,
		UTMCampaign: optionalString(req.UTMCampaign),
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Status:      status,
	}

	if err := s.db.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	event := events.New(events.TypeCampaignCreated, campaignEventData(campaign))
	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish campaign created event: %w", err)
	}

	if campaign.Status == models.CampaignStatusPublished {
		if err := s.firePublishSideEffects(ctx, campaign); err != nil {
			return nil, err
		}
	}

	return toCampaignResponse(campaign), nil
}

func (s *CampaignService) update(ctx context.Context, req *UpsertCampaignRequest) (*CampaignResponse, error) {
	var campaign models.Campaign
	if err := s.db.First(&campaign, "id = ?", *req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("campaign not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	previousStatus := campaign.Status
	newStatus := campaign.Status
	if req.Status != "" {
		newStatus = models.CampaignStatus(req.Status)
	}

	if previousStatus == models.CampaignStatusPublished && newStatus == models.CampaignStatusDraft {
		return nil, ErrCampaignDemotion
	}

	campaign.Name = req.Name
	campaign.UTMCampaign = optionalString(req.UTMCampaign)
	campaign.StartAt = req.StartAt
	campaign.EndAt = req.EndAt
	campaign.Status = newStatus

	if err := s.db.Save(&campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	event := events.New(events.TypeCampaignUpdated, campaignEventData(&campaign))
	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish campaign updated event: %w", err)
	}

	if previousStatus != models.CampaignStatusPublished && campaign.Status == models.CampaignStatusPublished {
		if err := s.firePublishSideEffects(ctx, &campaign); err != nil {
			return nil, err
		}
	}

	return toCampaignResponse(&campaign), nil
}

func (s *CampaignService) firePublishSideEffects(ctx context.Context, campaign *models.Campaign) error {
	event := events.New(events.TypeCampaignPublished, events.CampaignPublishedData{
		CampaignID:  campaign.ID.String(),
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish campaign published event: %w", err)
	}

	err := s.enqueuer.EnqueueCampaignPublish(ctx, queue.CampaignPublishPayload{
		CampaignID: campaign.ID.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue campaign publish: %w", err)
	}

	return nil
}

func (s *CampaignService) GetCampaigns(params utils.PaginationParams) ([]models.Campaign, int64, error) {
	query := s.db.Model(&models.Campaign{})

	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var campaigns []models.Campaign
	if err := query.Find(&campaigns).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch campaigns: %w", err)
	}

	return campaigns, total, nil
}

func (s *CampaignService) GetLanding(campaignID uuid.UUID) (*CampaignLandingResult, error) {
	var campaign models.Campaign
	if err := s.db.Preload("Links").First(&campaign, "id = ?", campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("campaign not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &CampaignLandingResult{
		Campaign: *toCampaignResponse(&campaign),
		Links:    campaign.Links,
	}, nil
}

func campaignEventData(campaign *models.Campaign) events.CampaignData {
	return events.CampaignData{
		CampaignID: campaign.ID.String(),
		Name:       campaign.Name,
		Status:     string(campaign.Status),
		StartAt:    formatTimePtr(campaign.StartAt),
		EndAt:      formatTimePtr(campaign.EndAt),
	}
}

func toCampaignResponse(campaign *models.Campaign) *CampaignResponse {
	return &CampaignResponse{
		ID:          campaign.ID,
		Name:        campaign.Name,
		UTMCampaign: campaign.UTMCampaign,
		StartAt:     campaign.StartAt,
		EndAt:       campaign.EndAt,
		Status:      string(campaign.Status),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}

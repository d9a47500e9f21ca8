// internal/services/link_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/utils"
)

const (
	shortCodeLength      = 8
	shortCodeMaxAttempts = 5
)

var (
	ErrCodeGenerationExhausted = errors.New("unable to generate unique short code")
	ErrTargetHostNotAllowed    = errors.New("target URL host is not in allowlist")
	ErrInvalidTargetURL        = errors.New("invalid target URL")
)

type LinkService struct {
	db        *gorm.DB
	publisher events.Publisher
	allowlist []string
}

type CreateLinkRequest struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	CampaignID  *uuid.UUID `json:"campaign_id,omitempty"`
	Marketplace string     `json:"marketplace" validate:"required,marketplace"`
	TargetURL   string     `json:"target_url" validate:"required,url"`
	UTMSource   string     `json:"utm_source,omitempty"`
	UTMMedium   string     `json:"utm_medium,omitempty"`
	UTMCampaign string     `json:"utm_campaign,omitempty"`
}

// LinkResponse is the contract the admin UI consumes after link creation.
type LinkResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"productId"`
	CampaignID  *uuid.UUID `json:"campaignId"`
	ShortCode   string     `json:"shortCode"`
	Marketplace string     `json:"marketplace"`
	TargetURL   string     `json:"targetUrl"`
	UTMSource   *string    `json:"utmSource"`
	UTMMedium   *string    `json:"utmMedium"`
	UTMCampaign *string    `json:"utmCampaign"`
}

func NewLinkService(db *gorm.DB, publisher events.Publisher, allowlist []string) *LinkService {
	return &LinkService{
		db:        db,
		publisher: publisher,
		allowlist: allowlist,
	}
}

func (s *LinkService) CreateLink(ctx context.Context, req *CreateLinkRequest) (*LinkResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Verify product exists
	var product models.Product
	if err := s.db.First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Verify campaign exists when referenced
	var campaign *models.Campaign
	if req.CampaignID != nil {
		campaign = &models.Campaign{}
		if err := s.db.First(campaign, "id = ?", *req.CampaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("campaign not found")
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	if err := s.ensureTargetURLAllowed(req.TargetURL); err != nil {
		return nil, err
	}

	shortCode, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	utmSource := req.UTMSource
	if utmSource == "" {
		utmSource = "affiliate"
	}
	utmMedium := req.UTMMedium
	if utmMedium == "" {
		utmMedium = "cpc"
	}

	var utmCampaign *string
	if req.UTMCampaign != "" {
		utmCampaign = &req.UTMCampaign
	} else if campaign != nil && campaign.UTMCampaign != nil {
		utmCampaign = campaign.UTMCampaign
	}

	link := &models.Link{
		ProductID:   req.ProductID,
		CampaignID:  req.CampaignID,
		ShortCode:   shortCode,
		Marketplace: models.Marketplace(req.Marketplace),
		TargetURL:   req.TargetURL,
		UTMSource:   &utmSource,
		UTMMedium:   &utmMedium,
		UTMCampaign: utmCampaign,
	}

	// The unique constraint on short_code is the authoritative guard; the
	// generate-and-check loop only keeps the happy path collision-free.
	if err := s.db.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	event := events.New(events.TypeLinkCreated, events.LinkCreatedData{
		LinkID:      link.ID.String(),
		ProductID:   link.ProductID.String(),
		CampaignID:  uuidPtrToString(link.CampaignID),
		ShortCode:   link.ShortCode,
		Marketplace: string(link.Marketplace),
		TargetURL:   link.TargetURL,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish link created event: %w", err)
	}

	return toLinkResponse(link), nil
}

func (s *LinkService) GetLinks(params utils.PaginationParams) ([]models.Link, int64, error) {
	query := s.db.Model(&models.Link{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count links: %w", err)
	}

	allowedSortFields := []string{"created_at", "short_code", "marketplace"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var links []models.Link
	if err := query.Find(&links).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch links: %w", err)
	}

	return links, total, nil
}

// generateUniqueCode derives a short code from the tail of a ULID, which
// keeps codes URL-safe and effectively collision-free, and checks the
// database before handing it out. The loop self-bounds: exhausting all
// attempts fails the enclosing create.
func (s *LinkService) generateUniqueCode() (string, error) {
	for attempt := 0; attempt < shortCodeMaxAttempts; attempt++ {
		id := ulid.Make().String()
		code := strings.ToLower(id[len(id)-shortCodeLength:])

		var count int64
		if err := s.db.Model(&models.Link{}).Where("short_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if count == 0 {
			return code, nil
		}

		logrus.WithField("short_code", code).Warn("Short code collision, retrying")
	}

	return "", ErrCodeGenerationExhausted
}

func (s *LinkService) ensureTargetURLAllowed(targetURL string) error {
	if len(s.allowlist) == 0 {
		return nil
	}

	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Hostname() == "" {
		return ErrInvalidTargetURL
	}

	hostname := parsed.Hostname()
	for _, allowed := range s.allowlist {
		if hostname == allowed || strings.HasSuffix(hostname, "."+allowed) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrTargetHostNotAllowed, hostname)
}

func toLinkResponse(link *models.Link) *LinkResponse {
	return &LinkResponse{
		ID:          link.ID,
		ProductID:   link.ProductID,
		CampaignID:  link.CampaignID,
		ShortCode:   link.ShortCode,
		Marketplace: string(link.Marketplace),
		TargetURL:   link.TargetURL,
		UTMSource:   link.UTMSource,
		UTMMedium:   link.UTMMedium,
		UTMCampaign: link.UTMCampaign,
	}
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

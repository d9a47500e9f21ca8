// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/queue"
	"github.com/affilink/affiliate-backend/internal/utils"
)

type ProductService struct {
	db        *gorm.DB
	publisher events.Publisher
	enqueuer  queue.Enqueuer
}

type CreateProductRequest struct {
	URL         string `json:"url,omitempty" validate:"omitempty,url"`
	SKU         string `json:"sku,omitempty"`
	Marketplace string `json:"marketplace,omitempty" validate:"omitempty,marketplace"`
	Source      string `json:"source,omitempty"`
}

type ProductSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         *string   `json:"title"`
	NormalizedSKU *string   `json:"normalizedSku"`
	NormalizedURL *string   `json:"normalizedUrl"`
	CreatedAt     string    `json:"createdAt"`
}

type OfferView struct {
	ID            uuid.UUID `json:"id"`
	Marketplace   string    `json:"marketplace"`
	StoreName     string    `json:"storeName"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	LastCheckedAt string    `json:"lastCheckedAt"`
}

type ProductOffersResult struct {
	Product struct {
		ID       uuid.UUID `json:"id"`
		Title    *string   `json:"title"`
		ImageURL *string   `json:"imageUrl"`
	} `json:"product"`
	Offers []OfferView       `json:"offers"`
	Best   *events.BestOffer `json:"best"`
}

func NewProductService(db *gorm.DB, publisher events.Publisher, enqueuer queue.Enqueuer) *ProductService {
	return &ProductService{
		db:        db,
		publisher: publisher,
		enqueuer:  enqueuer,
	}
}

// CreateProduct persists a new product from admin input and kicks off
// the asynchronous ingestion pipeline for it.
func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (uuid.UUID, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return uuid.Nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.URL == "" && req.SKU == "" {
		return uuid.Nil, errors.New("either url or sku is required")
	}

	source := models.ProductSource(req.Source)
	if source == "" {
		source = models.ProductSourceAdmin
	}

	product := &models.Product{
		Source:        source,
		NormalizedSKU: normalizeSKU(req.SKU),
		NormalizedURL: normalizeURL(req.URL),
		RawInput: models.JSONB{
			"marketplace": nullableString(req.Marketplace),
			"url":         nullableString(req.URL),
			"sku":         nullableString(req.SKU),
		},
	}

	if err := s.db.Create(product).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to create product: %w", err)
	}

	input := events.ProductInput{
		URL:         req.URL,
		SKU:         req.SKU,
		Marketplace: req.Marketplace,
	}

	event := events.New(events.TypeProductAdded, events.ProductAddedData{
		ProductID: product.ID.String(),
		Source:    string(source),
		Input:     input,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		return uuid.Nil, fmt.Errorf("failed to publish product added event: %w", err)
	}

	err := s.enqueuer.EnqueueProductIngest(ctx, queue.ProductIngestPayload{
		ProductID: product.ID.String(),
		Input:     input,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue ingestion: %w", err)
	}

	return product.ID, nil
}

func (s *ProductService) ListProducts(params utils.PaginationParams) ([]ProductSummary, int64, error) {
	query := s.db.Model(&models.Product{})

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR normalized_sku LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, product := range products {
		summaries = append(summaries, ProductSummary{
			ID:            product.ID,
			Title:         product.Title,
			NormalizedSKU: product.NormalizedSKU,
			NormalizedURL: product.NormalizedURL,
			CreatedAt:     product.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return summaries, total, nil
}

// GetOffers returns the product's current offer set as stored plus the
// computed best (minimum price) offer, or a nil best when no offers
// have been ingested yet.
func (s *ProductService) GetOffers(productID uuid.UUID) (*ProductOffersResult, error) {
	var product models.Product
	if err := s.db.Preload("Offers").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	result := &ProductOffersResult{}
	result.Product.ID = product.ID
	result.Product.Title = product.Title
	result.Product.ImageURL = product.ImageURL

	result.Offers = make([]OfferView, 0, len(product.Offers))
	for _, offer := range product.Offers {
		result.Offers = append(result.Offers, OfferView{
			ID:            offer.ID,
			Marketplace:   string(offer.Marketplace),
			StoreName:     offer.StoreName,
			Price:         offer.Price,
			Currency:      offer.Currency,
			LastCheckedAt: offer.LastCheckedAt.UTC().Format(time.RFC3339),
		})
	}

	result.Best = pickBestOffer(result.Offers)

	return result, nil
}

// pickBestOffer returns the minimum-price offer. The sort is stable, so
// ties resolve to whichever marketplace appears first in the stored
// offer ordering.
func pickBestOffer(offers []OfferView) *events.BestOffer {
	if len(offers) == 0 {
		return nil
	}

	sorted := make([]OfferView, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	return &events.BestOffer{
		Marketplace: sorted[0].Marketplace,
		Price:       sorted[0].Price,
	}
}

func normalizeSKU(sku string) *string {
	if sku == "" {
		return nil
	}
	normalized := strings.ToLower(sku)
	return &normalized
}

func normalizeURL(rawURL string) *string {
	if rawURL == "" {
		return nil
	}
	normalized := strings.TrimSpace(rawURL)
	return &normalized
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

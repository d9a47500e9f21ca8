// internal/services/ingestion_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/adapters"
	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/queue"
)

var (
	// ErrMissingProductID marks a malformed job that must not be retried.
	ErrMissingProductID = errors.New("ingestion job is missing productId")
	// ErrEmptyResolution marks an adapter that produced no product
	// payload; the queue's retry policy applies.
	ErrEmptyResolution = errors.New("adapter returned no product payload")
)

// IngestionService is the background orchestrator that turns a
// product-added job into a persisted offer set:
// SelectAdapter -> Resolve -> PersistTransactional -> PublishRefreshed.
type IngestionService struct {
	db          *gorm.DB
	publisher   events.Publisher
	registry    *adapters.Registry
	mock        adapters.MarketplaceAdapter
	useMockData bool
}

func NewIngestionService(db *gorm.DB, publisher events.Publisher, registry *adapters.Registry, mock adapters.MarketplaceAdapter, useMockData bool) *IngestionService {
	return &IngestionService{
		db:          db,
		publisher:   publisher,
		registry:    registry,
		mock:        mock,
		useMockData: useMockData,
	}
}

func (s *IngestionService) Ingest(ctx context.Context, payload queue.ProductIngestPayload) error {
	if payload.ProductID == "" {
		return ErrMissingProductID
	}

	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMissingProductID, payload.ProductID)
	}

	input := adapters.ResolveInput{
		URL:         payload.Input.URL,
		SKU:         payload.Input.SKU,
		Marketplace: payload.Input.Marketplace,
	}

	adapter := s.selectAdapter(input)

	logrus.WithFields(logrus.Fields{
		"product_id": payload.ProductID,
		"adapter":    adapter.Name(),
	}).Info("Resolving product")

	resolved, err := adapter.ResolveProduct(ctx, input)
	if err != nil {
		return fmt.Errorf("adapter %s failed to resolve product: %w", adapter.Name(), err)
	}
	if resolved == nil || resolved.Product.Title == "" {
		return fmt.Errorf("%w (adapter %s)", ErrEmptyResolution, adapter.Name())
	}

	offers, err := s.persistProduct(productID, resolved, input)
	if err != nil {
		return err
	}

	return s.publishOffersRefreshed(ctx, payload.ProductID, offers)
}

// selectAdapter prefers the mock adapter when the mock-data flag is set,
// otherwise asks the registry for the first match. Registry misses
// degrade to the mock adapter rather than failing the job.
func (s *IngestionService) selectAdapter(input adapters.ResolveInput) adapters.MarketplaceAdapter {
	if s.useMockData {
		return s.mock
	}

	adapter, err := s.registry.Pick(input)
	if err != nil {
		logrus.WithError(err).Warn("Falling back to mock adapter")
		return s.mock
	}
	return adapter
}

// persistProduct upserts the product and replaces its offer set inside
// one transaction: either the upsert and the full replacement commit
// together, or neither does. No partial offer set is ever visible.
func (s *IngestionService) persistProduct(productID uuid.UUID, resolved *adapters.ResolvedProduct, input adapters.ResolveInput) ([]events.OfferSnapshot, error) {
	timestamp := time.Now().UTC()
	var snapshots []events.OfferSnapshot

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		found := true
		err := tx.First(&product, "id = ?", productID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			found = false
			product = models.Product{Source: models.ProductSourceAdmin}
			product.ID = productID
		case err != nil:
			return fmt.Errorf("failed to load product: %w", err)
		}

		// Display fields: latest write wins, including clearing an
		// image the adapter no longer resolves. Identity fields: first
		// write wins, only filled while still empty.
		product.Title = optionalString(resolved.Product.Title)
		product.ImageURL = optionalString(resolved.Product.ImageURL)
		if product.NormalizedSKU == nil {
			product.NormalizedSKU = normalizeSKU(input.SKU)
		}
		if product.NormalizedURL == nil {
			product.NormalizedURL = normalizeURL(input.URL)
		}
		if product.RawInput == nil && (input.URL != "" || input.SKU != "" || input.Marketplace != "") {
			product.RawInput = models.JSONB{
				"marketplace": nullableString(input.Marketplace),
				"sku":         nullableString(input.SKU),
				"url":         nullableString(input.URL),
			}
		}

		if found {
			if err := tx.Save(&product).Error; err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
		} else {
			if err := tx.Create(&product).Error; err != nil {
				return fmt.Errorf("failed to insert product: %w", err)
			}
		}

		// Replace the full offer set; no offer history is retained.
		if err := tx.Where("product_id = ?", productID).Delete(&models.Offer{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale offers: %w", err)
		}

		offerRows := make([]models.Offer, 0, len(resolved.Offers))
		for _, offer := range resolved.Offers {
			currency := offer.Currency
			if currency == "" {
				currency = "THB"
			}
			offerRows = append(offerRows, models.Offer{
				ProductID:     productID,
				Marketplace:   models.Marketplace(offer.Marketplace),
				StoreName:     offer.StoreName,
				Price:         offer.Price,
				Currency:      currency,
				LastCheckedAt: timestamp,
			})
		}

		if len(offerRows) > 0 {
			if err := tx.Create(&offerRows).Error; err != nil {
				return fmt.Errorf("failed to insert offers: %w", err)
			}
		}

		snapshots = make([]events.OfferSnapshot, 0, len(offerRows))
		for _, row := range offerRows {
			snapshots = append(snapshots, events.OfferSnapshot{
				Marketplace:   string(row.Marketplace),
				StoreName:     row.StoreName,
				Price:         row.Price,
				Currency:      row.Currency,
				LastCheckedAt: row.LastCheckedAt.Format(time.RFC3339),
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshots, nil
}

func (s *IngestionService) publishOffersRefreshed(ctx context.Context, productID string, offers []events.OfferSnapshot) error {
	event := events.New(events.TypeOffersRefreshed, events.OffersRefreshedData{
		ProductID: productID,
		Offers:    offers,
		Best:      bestOfSnapshots(offers),
	})

	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish offers refreshed event: %w", err)
	}

	logrus.WithField("product_id", productID).Info("Published offers refreshed")
	return nil
}

// bestOfSnapshots mirrors pickBestOffer for event payloads: stable sort
// by ascending price, ties resolve to the adapter's original ordering.
func bestOfSnapshots(offers []events.OfferSnapshot) *events.BestOffer {
	if len(offers) == 0 {
		return nil
	}

	views := make([]OfferView, 0, len(offers))
	for _, offer := range offers {
		views = append(views, OfferView{Marketplace: offer.Marketplace, Price: offer.Price})
	}
	return pickBestOffer(views)
}

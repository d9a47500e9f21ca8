// internal/services/ingestion_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/adapters"
	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/queue"
)

// emptyAdapter resolves every input to a payload without a title, which
// the pipeline treats as a retryable failure.
type emptyAdapter struct{}

func (a *emptyAdapter) Name() string { return "empty" }

func (a *emptyAdapter) CanHandle(_ adapters.ResolveInput) bool { return true }

func (a *emptyAdapter) ResolveProduct(_ context.Context, _ adapters.ResolveInput) (*adapters.ResolvedProduct, error) {
	return &adapters.ResolvedProduct{}, nil
}

// imagelessAdapter resolves a fresh title but no image, the shape a
// refresh takes when a marketplace listing drops its photo.
type imagelessAdapter struct{}

func (a *imagelessAdapter) Name() string { return "imageless" }

func (a *imagelessAdapter) CanHandle(_ adapters.ResolveInput) bool { return true }

func (a *imagelessAdapter) ResolveProduct(_ context.Context, _ adapters.ResolveInput) (*adapters.ResolvedProduct, error) {
	return &adapters.ResolvedProduct{
		Product: adapters.ResolvedProductInfo{Title: "Fresh Title"},
		Offers: []adapters.ResolvedOffer{
			{Marketplace: "lazada", StoreName: "Lazada Official Store", Price: 100, Currency: "THB"},
		},
	}, nil
}

type IngestionServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	publisher *fakePublisher
	service   *IngestionService
	product   models.Product
}

func (suite *IngestionServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.publisher = &fakePublisher{}

	mock := adapters.NewMockAdapter()
	suite.service = NewIngestionService(suite.db, suite.publisher, adapters.NewRegistry(mock), mock, true)

	suite.product = models.Product{Source: models.ProductSourceAdmin}
	suite.Require().NoError(suite.db.Create(&suite.product).Error)
}

func (suite *IngestionServiceTestSuite) ingest(input events.ProductInput) error {
	return suite.service.Ingest(context.Background(), queue.ProductIngestPayload{
		ProductID: suite.product.ID.String(),
		Input:     input,
	})
}

func (suite *IngestionServiceTestSuite) TestIngestPersistsProductAndOffers() {
	err := suite.ingest(events.ProductInput{URL: "https://www.lazada.co.th/products/iphone-15", Marketplace: "lazada"})
	suite.Require().NoError(err)

	var product models.Product
	suite.Require().NoError(suite.db.Preload("Offers").First(&product, "id = ?", suite.product.ID).Error)

	suite.Require().NotNil(product.Title)
	assert.Equal(suite.T(), "Apple iPhone 15 128GB", *product.Title)
	assert.Len(suite.T(), product.Offers, 2)
	for _, offer := range product.Offers {
		assert.Equal(suite.T(), "THB", offer.Currency)
		assert.False(suite.T(), offer.LastCheckedAt.IsZero())
	}
}

func (suite *IngestionServiceTestSuite) TestIngestReplacesOfferSet() {
	suite.Require().NoError(suite.ingest(events.ProductInput{SKU: "IPHONE-15"}))
	suite.Require().NoError(suite.ingest(events.ProductInput{SKU: "IPHONE-15"}))

	// Reingestion replaces offers instead of accumulating them.
	var count int64
	suite.Require().NoError(suite.db.Model(&models.Offer{}).
		Where("product_id = ?", suite.product.ID).Count(&count).Error)
	assert.EqualValues(suite.T(), 2, count)
}

func (suite *IngestionServiceTestSuite) TestIngestPublishesRefreshedOncePerRun() {
	suite.Require().NoError(suite.ingest(events.ProductInput{SKU: "AIRPODS-PRO"}))

	published := suite.publisher.eventsOfType(events.TypeOffersRefreshed)
	suite.Require().Len(published, 1)

	data, ok := published[0].Data.(events.OffersRefreshedData)
	suite.Require().True(ok)
	assert.Equal(suite.T(), suite.product.ID.String(), data.ProductID)
	assert.Len(suite.T(), data.Offers, 2)

	// The airpods fixture lists shopee cheapest.
	suite.Require().NotNil(data.Best)
	assert.Equal(suite.T(), "shopee", data.Best.Marketplace)
	assert.Equal(suite.T(), 7990.0, data.Best.Price)
}

func (suite *IngestionServiceTestSuite) TestIngestKeepsFirstIdentityFields() {
	sku := "iphone-15"
	suite.product.NormalizedSKU = &sku
	suite.Require().NoError(suite.db.Save(&suite.product).Error)

	suite.Require().NoError(suite.ingest(events.ProductInput{SKU: "IPHONE-15-REVISED"}))

	var product models.Product
	suite.Require().NoError(suite.db.First(&product, "id = ?", suite.product.ID).Error)
	suite.Require().NotNil(product.NormalizedSKU)
	assert.Equal(suite.T(), "iphone-15", *product.NormalizedSKU)
}

func (suite *IngestionServiceTestSuite) TestIngestUpdatesDisplayFields() {
	oldTitle := "Stale Title"
	suite.product.Title = &oldTitle
	suite.Require().NoError(suite.db.Save(&suite.product).Error)

	suite.Require().NoError(suite.ingest(events.ProductInput{SKU: "IPHONE-15"}))

	var product models.Product
	suite.Require().NoError(suite.db.First(&product, "id = ?", suite.product.ID).Error)
	suite.Require().NotNil(product.Title)
	assert.Equal(suite.T(), "Apple iPhone 15 128GB", *product.Title)
}

func (suite *IngestionServiceTestSuite) TestIngestCreatesMissingProductRow() {
	orphanID := uuid.New()
	err := suite.service.Ingest(context.Background(), queue.ProductIngestPayload{
		ProductID: orphanID.String(),
		Input:     events.ProductInput{SKU: "IPHONE-15"},
	})
	suite.Require().NoError(err)

	var product models.Product
	suite.Require().NoError(suite.db.First(&product, "id = ?", orphanID).Error)
	suite.Require().NotNil(product.Title)
}

func (suite *IngestionServiceTestSuite) TestIngestClearsDroppedImage() {
	image := "https://static.example.com/stale.jpg"
	title := "Stale Title"
	suite.product.Title = &title
	suite.product.ImageURL = &image
	suite.Require().NoError(suite.db.Save(&suite.product).Error)

	imageless := &imagelessAdapter{}
	service := NewIngestionService(suite.db, suite.publisher, adapters.NewRegistry(imageless), imageless, false)

	err := service.Ingest(context.Background(), queue.ProductIngestPayload{
		ProductID: suite.product.ID.String(),
		Input:     events.ProductInput{SKU: "IPHONE-15"},
	})
	suite.Require().NoError(err)

	// A refresh that resolves no image clears the stored one instead of
	// leaving it stale.
	var product models.Product
	suite.Require().NoError(suite.db.First(&product, "id = ?", suite.product.ID).Error)
	assert.Nil(suite.T(), product.ImageURL)
	suite.Require().NotNil(product.Title)
	assert.Equal(suite.T(), "Fresh Title", *product.Title)
}

func (suite *IngestionServiceTestSuite) TestIngestRejectsMissingProductID() {
	err := suite.service.Ingest(context.Background(), queue.ProductIngestPayload{})
	assert.ErrorIs(suite.T(), err, ErrMissingProductID)

	err = suite.service.Ingest(context.Background(), queue.ProductIngestPayload{ProductID: "not-a-uuid"})
	assert.ErrorIs(suite.T(), err, ErrMissingProductID)
}

func (suite *IngestionServiceTestSuite) TestIngestEmptyResolutionIsRetryable() {
	empty := &emptyAdapter{}
	service := NewIngestionService(suite.db, suite.publisher, adapters.NewRegistry(empty), empty, false)

	err := service.Ingest(context.Background(), queue.ProductIngestPayload{
		ProductID: suite.product.ID.String(),
		Input:     events.ProductInput{SKU: "IPHONE-15"},
	})

	assert.ErrorIs(suite.T(), err, ErrEmptyResolution)
	assert.Empty(suite.T(), suite.publisher.eventsOfType(events.TypeOffersRefreshed))
}

func TestIngestionServiceSuite(t *testing.T) {
	suite.Run(t, new(IngestionServiceTestSuite))
}

// Full admin flow: create a product, run the ingestion job it enqueued,
// then read the offer set back.
func TestCreateIngestGetOffersFlow(t *testing.T) {
	db := setupTestDB(t)
	publisher := &fakePublisher{}
	enqueuer := &fakeEnqueuer{}

	productService := NewProductService(db, publisher, enqueuer)
	mock := adapters.NewMockAdapter()
	ingestionService := NewIngestionService(db, publisher, adapters.NewRegistry(mock), mock, true)

	productID, err := productService.CreateProduct(context.Background(), &CreateProductRequest{
		URL:         "https://www.lazada.co.th/products/iphone-15",
		Marketplace: "lazada",
	})
	require.NoError(t, err)
	require.Len(t, enqueuer.ingests, 1)

	require.NoError(t, ingestionService.Ingest(context.Background(), enqueuer.ingests[0]))

	result, err := productService.GetOffers(productID)
	require.NoError(t, err)

	assert.Len(t, result.Offers, 2)
	require.NotNil(t, result.Best)
	assert.Equal(t, "lazada", result.Best.Marketplace)
	assert.Equal(t, 28900.0, result.Best.Price)
	require.NotNil(t, result.Product.Title)
	assert.Equal(t, "Apple iPhone 15 128GB", *result.Product.Title)

	// The whole flow emits exactly one offers refresh.
	assert.Len(t, publisher.eventsOfType(events.TypeOffersRefreshed), 1)
}

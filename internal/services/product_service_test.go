// internal/services/product_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/queue"
	"github.com/affilink/affiliate-backend/internal/utils"
)

type ProductServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	publisher *fakePublisher
	enqueuer  *fakeEnqueuer
	service   *ProductService
}

func (suite *ProductServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.publisher = &fakePublisher{}
	suite.enqueuer = &fakeEnqueuer{}
	suite.service = NewProductService(suite.db, suite.publisher, suite.enqueuer)
}

func (suite *ProductServiceTestSuite) TestCreateProductPublishesAndEnqueues() {
	productID, err := suite.service.CreateProduct(context.Background(), &CreateProductRequest{
		URL:         "https://www.lazada.co.th/products/iphone-15",
		Marketplace: "lazada",
	})

	suite.Require().NoError(err)
	assert.NotEqual(suite.T(), uuid.Nil, productID)

	published := suite.publisher.eventsOfType(events.TypeProductAdded)
	suite.Require().Len(published, 1)
	data, ok := published[0].Data.(events.ProductAddedData)
	suite.Require().True(ok)
	assert.Equal(suite.T(), productID.String(), data.ProductID)
	assert.Equal(suite.T(), "admin", data.Source)

	suite.Require().Len(suite.enqueuer.ingests, 1)
	assert.Equal(suite.T(), productID.String(), suite.enqueuer.ingests[0].ProductID)
}

func (suite *ProductServiceTestSuite) TestCreateProductRequiresURLOrSKU() {
	_, err := suite.service.CreateProduct(context.Background(), &CreateProductRequest{
		Marketplace: "lazada",
	})

	suite.Require().Error(err)
	assert.Contains(suite.T(), err.Error(), "url or sku")
}

func (suite *ProductServiceTestSuite) TestCreateProductNormalizesSKU() {
	productID, err := suite.service.CreateProduct(context.Background(), &CreateProductRequest{
		SKU: "IPHONE-15-128",
	})
	suite.Require().NoError(err)

	var product models.Product
	suite.Require().NoError(suite.db.First(&product, "id = ?", productID).Error)
	suite.Require().NotNil(product.NormalizedSKU)
	assert.Equal(suite.T(), "iphone-15-128", *product.NormalizedSKU)
}

func (suite *ProductServiceTestSuite) TestDuplicateEnqueueCoalesces() {
	productID, err := suite.service.CreateProduct(context.Background(), &CreateProductRequest{
		SKU: "IPHONE-15",
	})
	suite.Require().NoError(err)

	// A second ingest request for the same product while one is queued
	// is absorbed by the queue layer.
	err = suite.enqueuer.EnqueueProductIngest(context.Background(), queue.ProductIngestPayload{
		ProductID: productID.String(),
	})
	suite.Require().NoError(err)
	assert.Len(suite.T(), suite.enqueuer.ingests, 1)
}

func (suite *ProductServiceTestSuite) TestGetOffersPicksCheapest() {
	productID := suite.seedProductWithOffers()

	result, err := suite.service.GetOffers(productID)
	suite.Require().NoError(err)

	assert.Len(suite.T(), result.Offers, 3)
	suite.Require().NotNil(result.Best)
	assert.Equal(suite.T(), "shopee", result.Best.Marketplace)
	assert.Equal(suite.T(), 7990.0, result.Best.Price)
}

func (suite *ProductServiceTestSuite) TestGetOffersTieKeepsStoredOrder() {
	product := models.Product{Source: models.ProductSourceAdmin}
	suite.Require().NoError(suite.db.Create(&product).Error)

	offers := []models.Offer{
		{ProductID: product.ID, Marketplace: models.MarketplaceLazada, StoreName: "Lazada", Price: 100, Currency: "THB"},
		{ProductID: product.ID, Marketplace: models.MarketplaceShopee, StoreName: "Shopee", Price: 100, Currency: "THB"},
	}
	suite.Require().NoError(suite.db.Create(&offers).Error)

	result, err := suite.service.GetOffers(product.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(result.Best)
	assert.Equal(suite.T(), "lazada", result.Best.Marketplace)
}

func (suite *ProductServiceTestSuite) TestGetOffersEmptyProduct() {
	product := models.Product{Source: models.ProductSourceAdmin}
	suite.Require().NoError(suite.db.Create(&product).Error)

	result, err := suite.service.GetOffers(product.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), result.Offers)
	assert.Nil(suite.T(), result.Best)
}

func (suite *ProductServiceTestSuite) TestGetOffersUnknownProduct() {
	_, err := suite.service.GetOffers(uuid.New())
	suite.Require().Error(err)
	assert.Contains(suite.T(), err.Error(), "not found")
}

func (suite *ProductServiceTestSuite) TestListProductsSearchesByTitle() {
	title := "Apple iPhone 15"
	product := models.Product{Source: models.ProductSourceAdmin, Title: &title}
	suite.Require().NoError(suite.db.Create(&product).Error)

	other := models.Product{Source: models.ProductSourceAdmin}
	suite.Require().NoError(suite.db.Create(&other).Error)

	summaries, total, err := suite.service.ListProducts(utils.PaginationParams{
		Page: 1, Limit: 20, Search: "iphone",
	})
	suite.Require().NoError(err)
	assert.EqualValues(suite.T(), 1, total)
	suite.Require().Len(summaries, 1)
	assert.Equal(suite.T(), product.ID, summaries[0].ID)
}

func (suite *ProductServiceTestSuite) seedProductWithOffers() uuid.UUID {
	product := models.Product{Source: models.ProductSourceAdmin}
	suite.Require().NoError(suite.db.Create(&product).Error)

	offers := []models.Offer{
		{ProductID: product.ID, Marketplace: models.MarketplaceLazada, StoreName: "Lazada Official Store", Price: 8290, Currency: "THB"},
		{ProductID: product.ID, Marketplace: models.MarketplaceShopee, StoreName: "Shopee Mall", Price: 7990, Currency: "THB"},
		{ProductID: product.ID, Marketplace: models.MarketplaceLazada, StoreName: "Reseller", Price: 8590, Currency: "THB"},
	}
	suite.Require().NoError(suite.db.Create(&offers).Error)

	return product.ID
}

func TestProductServiceSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

// internal/services/link_service_test.go
package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
)

type LinkServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	publisher *fakePublisher
	service   *LinkService
	product   models.Product
}

func (suite *LinkServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.publisher = &fakePublisher{}
	suite.service = NewLinkService(suite.db, suite.publisher, nil)

	suite.product = models.Product{Source: models.ProductSourceAdmin}
	suite.Require().NoError(suite.db.Create(&suite.product).Error)
}

func (suite *LinkServiceTestSuite) TestCreateLinkGeneratesShortCode() {
	resp, err := suite.service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   suite.product.ID,
		Marketplace: "lazada",
		TargetURL:   "https://www.lazada.co.th/products/iphone-15",
	})

	suite.Require().NoError(err)
	assert.Len(suite.T(), resp.ShortCode, 8)
	assert.Regexp(suite.T(), regexp.MustCompile(`^[0-9a-z]{8}$`), resp.ShortCode)
	assert.Equal(suite.T(), "affiliate", *resp.UTMSource)
	assert.Equal(suite.T(), "cpc", *resp.UTMMedium)
	assert.Nil(suite.T(), resp.UTMCampaign)
}

func (suite *LinkServiceTestSuite) TestCreateLinkCodesAreUnique() {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		resp, err := suite.service.CreateLink(context.Background(), &CreateLinkRequest{
			ProductID:   suite.product.ID,
			Marketplace: "shopee",
			TargetURL:   "https://shopee.co.th/product/123",
		})
		suite.Require().NoError(err)
		assert.False(suite.T(), seen[resp.ShortCode], "short code %s reused", resp.ShortCode)
		seen[resp.ShortCode] = true
	}
}

func (suite *LinkServiceTestSuite) TestCreateLinkInheritsCampaignUTM() {
	utm := "summer-sale"
	campaign := models.Campaign{
		Name:        "Summer Sale",
		UTMCampaign: &utm,
		Status:      models.CampaignStatusPublished,
	}
	suite.Require().NoError(suite.db.Create(&campaign).Error)

	resp, err := suite.service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   suite.product.ID,
		CampaignID:  &campaign.ID,
		Marketplace: "lazada",
		TargetURL:   "https://www.lazada.co.th/products/iphone-15",
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(resp.UTMCampaign)
	assert.Equal(suite.T(), "summer-sale", *resp.UTMCampaign)
}

func (suite *LinkServiceTestSuite) TestCreateLinkExplicitUTMBeatsCampaign() {
	utm := "summer-sale"
	campaign := models.Campaign{Name: "Summer Sale", UTMCampaign: &utm}
	suite.Require().NoError(suite.db.Create(&campaign).Error)

	resp, err := suite.service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   suite.product.ID,
		CampaignID:  &campaign.ID,
		Marketplace: "lazada",
		TargetURL:   "https://www.lazada.co.th/products/iphone-15",
		UTMCampaign: "override",
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(resp.UTMCampaign)
	assert.Equal(suite.T(), "override", *resp.UTMCampaign)
}

func (suite *LinkServiceTestSuite) TestCreateLinkUnknownProduct() {
	_, err := suite.service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   uuid.New(),
		Marketplace: "lazada",
		TargetURL:   "https://www.lazada.co.th/products/iphone-15",
	})

	suite.Require().Error(err)
	assert.Contains(suite.T(), err.Error(), "not found")
}

func (suite *LinkServiceTestSuite) TestCreateLinkUnknownCampaign() {
	missing := uuid.New()
	_, err := suite.service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   suite.product.ID,
		CampaignID:  &missing,
		Marketplace: "lazada",
		TargetURL:   "https://www.lazada.co.th/products/iphone-15",
	})

	suite.Require().Error(err)
	assert.Contains(suite.T(), err.Error(), "not found")
}

func (suite *LinkServiceTestSuite) TestCreateLinkEnforcesAllowlist() {
	service := NewLinkService(suite.db, suite.publisher, []string{"lazada.co.th", "shopee.co.th"})

	_, err := service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   suite.product.ID,
		Marketplace: "lazada",
		TargetURL:   "https://evil.example.com/phishing",
	})
	assert.ErrorIs(suite.T(), err, ErrTargetHostNotAllowed)

	// Subdomains of an allowed host pass.
	resp, err := service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   suite.product.ID,
		Marketplace: "lazada",
		TargetURL:   "https://www.lazada.co.th/products/iphone-15",
	})
	suite.Require().NoError(err)
	assert.NotEmpty(suite.T(), resp.ShortCode)
}

func (suite *LinkServiceTestSuite) TestCreateLinkPublishesEvent() {
	resp, err := suite.service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   suite.product.ID,
		Marketplace: "shopee",
		TargetURL:   "https://shopee.co.th/product/123",
	})
	suite.Require().NoError(err)

	published := suite.publisher.eventsOfType(events.TypeLinkCreated)
	suite.Require().Len(published, 1)

	data, ok := published[0].Data.(events.LinkCreatedData)
	suite.Require().True(ok)
	assert.Equal(suite.T(), resp.ShortCode, data.ShortCode)
	assert.Equal(suite.T(), suite.product.ID.String(), data.ProductID)
}

func (suite *LinkServiceTestSuite) TestCreateLinkRejectsInvalidMarketplace() {
	_, err := suite.service.CreateLink(context.Background(), &CreateLinkRequest{
		ProductID:   suite.product.ID,
		Marketplace: "amazon",
		TargetURL:   "https://www.amazon.com/dp/B0ABCDEF",
	})

	assert.Error(suite.T(), err)
}

func TestLinkServiceSuite(t *testing.T) {
	suite.Run(t, new(LinkServiceTestSuite))
}

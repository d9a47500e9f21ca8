// internal/handlers/redirect_test.go
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/queue"
	"github.com/affilink/affiliate-backend/internal/services"
)

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ events.Event) error { return nil }

func (noopPublisher) Close() error { return nil }

type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueProductIngest(_ context.Context, _ queue.ProductIngestPayload) error {
	return nil
}

func (noopEnqueuer) EnqueueLinkClicked(_ context.Context, _ queue.LinkClickedPayload) error {
	return nil
}

func (noopEnqueuer) EnqueueCampaignPublish(_ context.Context, _ queue.CampaignPublishPayload) error {
	return nil
}

func (noopEnqueuer) Close() error { return nil }

type RedirectHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (suite *RedirectHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(
		&models.Product{}, &models.Offer{}, &models.Campaign{}, &models.Link{}, &models.Click{},
	))
	suite.db = db

	redirectService := services.NewRedirectService(db, noopPublisher{}, noopEnqueuer{}, "test-secret")
	handler := NewRedirectHandler(redirectService)

	suite.router = gin.New()
	suite.router.GET("/go/:code", handler.Redirect)
}

func (suite *RedirectHandlerTestSuite) seedLink(code string) models.Link {
	product := models.Product{Source: models.ProductSourceAdmin}
	suite.Require().NoError(suite.db.Create(&product).Error)

	link := models.Link{
		ProductID:   product.ID,
		ShortCode:   code,
		Marketplace: models.MarketplaceLazada,
		TargetURL:   "https://www.lazada.co.th/products/iphone-15",
	}
	suite.Require().NoError(suite.db.Create(&link).Error)
	return link
}

func (suite *RedirectHandlerTestSuite) TestRedirectFound() {
	link := suite.seedLink("01hx2abc")

	req, err := http.NewRequest("GET", "/go/01hx2abc", nil)
	require.NoError(suite.T(), err)
	req.Header.Set("Referer", "https://www.facebook.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.RemoteAddr = "203.0.113.7:54321"

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), link.TargetURL, w.Header().Get("Location"))

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Click{}).Count(&count).Error)
	assert.EqualValues(suite.T(), 1, count)
}

func (suite *RedirectHandlerTestSuite) TestRedirectUnknownCode() {
	req, err := http.NewRequest("GET", "/go/zzzzzzzz", nil)
	require.NoError(suite.T(), err)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Click{}).Count(&count).Error)
	assert.Zero(suite.T(), count)
}

func TestRedirectHandlerSuite(t *testing.T) {
	suite.Run(t, new(RedirectHandlerTestSuite))
}

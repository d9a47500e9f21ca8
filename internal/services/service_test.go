// internal/services/service_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/queue"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Product{},
		&models.Offer{},
		&models.Campaign{},
		&models.Link{},
		&models.Click{},
	)
	require.NoError(t, err)

	return db
}

// fakePublisher records every published event in order.
type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) eventsOfType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []events.Event
	for _, event := range p.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// fakeEnqueuer records enqueued payloads and mimics the task-ID
// coalescing of the real queue client for ingestion jobs.
type fakeEnqueuer struct {
	mu        sync.Mutex
	ingests   []queue.ProductIngestPayload
	clicks    []queue.LinkClickedPayload
	campaigns []queue.CampaignPublishPayload
	err       error
}

func (e *fakeEnqueuer) EnqueueProductIngest(ctx context.Context, payload queue.ProductIngestPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	for _, existing := range e.ingests {
		if existing.ProductID == payload.ProductID {
			return nil
		}
	}
	e.ingests = append(e.ingests, payload)
	return nil
}

func (e *fakeEnqueuer) EnqueueLinkClicked(ctx context.Context, payload queue.LinkClickedPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.clicks = append(e.clicks, payload)
	return nil
}

func (e *fakeEnqueuer) EnqueueCampaignPublish(ctx context.Context, payload queue.CampaignPublishPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.campaigns = append(e.campaigns, payload)
	return nil
}

func (e *fakeEnqueuer) Close() error { return nil }

var errBusDown = errors.New("bus unavailable")

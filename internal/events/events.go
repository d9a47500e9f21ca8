// internal/events/events.go
package events

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Known event types. The ".v1" suffix is the schema version baked into
// the type tag; Version carries the same number for consumers that
// filter numerically.
const (
	TypeProductAdded      = "product.added.v1"
	TypeOffersRefreshed   = "offers.refreshed.v1"
	TypeLinkCreated       = "link.created.v1"
	TypeLinkClicked       = "link.clicked.v1"
	TypeCampaignCreated   = "campaign.created.v1"
	TypeCampaignUpdated   = "campaign.updated.v1"
	TypeCampaignPublished = "campaign.published.v1"
)

// Event is an immutable, versioned fact appended to a named stream.
// ID is a ULID, so events sort lexicographically by creation time.
type Event struct {
	ID      string      `json:"id"`
	TS      string      `json:"ts"`
	Type    string      `json:"type"`
	Version int         `json:"version"`
	Data    interface{} `json:"data"`
}

func New(eventType string, data interface{}) Event {
	return Event{
		ID:      ulid.Make().String(),
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Type:    eventType,
		Version: 1,
		Data:    data,
	}
}

type ProductInput struct {
	URL         string `json:"url,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Marketplace string `json:"marketplace,omitempty"`
}

type ProductAddedData struct {
	ProductID string       `json:"productId"`
	Source    string       `json:"source"`
	Input     ProductInput `json:"input"`
}

type OfferSnapshot struct {
	Marketplace   string  `json:"marketplace"`
	StoreName     string  `json:"storeName"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	LastCheckedAt string  `json:"lastCheckedAt"`
}

type BestOffer struct {
	Marketplace string  `json:"marketplace"`
	Price       float64 `json:"price"`
}

type OffersRefreshedData struct {
	ProductID string          `json:"productId"`
	Offers    []OfferSnapshot `json:"offers"`
	Best      *BestOffer      `json:"best"`
}

type LinkCreatedData struct {
	LinkID      string  `json:"linkId"`
	ProductID   string  `json:"productId"`
	CampaignID  *string `json:"campaignId"`
	ShortCode   string  `json:"shortCode"`
	Marketplace string  `json:"marketplace"`
	TargetURL   string  `json:"targetUrl"`
}

type LinkClickedData struct {
	LinkID      string  `json:"linkId"`
	Code        string  `json:"code"`
	ProductID   string  `json:"productId"`
	CampaignID  *string `json:"campaignId"`
	Marketplace string  `json:"marketplace"`
	Referrer    *string `json:"referrer"`
	UserAgent   *string `json:"userAgent"`
	IPHash      *string `json:"ipHash"`
}

type CampaignData struct {
	CampaignID string  `json:"campaignId"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	StartAt    *string `json:"startAt"`
	EndAt      *string `json:"endAt"`
}

type CampaignPublishedData struct {
	CampaignID  string `json:"campaignId"`
	PublishedAt string `json:"publishedAt"`
}

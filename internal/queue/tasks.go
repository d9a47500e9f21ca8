// internal/queue/tasks.go
package queue

import "github.com/affilink/affiliate-backend/internal/events"

// Task type names routed by the worker mux.
const (
	TaskProductIngest   = "product:ingest"
	TaskLinkClicked     = "link:clicked"
	TaskCampaignPublish = "campaign:publish"
)

type ProductIngestPayload struct {
	ProductID string              `json:"productId"`
	Input     events.ProductInput `json:"input"`
}

type ClickMetadata struct {
	IPHash    *string `json:"ipHash"`
	UserAgent *string `json:"userAgent"`
	Referrer  *string `json:"referrer"`
}

type LinkClickedPayload struct {
	LinkID   string        `json:"linkId"`
	ClickID  int64         `json:"clickId"`
	Metadata ClickMetadata `json:"metadata"`
}

type CampaignPublishPayload struct {
	CampaignID string `json:"campaignId"`
}

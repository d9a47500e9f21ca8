// internal/queue/client.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Enqueuer hands jobs to the durable queue. Implementations must
// coalesce duplicate ingestion jobs for the same product.
type Enqueuer interface {
	EnqueueProductIngest(ctx context.Context, payload ProductIngestPayload) error
	EnqueueLinkClicked(ctx context.Context, payload LinkClickedPayload) error
	EnqueueCampaignPublish(ctx context.Context, payload CampaignPublishPayload) error
	Close() error
}

type Client struct {
	client *asynq.Client
}

func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// EnqueueProductIngest schedules an ingestion run. The task ID is the
// product ID, so a second enqueue for the same product while one is
// still queued or active is coalesced by the queue layer.
func (c *Client) EnqueueProductIngest(ctx context.Context, payload ProductIngestPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ingest payload: %w", err)
	}

	task := asynq.NewTask(TaskProductIngest, data)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(payload.ProductID),
		asynq.MaxRetry(5),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logrus.WithField("product_id", payload.ProductID).
			Debug("Ingestion already queued for product, coalescing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue product ingest: %w", err)
	}
	return nil
}

func (c *Client) EnqueueLinkClicked(ctx context.Context, payload LinkClickedPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal click payload: %w", err)
	}

	task := asynq.NewTask(TaskLinkClicked, data)
	if _, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue link clicked: %w", err)
	}
	return nil
}

func (c *Client) EnqueueCampaignPublish(ctx context.Context, payload CampaignPublishPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign payload: %w", err)
	}

	task := asynq.NewTask(TaskCampaignPublish, data)
	_, err = c.client.EnqueueContext(ctx, task, asynq.TaskID(payload.CampaignID))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue campaign publish: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

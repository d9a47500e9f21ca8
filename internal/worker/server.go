// internal/worker/server.go
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/affilink/affiliate-backend/internal/config"
	"github.com/affilink/affiliate-backend/internal/queue"
	"github.com/affilink/affiliate-backend/internal/services"
)

// Server consumes background jobs from the queue and dispatches them
// to the owning services.
type Server struct {
	srv       *asynq.Server
	mux       *asynq.ServeMux
	ingestion *services.IngestionService
}

func NewServer(redisOpt asynq.RedisClientOpt, cfg config.WorkerConfig, ingestion *services.IngestionService) *Server {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		// Exponential backoff starting at five seconds.
		RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
			return 5 * time.Second * (1 << n)
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logrus.WithFields(logrus.Fields{
				"task_type": task.Type(),
				"error":     err.Error(),
			}).Error("Task failed")
		}),
	})

	s := &Server{srv: srv, mux: asynq.NewServeMux(), ingestion: ingestion}
	s.mux.HandleFunc(queue.TaskProductIngest, s.handleProductIngest)
	s.mux.HandleFunc(queue.TaskLinkClicked, s.handleLinkClicked)
	s.mux.HandleFunc(queue.TaskCampaignPublish, s.handleCampaignPublish)
	return s
}

func (s *Server) Run() error {
	return s.srv.Run(s.mux)
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

func (s *Server) handleProductIngest(ctx context.Context, task *asynq.Task) error {
	var payload queue.ProductIngestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid ingest payload: %v: %w", err, asynq.SkipRetry)
	}

	logrus.WithField("product_id", payload.ProductID).Info("Ingesting product")

	if err := s.ingestion.Ingest(ctx, payload); err != nil {
		if errors.Is(err, services.ErrMissingProductID) {
			// Malformed job, retrying cannot help.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// handleLinkClicked receives the post-redirect click job. The click row
// is already persisted by the redirect path, so this stage only records
// the delivery for downstream processors.
func (s *Server) handleLinkClicked(ctx context.Context, task *asynq.Task) error {
	var payload queue.LinkClickedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid click payload: %v: %w", err, asynq.SkipRetry)
	}

	logrus.WithFields(logrus.Fields{
		"link_id":  payload.LinkID,
		"click_id": payload.ClickID,
	}).Info("Processed click job")
	return nil
}

func (s *Server) handleCampaignPublish(ctx context.Context, task *asynq.Task) error {
	var payload queue.CampaignPublishPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid campaign payload: %v: %w", err, asynq.SkipRetry)
	}

	logrus.WithField("campaign_id", payload.CampaignID).Info("Processed campaign publish job")
	return nil
}

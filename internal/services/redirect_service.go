// internal/services/redirect_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/models"
	"github.com/affilink/affiliate-backend/internal/queue"
	"github.com/affilink/affiliate-backend/internal/utils"
)

var ErrLinkNotFound = errors.New("link not found")

// RequestMeta carries the request context the redirect path needs:
// headers and the transport-layer remote address.
type RequestMeta struct {
	Referrer      string
	UserAgent     string
	ForwardedFor  string
	RemoteAddress string
}

type RedirectResult struct {
	TargetURL string
	ClickID   int64
}

// RedirectService resolves short codes the public redirect URL carries.
// The click write is authoritative: its failure fails the resolution.
// Event publish and the analytics enqueue are best-effort relative to
// the redirect itself, so a slow or unavailable bus never blocks the
// user-facing response.
type RedirectService struct {
	db           *gorm.DB
	publisher    events.Publisher
	enqueuer     queue.Enqueuer
	ipHashSecret string
}

func NewRedirectService(db *gorm.DB, publisher events.Publisher, enqueuer queue.Enqueuer, ipHashSecret string) *RedirectService {
	return &RedirectService{
		db:           db,
		publisher:    publisher,
		enqueuer:     enqueuer,
		ipHashSecret: ipHashSecret,
	}
}

func (s *RedirectService) Resolve(ctx context.Context, code string, meta RequestMeta) (*RedirectResult, error) {
	// Lookup
	var link models.Link
	if err := s.db.First(&link, "short_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Record
	click := &models.Click{
		LinkID:     link.ID,
		OccurredAt: time.Now().UTC(),
		Referrer:   optionalString(meta.Referrer),
		UserAgent:  optionalString(meta.UserAgent),
		IPHash:     s.hashIP(s.candidateIP(meta)),
	}
	if err := s.db.Create(click).Error; err != nil {
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	// Notify
	s.notify(ctx, &link, click)

	// Respond
	return &RedirectResult{TargetURL: link.TargetURL, ClickID: click.ID}, nil
}

func (s *RedirectService) notify(ctx context.Context, link *models.Link, click *models.Click) {
	event := events.New(events.TypeLinkClicked, events.LinkClickedData{
		LinkID:      link.ID.String(),
		Code:        link.ShortCode,
		ProductID:   link.ProductID.String(),
		CampaignID:  uuidPtrToString(link.CampaignID),
		Marketplace: string(link.Marketplace),
		Referrer:    click.Referrer,
		UserAgent:   click.UserAgent,
		IPHash:      click.IPHash,
	})

	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("link_id", link.ID).
			Error("Failed to publish link clicked event")
	}

	err := s.enqueuer.EnqueueLinkClicked(ctx, queue.LinkClickedPayload{
		LinkID:  link.ID.String(),
		ClickID: click.ID,
		Metadata: queue.ClickMetadata{
			IPHash:    click.IPHash,
			UserAgent: click.UserAgent,
			Referrer:  click.Referrer,
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("click_id", click.ID).
			Error("Failed to enqueue click analytics job")
	}
}

// candidateIP resolves the client address: the first entry of the
// x-forwarded-for chain when present, otherwise the transport-layer
// remote address (with any port stripped).
func (s *RedirectService) candidateIP(meta RequestMeta) string {
	if meta.ForwardedFor != "" {
		first := strings.TrimSpace(strings.Split(meta.ForwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(meta.RemoteAddress); err == nil {
		return host
	}
	return meta.RemoteAddress
}

func (s *RedirectService) hashIP(ip string) *string {
	if ip == "" {
		return nil
	}
	digest := utils.HashIP(s.ipHashSecret, ip)
	return &digest
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

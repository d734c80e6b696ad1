package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	id "fatepack/pkg/domain"
	dErrors "fatepack/pkg/domain-errors"
	"fatepack/pkg/platform/audit"
	"fatepack/pkg/platform/sentinel"
	"fatepack/pkg/requestcontext"

	"fatepack/internal/notification/fanout"
	"fatepack/internal/notification/models"
	"fatepack/internal/platform/metrics"
)

// Store is the endpoint persistence surface.
type Store interface {
	Upsert(ctx context.Context, endpoint *models.Endpoint) (*models.Endpoint, error)
	ListByResident(ctx context.Context, residentID id.ResidentID) ([]*models.Endpoint, error)
	DeleteByURL(ctx context.Context, residentID id.ResidentID, url string) error
	DeleteByID(ctx context.Context, endpointID id.EndpointID) error
}

// RecipientSource lists every resident id, for announcements. The resident
// store implements it.
type RecipientSource interface {
	ListIDs(ctx context.Context) ([]id.ResidentID, error)
}

// Service owns push subscriptions and notification dispatch.
type Service struct {
	endpoints  Store
	dispatcher *fanout.Dispatcher
	recipients RecipientSource
	// batchDelay spaces successive logical notifications in a broadcast so
	// a large announcement does not hammer the transport.
	batchDelay time.Duration
	auditor    audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(endpoints Store, dispatcher *fanout.Dispatcher, recipients RecipientSource, batchDelay time.Duration, auditor audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		endpoints:  endpoints,
		dispatcher: dispatcher,
		recipients: recipients,
		batchDelay: batchDelay,
		auditor:    auditor,
		metrics:    m,
		logger:     logger,
	}
}

// Subscribe registers a push endpoint for the resident. Subscribing the same
// URL again refreshes the credential. The device name is derived from the
// User-Agent header for the resident's device list.
func (s *Service) Subscribe(ctx context.Context, residentID id.ResidentID, url, secret, userAgent string) (*models.Endpoint, error) {
	endpoint, err := models.NewEndpoint(id.EndpointID(uuid.New()), residentID, url, secret,
		deviceName(userAgent), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	stored, err := s.endpoints.Upsert(ctx, endpoint)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store endpoint")
	}

	s.emit(ctx, audit.Event{
		Kind:    audit.KindEndpointSubscribed,
		ActorID: residentID.String(),
		Subject: stored.ID.String(),
		Detail:  map[string]string{"device": stored.Device},
		At:      requestcontext.Now(ctx),
	})
	return stored, nil
}

// Unsubscribe removes the resident's endpoint for the given URL. Removing an
// endpoint that is already gone is a no-op.
func (s *Service) Unsubscribe(ctx context.Context, residentID id.ResidentID, url string) error {
	if err := s.endpoints.DeleteByURL(ctx, residentID, url); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove endpoint")
	}
	s.emit(ctx, audit.Event{
		Kind:    audit.KindEndpointUnsubscribe,
		ActorID: residentID.String(),
		At:      requestcontext.Now(ctx),
	})
	return nil
}

// NotifyResident pushes one message to all of the resident's endpoints and
// prunes the ones the transport reports gone. A resident with no endpoints
// is not an error.
func (s *Service) NotifyResident(ctx context.Context, residentID id.ResidentID, title, body string) error {
	endpoints, err := s.endpoints.ListByResident(ctx, residentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list endpoints")
	}
	if len(endpoints) == 0 {
		return nil
	}

	result, err := s.dispatcher.Notify(ctx, endpoints, models.Payload{Title: title, Body: body})
	if err != nil {
		return err
	}
	s.settle(ctx, result)
	return nil
}

// BroadcastResult summarizes one announcement fan-out.
type BroadcastResult struct {
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}

// Broadcast pushes an announcement to every resident, one logical
// notification per resident, spaced by the batch delay. Individual failures
// are counted, never fatal.
func (s *Service) Broadcast(ctx context.Context, title, body string) (BroadcastResult, error) {
	payload := models.Payload{Title: title, Body: body}
	if err := payload.Validate(); err != nil {
		return BroadcastResult{}, err
	}

	recipients, err := s.recipients.ListIDs(ctx)
	if err != nil {
		return BroadcastResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list recipients")
	}

	var out BroadcastResult
	for i, residentID := range recipients {
		if i > 0 && s.batchDelay > 0 {
			select {
			case <-time.After(s.batchDelay):
			case <-ctx.Done():
				return out, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "broadcast interrupted")
			}
		}

		endpoints, err := s.endpoints.ListByResident(ctx, residentID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to list endpoints for broadcast",
				"error", err.Error(),
				"resident_id", residentID,
			)
			continue
		}
		if len(endpoints) == 0 {
			continue
		}

		result, err := s.dispatcher.Notify(ctx, endpoints, payload)
		if err != nil {
			return out, err
		}
		s.settle(ctx, result)
		out.Recipients++
		out.Sent += result.Sent
		out.Failed += result.Failed
	}

	s.emit(ctx, audit.Event{
		Kind:    audit.KindAnnouncementPosted,
		ActorID: requestcontext.ResidentID(ctx).String(),
		Detail:  map[string]string{"title": title},
		At:      requestcontext.Now(ctx),
	})
	return out, nil
}

// settle records metrics and prunes endpoints flagged gone by the transport.
func (s *Service) settle(ctx context.Context, result models.FanoutResult) {
	if s.metrics != nil {
		s.metrics.PushSent.Add(float64(result.Sent))
		s.metrics.PushFailed.Add(float64(result.Failed))
	}
	for _, outcome := range result.PerEndpoint {
		if !outcome.Gone {
			continue
		}
		if err := s.endpoints.DeleteByID(ctx, outcome.EndpointID); err != nil {
			s.logger.WarnContext(ctx, "failed to prune gone endpoint",
				"error", err.Error(),
				"endpoint_id", outcome.EndpointID,
			)
			continue
		}
		if s.metrics != nil {
			s.metrics.EndpointsPruned.Inc()
		}
		s.logger.InfoContext(ctx, "pruned gone push endpoint", "endpoint_id", outcome.EndpointID)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, event)
}

// deviceName condenses a User-Agent header into a short label like
// "Chrome on Android".
func deviceName(header string) string {
	if header == "" {
		return ""
	}
	ua := useragent.New(header)
	name, _ := ua.Browser()
	os := ua.OSInfo().Name
	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	default:
		return os
	}
}

// Package management serves the filtered lead listings, the client purge,
// scheduling webhook ingestion and dashboard permissions.
package management

import (
	"context"
	"errors"
	"time"

	"bda_portal_backend/internal/events"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/repository"
	"bda_portal_backend/internal/leads/transport"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/phone"
	"bda_portal_backend/platform/sanitize"
)

// Repository defines the data access interface needed by the management service.
// This is a consumer-driven interface - only what management needs.
type Repository interface {
	repository.LeadReader
	repository.StatsReader
	repository.LeadWriter
}

// Service handles lead listing and lifecycle operations outside the claim view.
type Service struct {
	repo        Repository
	eventBus    events.Bus
	phoneRegion string
	log         *logger.Logger
}

// New creates a new lead management service.
func New(repo Repository, eventBus events.Bus, phoneRegion string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, eventBus: eventBus, phoneRegion: phoneRegion, log: log}
}

// ListLeads backs the leads table; dates filter on booking creation.
func (s *Service) ListLeads(ctx context.Context, req transport.ListLeadsRequest) (transport.ListResponse, error) {
	return s.list(ctx, req, repository.DateFieldCreated)
}

// ListCampaignBookings backs the campaign views; dates filter on the meeting time.
func (s *Service) ListCampaignBookings(ctx context.Context, req transport.ListLeadsRequest) (transport.ListResponse, error) {
	return s.list(ctx, req, repository.DateFieldScheduled)
}

func (s *Service) list(ctx context.Context, req transport.ListLeadsRequest, field repository.DateField) (transport.ListResponse, error) {
	params, page, err := transport.ToListParams(req, field)
	if err != nil {
		return transport.ListResponse{}, err
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ListResponse{}, err
	}
	stats, err := s.repo.Stats(ctx, params)
	if err != nil {
		return transport.ListResponse{}, err
	}

	return transport.ListResponse{
		Items:      transport.ToLeadResponses(leads),
		Pagination: page.WithTotal(total),
		Stats:      transport.ToStatsResponse(stats),
	}, nil
}

// DeleteByEmail purges every booking of a client. Repeating it is a no-op
// that reports zero deletions.
func (s *Service) DeleteByEmail(ctx context.Context, actor domain.Actor, email string) (transport.DeleteResponse, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return transport.DeleteResponse{}, apperr.Validation("email is required")
	}

	deleted, err := s.repo.DeleteByEmail(ctx, email)
	if err != nil {
		return transport.DeleteResponse{}, err
	}

	if deleted > 0 {
		s.log.WithContext(ctx).Info("client records deleted", "clientEmail", email, "deleted", deleted)
		if s.eventBus != nil {
			s.eventBus.Publish(ctx, events.LeadsDeleted{
				BaseEvent:   events.NewBaseEvent(),
				ClientEmail: email,
				Deleted:     deleted,
				ActorEmail:  actor.Email,
			})
		}
	}
	return transport.DeleteResponse{Email: email, Deleted: deleted}, nil
}

// IngestScheduled stores a booking from the scheduling webhook. Re-delivery of
// the same booking refreshes scheduling data only.
func (s *Service) IngestScheduled(ctx context.Context, lead domain.Lead) (domain.Lead, bool, error) {
	if lead.BookingID == "" {
		return domain.Lead{}, false, apperr.Validation("booking id is required")
	}
	lead.ClientEmail = domain.NormalizeEmail(lead.ClientEmail)
	if lead.ClientEmail == "" {
		return domain.Lead{}, false, apperr.Validation("client email is required")
	}
	lead.ClientName = sanitize.Name(lead.ClientName)
	lead.AnythingToKnow = sanitize.Text(lead.AnythingToKnow)
	lead.UTMSource = domain.NormalizeUTMSource(lead.UTMSource)
	if lead.ClientPhone != nil {
		normalized := phone.NormalizeE164(*lead.ClientPhone, s.phoneRegion)
		lead.ClientPhone = &normalized
	}
	lead.Status = domain.StatusScheduled
	if lead.BookingCreatedAt.IsZero() {
		lead.BookingCreatedAt = time.Now().UTC()
	}

	stored, inserted, err := s.repo.Upsert(ctx, lead)
	if err != nil {
		return domain.Lead{}, false, err
	}
	if inserted && s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadCreated{
			BaseEvent:   events.NewBaseEvent(),
			BookingID:   stored.BookingID,
			ClientEmail: stored.ClientEmail,
			UTMSource:   stored.UTMSource,
		})
	}
	return stored, inserted, nil
}

// GetByID returns one lead.
func (s *Service) GetByID(ctx context.Context, bookingID string) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

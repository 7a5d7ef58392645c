package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"bda_portal_backend/internal/leads"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/transport"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// DeliveryStore deduplicates provider retries.
type DeliveryStore interface {
	Claim(ctx context.Context, deliveryID, event, bookingID string) (bool, error)
	Release(ctx context.Context, deliveryID string) error
	SetOutcome(ctx context.Context, deliveryID, outcome string) error
}

type Service struct {
	deliveries DeliveryStore
	ingestor   leads.Ingestor
	reader     leads.Reader
	status     leads.StatusChanger
	log        *logger.Logger
}

func NewService(deliveries DeliveryStore, ingestor leads.Ingestor, reader leads.Reader, status leads.StatusChanger, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{deliveries: deliveries, ingestor: ingestor, reader: reader, status: status, log: log}
}

// DeliveryID identifies a delivery by its body, so identical retries collapse.
func DeliveryID(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Process applies one verified event.
func (s *Service) Process(ctx context.Context, deliveryID string, event SchedulingEvent) (Response, error) {
	switch event.Event {
	case EventInviteeCreated:
		lead := extractLead(event.Payload)
		if lead.BookingID == "" {
			lead.BookingID = uuid.NewString()
		}
		if lead.ClientEmail == "" {
			return Response{}, apperr.Validation("invitee email is required")
		}
		return s.once(ctx, deliveryID, event.Event, lead.BookingID, func() (string, error) {
			return s.created(ctx, lead)
		})
	case EventInviteeCanceled:
		bookingID := bookingIDFor(event.Payload)
		if bookingID == "" {
			return Response{}, apperr.Validation("booking id is required")
		}
		return s.once(ctx, deliveryID, event.Event, bookingID, func() (string, error) {
			return s.canceled(ctx, bookingID)
		})
	default:
		s.log.WithContext(ctx).Info("webhook event ignored", "event", event.Event)
		return Response{Outcome: OutcomeIgnored}, nil
	}
}

// once runs fn at most once per delivery id. A failed run is released so the
// provider's retry gets processed.
func (s *Service) once(ctx context.Context, deliveryID, event, bookingID string, fn func() (string, error)) (Response, error) {
	fresh, err := s.deliveries.Claim(ctx, deliveryID, event, bookingID)
	if err != nil {
		return Response{}, apperr.Wrap(apperr.KindInternal, "failed to record delivery", err)
	}
	if !fresh {
		return Response{BookingID: bookingID, Outcome: OutcomeDuplicate}, nil
	}

	outcome, err := fn()
	if err != nil {
		if releaseErr := s.deliveries.Release(ctx, deliveryID); releaseErr != nil {
			s.log.WithContext(ctx).Warn("failed to release webhook delivery", "deliveryId", deliveryID, "error", releaseErr)
		}
		return Response{}, err
	}
	if err := s.deliveries.SetOutcome(ctx, deliveryID, outcome); err != nil {
		s.log.WithContext(ctx).Warn("failed to store webhook outcome", "deliveryId", deliveryID, "error", err)
	}
	s.log.WithContext(ctx).Info("webhook processed", "event", event, "bookingId", bookingID, "outcome", outcome)
	return Response{BookingID: bookingID, Outcome: outcome}, nil
}

func (s *Service) created(ctx context.Context, lead domain.Lead) (string, error) {
	_, inserted, err := s.ingestor.IngestScheduled(ctx, lead)
	if err != nil {
		return "", err
	}
	if inserted {
		return OutcomeCreated, nil
	}
	return OutcomeUpdated, nil
}

func (s *Service) canceled(ctx context.Context, bookingID string) (string, error) {
	lead, err := s.reader.GetByID(ctx, bookingID)
	if errors.Is(err, leads.ErrNotFound) {
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", err
	}
	// Paid leads keep their status; a canceled follow-up call does not undo a sale.
	if lead.Status == domain.StatusCanceled || lead.Status == domain.StatusPaid {
		return OutcomeIgnored, nil
	}

	_, err = s.status.ChangeStatus(ctx, domain.SystemActor, bookingID, transport.StatusChangeRequest{Status: string(domain.StatusCanceled)})
	if apperr.Is(err, apperr.KindValidation) {
		s.log.WithContext(ctx).Info("cancellation not applicable", "bookingId", bookingID, "status", lead.Status, "error", err)
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", err
	}
	return OutcomeCanceled, nil
}

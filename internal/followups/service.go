package followups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bda_portal_backend/internal/email"
	"bda_portal_backend/internal/leads"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/scheduler"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"

	"github.com/google/uuid"
)

// overdueGrace is how long past its due time a follow-up may stay scheduled
// (asynq retries included) before the sweep fails it.
const overdueGrace = 24 * time.Hour

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, f FollowUp) error
	SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error
	Get(ctx context.Context, id uuid.UUID) (FollowUp, error)
	MarkState(ctx context.Context, id uuid.UUID, state State, lastError *string) error
	RecordAttemptError(ctx context.Context, id uuid.UUID, message string) error
	ListByBooking(ctx context.Context, bookingID string) ([]FollowUp, error)
	FailOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

// Enqueuer hands a follow-up to the job queue.
type Enqueuer interface {
	EnqueueFollowUp(ctx context.Context, payload scheduler.FollowUpPayload, runAt time.Time) (string, error)
}

// EmailSender sends the client follow-up and the BDA call reminder.
type EmailSender interface {
	SendFollowUpEmail(ctx context.Context, toEmail, clientName, planName string) error
	SendCallReminderEmail(ctx context.Context, toEmail string, reminder email.CallReminder) error
}

// WhatsAppSender sends a text to a client phone.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

type Service struct {
	store    Store
	leads    leads.Reader
	queue    Enqueuer
	mail     EmailSender
	whatsapp WhatsAppSender
	cadence  Cadence
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the follow-up service. queue is only needed to schedule,
// mail and whatsapp only to process; a nil whatsapp drops that step.
func NewService(store Store, leadReader leads.Reader, queue Enqueuer, mail EmailSender, whatsapp WhatsAppSender, cadence Cadence, m *metrics.Metrics, log *logger.Logger) *Service {
	if mail == nil {
		mail = email.NoopSender{}
	}
	return &Service{
		store:    store,
		leads:    leadReader,
		queue:    queue,
		mail:     mail,
		whatsapp: whatsapp,
		cadence:  cadence.withDefaults(),
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

type step struct {
	channel Channel
	delay   time.Duration
}

func (s *Service) stepsFor(lead domain.Lead) []step {
	steps := make([]step, 0, 3)
	if lead.ClientEmail != "" {
		steps = append(steps, step{ChannelEmail, s.cadence.Email})
	}
	if s.whatsapp != nil && lead.ClientPhone != nil && *lead.ClientPhone != "" {
		steps = append(steps, step{ChannelWhatsApp, s.cadence.WhatsApp})
	}
	if lead.IsClaimed() {
		steps = append(steps, step{ChannelCall, s.cadence.Call})
	}
	return steps
}

// ScheduleFollowUps stores and enqueues the cadence for a completed lead.
// Steps that fail to enqueue are marked failed; the count covers the rest.
func (s *Service) ScheduleFollowUps(ctx context.Context, lead domain.Lead) (int, error) {
	if s.queue == nil {
		return 0, errors.New("follow-up queue not configured")
	}

	now := s.now().UTC()
	count := 0
	var errs []error
	for _, st := range s.stepsFor(lead) {
		f := FollowUp{
			ID:        uuid.New(),
			BookingID: lead.BookingID,
			Channel:   st.channel,
			DueAt:     now.Add(st.delay),
			State:     StateScheduled,
		}
		if err := s.store.Create(ctx, f); err != nil {
			errs = append(errs, fmt.Errorf("store %s follow-up: %w", st.channel, err))
			continue
		}

		taskID, err := s.queue.EnqueueFollowUp(ctx, scheduler.FollowUpPayload{
			FollowUpID: f.ID.String(),
			BookingID:  f.BookingID,
			Channel:    string(f.Channel),
		}, f.DueAt)
		if err != nil {
			msg := err.Error()
			_ = s.store.MarkState(ctx, f.ID, StateFailed, &msg)
			errs = append(errs, fmt.Errorf("enqueue %s follow-up: %w", st.channel, err))
			continue
		}
		if err := s.store.SetTaskID(ctx, f.ID, taskID); err != nil {
			s.log.Warn("follow-up task id not stored", "followUpId", f.ID, "error", err)
		}

		s.metrics.RecordFollowUp(string(st.channel))
		count++
	}

	if len(errs) > 0 {
		return count, errors.Join(errs...)
	}
	s.log.Info("follow-ups scheduled", "bookingId", lead.BookingID, "count", count)
	return count, nil
}

// ProcessFollowUp sends one due follow-up. Send errors are returned so the
// queue retries; the row stays scheduled until it is sent or swept.
func (s *Service) ProcessFollowUp(ctx context.Context, payload scheduler.FollowUpPayload) error {
	id, err := uuid.Parse(payload.FollowUpID)
	if err != nil {
		return fmt.Errorf("follow-up id: %w", err)
	}

	f, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// The booking was deleted and its follow-ups cascaded away.
		return nil
	}
	if err != nil {
		return err
	}
	if f.State != StateScheduled {
		return nil
	}

	lead, err := s.leads.GetByID(ctx, f.BookingID)
	if errors.Is(err, leads.ErrNotFound) {
		return s.skip(ctx, f, "lead deleted")
	}
	if err != nil {
		return err
	}
	if lead.Status == domain.StatusPaid {
		return s.skip(ctx, f, "lead already paid")
	}

	sent, err := s.send(ctx, f.Channel, lead)
	if err != nil {
		if recErr := s.store.RecordAttemptError(ctx, f.ID, err.Error()); recErr != nil {
			s.log.Warn("follow-up attempt error not stored", "followUpId", f.ID, "error", recErr)
		}
		return err
	}
	if !sent {
		return s.skip(ctx, f, "no recipient")
	}
	return s.store.MarkState(ctx, f.ID, StateSent, nil)
}

func (s *Service) send(ctx context.Context, channel Channel, lead domain.Lead) (bool, error) {
	plan := planLabel(lead)
	switch channel {
	case ChannelEmail:
		if lead.ClientEmail == "" {
			return false, nil
		}
		return true, s.mail.SendFollowUpEmail(ctx, lead.ClientEmail, lead.ClientName, plan)
	case ChannelWhatsApp:
		if s.whatsapp == nil || lead.ClientPhone == nil || *lead.ClientPhone == "" {
			return false, nil
		}
		return true, s.whatsapp.SendMessage(ctx, *lead.ClientPhone, whatsAppText(lead.ClientName, plan))
	case ChannelCall:
		if !lead.IsClaimed() {
			return false, nil
		}
		reminder := email.CallReminder{
			BDAName:     lead.ClaimedBy.Name,
			BookingID:   lead.BookingID,
			ClientName:  lead.ClientName,
			ClientEmail: lead.ClientEmail,
		}
		if lead.ClientPhone != nil {
			reminder.ClientPhone = *lead.ClientPhone
		}
		return true, s.mail.SendCallReminderEmail(ctx, lead.ClaimedBy.Email, reminder)
	default:
		return false, fmt.Errorf("unknown follow-up channel %q", channel)
	}
}

func (s *Service) skip(ctx context.Context, f FollowUp, reason string) error {
	s.log.Info("follow-up skipped", "followUpId", f.ID, "bookingId", f.BookingID, "reason", reason)
	return s.store.MarkState(ctx, f.ID, StateSkipped, &reason)
}

// Sweep fails follow-ups that stayed scheduled well past their due time.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	return s.store.FailOverdue(ctx, s.now().Add(-overdueGrace))
}

// ForBooking lists a booking's follow-ups by due time.
func (s *Service) ForBooking(ctx context.Context, bookingID string) ([]FollowUp, error) {
	if _, err := s.leads.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}
	return s.store.ListByBooking(ctx, bookingID)
}

func planLabel(lead domain.Lead) string {
	if lead.PlanDetails != nil && lead.PlanDetails.Plan != "" {
		return string(lead.PlanDetails.Plan)
	}
	if lead.PaymentPlan != nil {
		return string(lead.PaymentPlan.Name)
	}
	return ""
}

func whatsAppText(clientName, plan string) string {
	if plan == "" {
		return fmt.Sprintf("Hi %s, thanks again for your time with our team. Reply here if you have any questions.", clientName)
	}
	return fmt.Sprintf("Hi %s, thanks again for your time with our team. Reply here if you have any questions about the %s plan.", clientName, plan)
}

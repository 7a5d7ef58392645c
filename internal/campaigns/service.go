package campaigns

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"bda_portal_backend/internal/leads"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/whatsapp"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency   = 4
	defaultMaxRecipients = 500
	listLimit            = 50

	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

// Store records campaign runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, channel Channel, limit int) ([]Run, error)
}

type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

type EmailSender interface {
	SendCampaignEmail(ctx context.Context, toEmail, subject, body string) error
}

type Options struct {
	Concurrency   int
	MaxRecipients int
}

type Service struct {
	store    Store
	leads    leads.Reader
	whatsapp WhatsAppSender
	mail     EmailSender
	opts     Options
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the campaign sender. whatsapp or mail may be nil, which
// disables that channel.
func NewService(store Store, reader leads.Reader, wa WhatsAppSender, mail EmailSender, opts Options, m *metrics.Metrics, log *logger.Logger) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MaxRecipients <= 0 {
		opts.MaxRecipients = defaultMaxRecipients
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, leads: reader, whatsapp: wa, mail: mail, opts: opts, metrics: m, log: log, now: time.Now}
}

// audience is the resolved recipient set of a request.
type audience struct {
	requested int
	valid     []domain.Lead
	paid      []Recipient
	noContact int
	notFound  []string
}

// resolve loads the selected leads and splits them into sendable, paid and
// unreachable recipients.
func (s *Service) resolve(ctx context.Context, bookingIDs []string, reachable func(domain.Lead) bool) (audience, error) {
	ids := dedupe(bookingIDs)
	if len(ids) == 0 {
		return audience{}, apperr.Validation("at least one booking id is required")
	}
	if len(ids) > s.opts.MaxRecipients {
		return audience{}, apperr.Validation("too many recipients").WithDetails(map[string]any{
			"requested": len(ids),
			"max":       s.opts.MaxRecipients,
		})
	}

	found, err := s.leads.ListByIDs(ctx, ids)
	if err != nil {
		return audience{}, apperr.Wrap(apperr.KindInternal, "failed to load recipients", err)
	}

	a := audience{requested: len(ids)}
	seen := make(map[string]bool, len(found))
	for _, lead := range found {
		seen[lead.BookingID] = true
		switch {
		case lead.Status == domain.StatusPaid:
			a.paid = append(a.paid, Recipient{BookingID: lead.BookingID, ClientName: lead.ClientName})
		case !reachable(lead):
			a.noContact++
		default:
			a.valid = append(a.valid, lead)
		}
	}
	for _, id := range ids {
		if !seen[id] {
			a.notFound = append(a.notFound, id)
		}
	}
	return a, nil
}

// confirmPartial stops a send that includes paid recipients unless the caller
// already agreed to continue with the valid subset.
func confirmPartial(a audience, proceed bool) error {
	if len(a.paid) == 0 || proceed {
		return nil
	}
	return apperr.Conflict("some recipients have already paid").WithDetails(map[string]any{
		"paidRecipients": a.paid,
		"validCount":     len(a.valid),
	})
}

// SendWhatsApp renders and sends the message to every valid recipient.
func (s *Service) SendWhatsApp(ctx context.Context, actor domain.Actor, req SendWhatsAppRequest) (Result, error) {
	if s.whatsapp == nil {
		return Result{}, apperr.Unsupported("whatsapp is not configured")
	}
	tmpl, err := parseMessageTemplate("message", req.Message)
	if err != nil {
		return Result{}, err
	}
	a, err := s.resolve(ctx, req.BookingIDs, func(lead domain.Lead) bool {
		return lead.ClientPhone != nil && strings.TrimSpace(*lead.ClientPhone) != ""
	})
	if err != nil {
		return Result{}, err
	}
	if err := confirmPartial(a, req.ProceedWithValid); err != nil {
		return Result{}, err
	}

	return s.fanOut(ctx, actor, ChannelWhatsApp, req.Message, a, func(ctx context.Context, lead domain.Lead) error {
		text, err := tmpl.render(lead)
		if err != nil {
			return err
		}
		return s.whatsapp.SendMessage(ctx, *lead.ClientPhone, text)
	})
}

// SendEmail renders subject and body per recipient and mails every valid one.
func (s *Service) SendEmail(ctx context.Context, actor domain.Actor, req SendEmailRequest) (Result, error) {
	if s.mail == nil {
		return Result{}, apperr.Unsupported("email is not configured")
	}
	subject, err := parseMessageTemplate("subject", req.Subject)
	if err != nil {
		return Result{}, err
	}
	body, err := parseMessageTemplate("body", req.Body)
	if err != nil {
		return Result{}, err
	}
	a, err := s.resolve(ctx, req.BookingIDs, func(lead domain.Lead) bool {
		return strings.TrimSpace(lead.ClientEmail) != ""
	})
	if err != nil {
		return Result{}, err
	}
	if err := confirmPartial(a, req.ProceedWithValid); err != nil {
		return Result{}, err
	}

	return s.fanOut(ctx, actor, ChannelEmail, req.Subject+"\n\n"+req.Body, a, func(ctx context.Context, lead domain.Lead) error {
		subj, err := subject.render(lead)
		if err != nil {
			return err
		}
		text, err := body.render(lead)
		if err != nil {
			return err
		}
		return s.mail.SendCampaignEmail(ctx, lead.ClientEmail, subj, text)
	})
}

// fanOut sends to all valid recipients with bounded concurrency. A failed
// recipient never aborts the others.
func (s *Service) fanOut(ctx context.Context, actor domain.Actor, channel Channel, template string, a audience, send func(context.Context, domain.Lead) error) (Result, error) {
	result := Result{
		RunID:            uuid.New(),
		Requested:        a.requested,
		SkippedPaid:      len(a.paid),
		SkippedNoContact: a.noContact,
		NotFound:         a.notFound,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, lead := range a.valid {
		g.Go(func() error {
			err := send(gctx, lead)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Sent++
				s.metrics.RecordCampaignMessage(string(channel), outcomeSent)
			case errors.Is(err, whatsapp.ErrInvalidPhone):
				result.SkippedNoContact++
				s.metrics.RecordCampaignMessage(string(channel), outcomeSkipped)
			default:
				result.Failed++
				result.Failures = append(result.Failures, Failure{BookingID: lead.BookingID, Error: err.Error()})
				s.metrics.RecordCampaignMessage(string(channel), outcomeFailed)
			}
			return nil
		})
	}
	_ = g.Wait()

	run := Run{
		ID:          result.RunID,
		Channel:     channel,
		CreatedBy:   actor.Email,
		Template:    template,
		Requested:   result.Requested,
		Sent:        result.Sent,
		Failed:      result.Failed,
		SkippedPaid: result.SkippedPaid,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Record(ctx, run); err != nil {
		s.log.WithContext(ctx).Error("failed to record campaign run", "runId", run.ID, "error", err)
	}
	s.log.WithContext(ctx).Info("campaign sent",
		"channel", channel, "runId", run.ID, "sent", result.Sent, "failed", result.Failed, "skippedPaid", result.SkippedPaid)
	return result, nil
}

// Runs lists recent runs for a channel.
func (s *Service) Runs(ctx context.Context, channel Channel) ([]Run, error) {
	runs, err := s.store.List(ctx, channel, listLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list campaign runs", err)
	}
	return runs, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

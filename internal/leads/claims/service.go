// Package claims implements the BDA claim workflow: lookup by client email,
// one-time claim, owner edits, the caller's own leads with incentive totals,
// and the admin unclaim override.
package claims

import (
	"context"
	"errors"
	"strings"

	"bda_portal_backend/internal/events"
	"bda_portal_backend/internal/incentives"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/repository"
	"bda_portal_backend/internal/leads/transport"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/logger"
	"bda_portal_backend/platform/phone"
	"bda_portal_backend/platform/sanitize"
)

// Repository defines the data access the claim workflow needs.
type Repository interface {
	repository.LeadReader
	repository.StatsReader
	repository.ClaimStore
}

// StatusChanger applies status transitions with the shared paid guard,
// committing the claim edits in the same write.
type StatusChanger interface {
	ChangeStatusWithEdits(ctx context.Context, actor domain.Actor, bookingID string, req transport.StatusChangeRequest, edits repository.UpdateClaimParams) (transport.StatusChangeResponse, error)
}

// ConfigLookup returns the incentive config keyed by plan.
type ConfigLookup interface {
	Lookup(ctx context.Context) (map[domain.PlanName]domain.PlanConfig, error)
}

type Service struct {
	repo        Repository
	status      StatusChanger
	incentives  ConfigLookup
	eventBus    events.Bus
	phoneRegion string
	log         *logger.Logger
}

func New(repo Repository, status StatusChanger, cfg ConfigLookup, eventBus events.Bus, phoneRegion string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, status: status, incentives: cfg, eventBus: eventBus, phoneRegion: phoneRegion, log: log}
}

// LeadByEmail returns the most recent booking for a client email.
func (s *Service) LeadByEmail(ctx context.Context, email string) (transport.LeadResponse, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return transport.LeadResponse{}, apperr.Validation("email is required")
	}
	lead, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("no lead found for this email")
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// Claim takes ownership of an unclaimed lead. A lead already owned by anyone,
// including the caller, is a conflict whose details name the current owner.
func (s *Service) Claim(ctx context.Context, actor domain.Actor, bookingID string, req transport.ClaimLeadRequest) (transport.LeadResponse, error) {
	var plan *domain.PaymentPlan
	if req.PaymentPlan != nil {
		normalized := req.PaymentPlan.Normalized()
		if err := domain.ValidateClaimPlan(&normalized); err != nil {
			return transport.LeadResponse{}, apperr.Validation(err.Error()).WithDetails(map[string]any{"field": "paymentPlan"})
		}
		plan = &normalized
	}

	lead, err := s.repo.Claim(ctx, bookingID, domain.ClaimedBy{Email: actor.Email, Name: actor.Name}, plan)
	switch {
	case errors.Is(err, repository.ErrAlreadyClaimed):
		return transport.LeadResponse{}, apperr.Conflict("lead is already claimed").WithDetails(map[string]any{
			"claimedBy": lead.ClaimedBy,
		})
	case errors.Is(err, repository.ErrNotFound):
		return transport.LeadResponse{}, apperr.NotFound("lead not found")
	case err != nil:
		return transport.LeadResponse{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadClaimed{
			BaseEvent: events.NewBaseEvent(),
			BookingID: bookingID,
			ClaimedBy: actor.Email,
			WithPlan:  plan != nil,
		})
	}
	return transport.ToLeadResponse(lead), nil
}

// UpdateLead edits a claimed lead. Only the owner may edit; admins bypass.
// A status change goes through the status service and carries the request
// plan and field edits with it, so a rejected or failed transition leaves the
// lead untouched.
func (s *Service) UpdateLead(ctx context.Context, actor domain.Actor, bookingID string, req transport.UpdateLeadRequest) (transport.StatusChangeResponse, error) {
	lead, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.StatusChangeResponse{}, apperr.NotFound("lead not found")
		}
		return transport.StatusChangeResponse{}, err
	}
	if !actor.IsAdmin() {
		if !lead.IsClaimed() {
			return transport.StatusChangeResponse{}, apperr.Forbidden("claim the lead before editing it")
		}
		if !lead.ClaimedByEmail(actor.Email) {
			return transport.StatusChangeResponse{}, apperr.Forbidden("lead is claimed by another BDA").
				WithDetails(map[string]any{"claimedBy": lead.ClaimedBy})
		}
	}

	var plan *domain.PaymentPlan
	if req.PaymentPlan != nil {
		normalized := req.PaymentPlan.Normalized()
		if err := domain.ValidateClaimPlan(&normalized); err != nil {
			return transport.StatusChangeResponse{}, apperr.Validation(err.Error()).WithDetails(map[string]any{"field": "paymentPlan"})
		}
		plan = &normalized
	}

	params := repository.UpdateClaimParams{
		MeetingNotes:   sanitize.TextPtr(req.MeetingNotes),
		AnythingToKnow: sanitize.TextPtr(req.AnythingToKnow),
	}
	if req.ClientPhone.Set {
		params.ClientPhoneSet = true
		if req.ClientPhone.Value != nil {
			normalized := phone.NormalizeE164(*req.ClientPhone.Value, s.phoneRegion)
			params.ClientPhone = &normalized
		}
	}

	// The edit form resends the current status; only a different one is a transition.
	statusRequested := false
	if req.BookingStatus != nil && strings.TrimSpace(*req.BookingStatus) != "" {
		target, err := domain.ParseStatus(*req.BookingStatus)
		if err != nil {
			return transport.StatusChangeResponse{}, apperr.Validation("invalid status").WithDetails(map[string]any{"status": *req.BookingStatus})
		}
		statusRequested = target != lead.Status
	}

	if statusRequested {
		return s.status.ChangeStatusWithEdits(ctx, actor, bookingID, transport.StatusChangeRequest{
			Status:      *req.BookingStatus,
			Plan:        plan,
			PlanDetails: req.PlanDetails,
		}, params)
	}

	params.Plan = plan
	updated, err := s.repo.UpdateClaimFields(ctx, bookingID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.StatusChangeResponse{}, apperr.NotFound("lead not found")
		}
		return transport.StatusChangeResponse{}, err
	}
	return transport.StatusChangeResponse{Lead: transport.ToLeadResponse(updated)}, nil
}

// MyLeads lists the caller's claimed leads with the incentive total for the
// whole filtered set, not only the current page.
func (s *Service) MyLeads(ctx context.Context, actor domain.Actor, req transport.ListLeadsRequest) (transport.MyLeadsResponse, error) {
	req.ClaimedBy = ""
	params, page, err := transport.ToListParams(req, repository.DateFieldCreated)
	if err != nil {
		return transport.MyLeadsResponse{}, err
	}
	owner := domain.NormalizeEmail(actor.Email)
	params.ClaimedByEmail = &owner

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.MyLeadsResponse{}, err
	}
	paid, err := s.repo.PaidPlans(ctx, params)
	if err != nil {
		return transport.MyLeadsResponse{}, err
	}
	configs, err := s.incentives.Lookup(ctx)
	if err != nil {
		return transport.MyLeadsResponse{}, err
	}

	totals := incentives.Summarize(paid, configs)
	items := transport.ToLeadResponses(leads)
	for i, lead := range leads {
		if lead.Status != domain.StatusPaid || lead.PaymentPlan == nil {
			continue
		}
		cfg, ok := configs[lead.PaymentPlan.Name]
		if !ok {
			continue
		}
		amount, err := domain.LeadIncentive(lead.PaymentPlan, &cfg)
		if err != nil {
			continue
		}
		items[i].IncentiveINR = &amount
	}

	return transport.MyLeadsResponse{
		Items:                    items,
		Pagination:               page.WithTotal(total),
		TotalIncentivesForFilter: totals.TotalINR,
		TotalIncentivesDisplay:   domain.FormatINR(totals.TotalINR),
		PaidLeads:                totals.PaidLeads,
		ExcludedNonUSD:           totals.ExcludedNonUSD,
	}, nil
}

// Unclaim releases a lead so any BDA can claim it again. Admin only.
func (s *Service) Unclaim(ctx context.Context, actor domain.Actor, bookingID string) (transport.LeadResponse, error) {
	if !actor.IsAdmin() {
		return transport.LeadResponse{}, apperr.Forbidden("only admins can unclaim leads")
	}
	current, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	if !current.IsClaimed() {
		return transport.ToLeadResponse(current), nil
	}

	lead, err := s.repo.Unclaim(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}

	s.log.WithContext(ctx).Info("lead unclaimed", "bookingId", bookingID, "previousOwner", current.ClaimedBy.Email)
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadUnclaimed{
			BaseEvent:     events.NewBaseEvent(),
			BookingID:     bookingID,
			PreviousOwner: current.ClaimedBy.Email,
			AdminEmail:    actor.Email,
		})
	}
	return transport.ToLeadResponse(lead), nil
}

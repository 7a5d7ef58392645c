// Package status applies booking status transitions. Every call site that
// moves a lead goes through ChangeStatus so the paid guard lives in one place.
package status

import (
	"context"
	"errors"

	"bda_portal_backend/internal/events"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/repository"
	"bda_portal_backend/internal/leads/transport"
	"bda_portal_backend/platform/apperr"
	"bda_portal_backend/platform/logger"
)

// Repository is what the status service needs from storage.
type Repository interface {
	GetByID(ctx context.Context, bookingID string) (domain.Lead, error)
	repository.StatusWriter
}

// FollowUpScheduler starts the post-meeting cadence for a completed lead.
type FollowUpScheduler interface {
	ScheduleFollowUps(ctx context.Context, lead domain.Lead) (int, error)
}

type Service struct {
	repo      Repository
	policy    DetailsPolicy
	followUps FollowUpScheduler
	eventBus  events.Bus
	log       *logger.Logger
}

// New creates the status service. policy and followUps may be nil.
func New(repo Repository, policy DetailsPolicy, followUps FollowUpScheduler, eventBus events.Bus, log *logger.Logger) *Service {
	if policy == nil {
		policy = noDetails{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, policy: policy, followUps: followUps, eventBus: eventBus, log: log}
}

// SetFollowUpScheduler wires the scheduler after construction; the scheduler
// itself depends on lead storage.
func (s *Service) SetFollowUpScheduler(f FollowUpScheduler) {
	s.followUps = f
}

// ChangeStatus validates and stores a transition. A follow-up scheduling
// failure after a move to completed is reported, never rolled back.
func (s *Service) ChangeStatus(ctx context.Context, actor domain.Actor, bookingID string, req transport.StatusChangeRequest) (transport.StatusChangeResponse, error) {
	return s.ChangeStatusWithEdits(ctx, actor, bookingID, req, repository.UpdateClaimParams{})
}

// ChangeStatusWithEdits is ChangeStatus plus claim field edits stored in the
// same transaction, so a failed transition leaves the fields untouched too.
func (s *Service) ChangeStatusWithEdits(ctx context.Context, actor domain.Actor, bookingID string, req transport.StatusChangeRequest, edits repository.UpdateClaimParams) (transport.StatusChangeResponse, error) {
	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		return transport.StatusChangeResponse{}, apperr.Validation("invalid status").WithDetails(map[string]any{"status": req.Status})
	}

	lead, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.StatusChangeResponse{}, apperr.NotFound("lead not found")
		}
		return transport.StatusChangeResponse{}, err
	}

	var requestPlan *domain.PaymentPlan
	if req.Plan != nil {
		normalized := req.Plan.Normalized()
		if err := domain.ValidateClaimPlan(&normalized); err != nil {
			return transport.StatusChangeResponse{}, planError(err)
		}
		requestPlan = &normalized
	}
	effectivePlan := lead.PaymentPlan
	if requestPlan != nil {
		effectivePlan = requestPlan
	}

	if err := domain.ValidateTransition(lead.Status, target, effectivePlan); err != nil {
		if errors.Is(err, domain.ErrSelfTransition) {
			return transport.StatusChangeResponse{}, apperr.Validation(err.Error()).WithDetails(map[string]any{"status": target})
		}
		return transport.StatusChangeResponse{}, planError(err)
	}

	details := req.PlanDetails
	if s.policy.NeedsAdditionalDetails(ctx, target) {
		if details == nil && lead.PlanDetails == nil {
			return transport.StatusChangeResponse{}, apperr.Validation("plan details are required for this status").
				WithDetails(map[string]any{"requiresPlanDetails": true, "status": target})
		}
	}
	if details != nil {
		normalized, err := validateDetails(*details)
		if err != nil {
			return transport.StatusChangeResponse{}, err
		}
		details = &normalized
	}

	updated, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		BookingID:  bookingID,
		From:       lead.Status,
		To:         target,
		Plan:       requestPlan,
		Details:    details,
		ActorEmail: actor.Email,
		Edits:      edits,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.StatusChangeResponse{}, apperr.NotFound("lead not found")
		}
		return transport.StatusChangeResponse{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			BookingID:  bookingID,
			From:       string(lead.Status),
			To:         string(target),
			ActorEmail: actor.Email,
		})
	}

	resp := transport.StatusChangeResponse{Lead: transport.ToLeadResponse(updated)}
	if domain.TriggersFollowUp(target) && s.followUps != nil {
		count, err := s.followUps.ScheduleFollowUps(ctx, updated)
		if err != nil {
			s.log.WithContext(ctx).Error("follow-up scheduling failed", "bookingId", bookingID, "error", err)
			resp.FollowUpError = "follow-up scheduling failed; the status change was saved"
		} else {
			resp.FollowUpScheduled = count > 0
			resp.FollowUpCount = count
		}
	}
	return resp, nil
}

// NeedsAdditionalDetails answers the workflow pre-check for a raw status.
func (s *Service) NeedsAdditionalDetails(ctx context.Context, raw string) (transport.WorkflowCheckResponse, error) {
	target, err := domain.ParseStatus(raw)
	if err != nil {
		return transport.WorkflowCheckResponse{}, apperr.Validation("invalid status").WithDetails(map[string]any{"status": raw})
	}
	return transport.WorkflowCheckResponse{
		Status:                 target,
		NeedsAdditionalDetails: s.policy.NeedsAdditionalDetails(ctx, target),
	}, nil
}

// Transitions lists the statuses a lead may move to.
func (s *Service) Transitions(ctx context.Context, bookingID string) (transport.TransitionsResponse, error) {
	lead, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.TransitionsResponse{}, apperr.NotFound("lead not found")
		}
		return transport.TransitionsResponse{}, err
	}
	return transport.TransitionsResponse{
		BookingID: bookingID,
		Current:   lead.Status,
		Allowed:   domain.AllowedTargets(lead.Status),
	}, nil
}

func (s *Service) History(ctx context.Context, bookingID string) (transport.StatusHistoryResponse, error) {
	if _, err := s.repo.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.StatusHistoryResponse{}, apperr.NotFound("lead not found")
		}
		return transport.StatusHistoryResponse{}, err
	}
	items, err := s.repo.ListStatusHistory(ctx, bookingID)
	if err != nil {
		return transport.StatusHistoryResponse{}, err
	}
	return transport.StatusHistoryResponse{Items: items}, nil
}

func planError(err error) error {
	return apperr.Validation(err.Error()).WithDetails(map[string]any{"field": "paymentPlan"})
}

func validateDetails(details domain.PlanDetails) (domain.PlanDetails, error) {
	if details.Days <= 0 {
		return domain.PlanDetails{}, apperr.Validation("plan details days must be positive").
			WithDetails(map[string]any{"field": "planDetails.days"})
	}
	if details.Plan != "" {
		name, err := domain.ParsePlanName(string(details.Plan))
		if err != nil {
			return domain.PlanDetails{}, apperr.Validation(err.Error()).WithDetails(map[string]any{"field": "planDetails.plan"})
		}
		details.Plan = name
	}
	return details, nil
}

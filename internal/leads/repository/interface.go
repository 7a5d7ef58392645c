package repository

import (
	"context"

	"bda_portal_backend/internal/leads/domain"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to leads.
type LeadReader interface {
	GetByID(ctx context.Context, bookingID string) (domain.Lead, error)
	GetByEmail(ctx context.Context, email string) (domain.Lead, error)
	ListByIDs(ctx context.Context, bookingIDs []string) ([]domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
}

// StatsReader provides aggregates over a filtered lead set.
type StatsReader interface {
	Stats(ctx context.Context, params ListParams) (Stats, error)
	PaidPlans(ctx context.Context, params ListParams) ([]domain.PaymentPlan, error)
}

// ClaimStore owns the claim column set.
type ClaimStore interface {
	Claim(ctx context.Context, bookingID string, claim domain.ClaimedBy, plan *domain.PaymentPlan) (domain.Lead, error)
	Unclaim(ctx context.Context, bookingID string) (domain.Lead, error)
	UpdateClaimFields(ctx context.Context, bookingID string, params UpdateClaimParams) (domain.Lead, error)
}

// StatusWriter applies status transitions with history.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (domain.Lead, error)
	ListStatusHistory(ctx context.Context, bookingID string) ([]StatusChange, error)
}

// LeadWriter creates and purges leads.
type LeadWriter interface {
	Upsert(ctx context.Context, lead domain.Lead) (domain.Lead, bool, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

// LeadsRepository composes every lead store.
type LeadsRepository interface {
	LeadReader
	StatsReader
	ClaimStore
	StatusWriter
	LeadWriter
}

var _ LeadsRepository = (*Repository)(nil)

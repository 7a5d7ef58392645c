// Package leads provides lead management functionality.
// This file defines the public API of the leads bounded context.
// Only types and interfaces defined here should be imported by other domains.
package leads

import (
	"context"

	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/repository"
	"bda_portal_backend/internal/leads/transport"
)

// Reader is the read access other contexts get to leads.
type Reader interface {
	GetByID(ctx context.Context, bookingID string) (domain.Lead, error)
	ListByIDs(ctx context.Context, bookingIDs []string) ([]domain.Lead, error)
}

// StatusChanger moves a lead through the shared transition policy.
type StatusChanger interface {
	ChangeStatus(ctx context.Context, actor domain.Actor, bookingID string, req transport.StatusChangeRequest) (transport.StatusChangeResponse, error)
}

// Ingestor stores bookings arriving from the scheduling provider.
type Ingestor interface {
	IngestScheduled(ctx context.Context, lead domain.Lead) (domain.Lead, bool, error)
}

// ErrNotFound is returned by Reader for unknown booking ids.
var ErrNotFound = repository.ErrNotFound

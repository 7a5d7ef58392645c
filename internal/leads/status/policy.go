package status

import (
	"context"

	"bda_portal_backend/internal/leads/domain"
)

// DetailsPolicy decides whether a status change must carry plan details
// before it is applied. Follow-up templates read those details.
type DetailsPolicy interface {
	NeedsAdditionalDetails(ctx context.Context, target domain.Status) bool
}

// StatusSetPolicy requires details for a fixed set of target statuses.
type StatusSetPolicy struct {
	statuses map[domain.Status]struct{}
}

// NewStatusSetPolicy builds a policy from configured status names. Unknown
// names are ignored.
func NewStatusSetPolicy(names []string) StatusSetPolicy {
	p := StatusSetPolicy{statuses: map[domain.Status]struct{}{}}
	for _, name := range names {
		if s, err := domain.ParseStatus(name); err == nil {
			p.statuses[s] = struct{}{}
		}
	}
	return p
}

func (p StatusSetPolicy) NeedsAdditionalDetails(_ context.Context, target domain.Status) bool {
	_, ok := p.statuses[target]
	return ok
}

type noDetails struct{}

func (noDetails) NeedsAdditionalDetails(context.Context, domain.Status) bool { return false }

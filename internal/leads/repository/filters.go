package repository

import (
	"fmt"
	"strings"
	"time"

	"bda_portal_backend/internal/leads/domain"
)

// DateField selects the column a date range filter applies to.
type DateField string

const (
	DateFieldCreated   DateField = "booking_created_at"
	DateFieldScheduled DateField = "scheduled_event_start_time"
)

// ListParams is a filtered, paginated lead query. Nil filters are ignored.
// ToBefore is exclusive; callers turn an inclusive day into the next midnight.
type ListParams struct {
	Search         string
	Status         *domain.Status
	Plan           *domain.PlanName
	DateField      DateField
	From           *time.Time
	ToBefore       *time.Time
	UTMSource      *string
	MinAmount      *float64
	MaxAmount      *float64
	ClaimedByEmail *string
	Claimed        *bool
	SortOrder      string
	Offset         int
	Limit          int
}

func (p ListParams) dateColumn() string {
	if p.DateField == DateFieldScheduled {
		return "b.scheduled_event_start_time"
	}
	return "b.booking_created_at"
}

// likeEscaper makes user input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func buildLeadListWhere(params ListParams) (string, []any, int) {
	whereClauses := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	addCond := func(format string, value any) {
		whereClauses = append(whereClauses, fmt.Sprintf(format, argIdx))
		args = append(args, value)
		argIdx++
	}

	if search := strings.TrimSpace(params.Search); search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			`(b.client_name ILIKE $%[1]d ESCAPE '\' OR b.client_email ILIKE $%[1]d ESCAPE '\' OR b.client_phone ILIKE $%[1]d ESCAPE '\')`,
			argIdx,
		))
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		argIdx++
	}
	if params.Status != nil {
		addCond("b.booking_status = $%d", string(*params.Status))
	}
	if params.Plan != nil {
		addCond("b.plan_name = $%d", string(*params.Plan))
	}
	if params.From != nil {
		addCond(params.dateColumn()+" >= $%d", *params.From)
	}
	if params.ToBefore != nil {
		addCond(params.dateColumn()+" < $%d", *params.ToBefore)
	}
	if params.UTMSource != nil {
		addCond("b.utm_source = $%d", *params.UTMSource)
	}
	if params.MinAmount != nil {
		addCond("b.plan_price >= $%d", *params.MinAmount)
	}
	if params.MaxAmount != nil {
		addCond("b.plan_price <= $%d", *params.MaxAmount)
	}
	if params.ClaimedByEmail != nil {
		addCond("b.claimed_by_email = $%d", domain.NormalizeEmail(*params.ClaimedByEmail))
	}
	if params.Claimed != nil {
		if *params.Claimed {
			whereClauses = append(whereClauses, "b.claimed_by_email IS NOT NULL")
		} else {
			whereClauses = append(whereClauses, "b.claimed_by_email IS NULL")
		}
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

package transport

import (
	"time"

	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/repository"
)

// Request DTOs

type ClaimLeadRequest struct {
	PaymentPlan *domain.PaymentPlan `json:"paymentPlan"`
}

// UpdateLeadRequest edits the claim view fields. Nil fields are unchanged.
type UpdateLeadRequest struct {
	MeetingNotes   *string             `json:"meetingNotes" validate:"omitempty,max=5000"`
	AnythingToKnow *string             `json:"anythingToKnow" validate:"omitempty,max=5000"`
	ClientPhone    OptionalString      `json:"clientPhone"`
	PaymentPlan    *domain.PaymentPlan `json:"paymentPlan"`
	BookingStatus  *string             `json:"bookingStatus" validate:"omitempty,booking_status"`
	PlanDetails    *domain.PlanDetails `json:"planDetails"`
}

type StatusChangeRequest struct {
	Status      string              `json:"status" validate:"required,booking_status"`
	Plan        *domain.PaymentPlan `json:"plan"`
	PlanDetails *domain.PlanDetails `json:"planDetails"`
}

// ListLeadsRequest carries the list filters as query parameters.
// Dates are YYYY-MM-DD or RFC 3339; toDate is inclusive.
type ListLeadsRequest struct {
	Search    string   `form:"search" validate:"max=100"`
	Status    string   `form:"status" validate:"max=20"`
	Plan      string   `form:"plan" validate:"max=20"`
	FromDate  string   `form:"fromDate"`
	ToDate    string   `form:"toDate"`
	UTMSource string   `form:"utmSource" validate:"max=100"`
	MinAmount *float64 `form:"minAmount" validate:"omitempty,min=0"`
	MaxAmount *float64 `form:"maxAmount" validate:"omitempty,min=0"`
	ClaimedBy string   `form:"claimedBy" validate:"omitempty,email"`
	Claimed   *bool    `form:"claimed"`
	Page      int      `form:"page" validate:"min=0"`
	Limit     int      `form:"limit" validate:"min=0,max=100"`
	SortOrder string   `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// Response DTOs

type PaymentPlanResponse struct {
	Name         domain.PlanName `json:"name"`
	Price        float64         `json:"price"`
	Currency     domain.Currency `json:"currency"`
	DisplayPrice string          `json:"displayPrice"`
}

type LeadResponse struct {
	BookingID               string               `json:"bookingId"`
	ClientName              string               `json:"clientName"`
	ClientEmail             string               `json:"clientEmail"`
	ClientPhone             *string              `json:"clientPhone,omitempty"`
	ScheduledEventStartTime *time.Time           `json:"scheduledEventStartTime,omitempty"`
	BookingCreatedAt        time.Time            `json:"bookingCreatedAt"`
	BookingStatus           domain.Status        `json:"bookingStatus"`
	PaymentPlan             *PaymentPlanResponse `json:"paymentPlan,omitempty"`
	PlanDetails             *domain.PlanDetails  `json:"planDetails,omitempty"`
	ClaimedBy               *domain.ClaimedBy    `json:"claimedBy,omitempty"`
	MeetingNotes            string               `json:"meetingNotes"`
	AnythingToKnow          string               `json:"anythingToKnow"`
	UTMSource               string               `json:"utmSource"`
	UpdatedAt               time.Time            `json:"updatedAt"`
	IncentiveINR            *float64             `json:"incentiveInr,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type PlanBreakdownItem struct {
	Count             int                         `json:"count"`
	Revenue           float64                     `json:"revenue"`
	RevenueByCurrency map[domain.Currency]float64 `json:"revenueByCurrency"`
}

// StatsResponse aggregates the whole filtered set, not just the page.
// TotalRevenue sums USD payments only; other currencies are reported apart.
type StatsResponse struct {
	TotalRevenue      float64                                `json:"totalRevenue"`
	TotalRevenueLabel string                                 `json:"totalRevenueDisplay"`
	RevenueByCurrency map[domain.Currency]float64            `json:"revenueByCurrency"`
	PlanBreakdown     map[domain.PlanName]*PlanBreakdownItem `json:"planBreakdown"`
	StatusCounts      map[domain.Status]int                  `json:"statusCounts"`
	PaidCount         int                                    `json:"paidCount"`
}

type ListResponse struct {
	Items      []LeadResponse `json:"items"`
	Pagination Pagination     `json:"pagination"`
	Stats      StatsResponse  `json:"stats"`
}

type MyLeadsResponse struct {
	Items                    []LeadResponse `json:"items"`
	Pagination               Pagination     `json:"pagination"`
	TotalIncentivesForFilter float64        `json:"totalIncentivesForFilter"`
	TotalIncentivesDisplay   string         `json:"totalIncentivesDisplay"`
	PaidLeads                int            `json:"paidLeads"`
	ExcludedNonUSD           int            `json:"excludedNonUsd"`
}

type StatusChangeResponse struct {
	Lead              LeadResponse `json:"lead"`
	FollowUpScheduled bool         `json:"followUpScheduled"`
	FollowUpCount     int          `json:"followUpCount,omitempty"`
	FollowUpError     string       `json:"followUpError,omitempty"`
}

type WorkflowCheckResponse struct {
	Status                 domain.Status `json:"status"`
	NeedsAdditionalDetails bool          `json:"needsAdditionalDetails"`
}

type TransitionsResponse struct {
	BookingID string          `json:"bookingId"`
	Current   domain.Status   `json:"current"`
	Allowed   []domain.Status `json:"allowed"`
}

type StatusHistoryResponse struct {
	Items []repository.StatusChange `json:"items"`
}

type DeleteResponse struct {
	Email   string `json:"email"`
	Deleted int64  `json:"deleted"`
}

type PermissionsResponse struct {
	Roles []string `json:"roles"`
	Tabs  []string `json:"tabs"`
}

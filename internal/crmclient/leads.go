package crmclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"bda_portal_backend/internal/incentives"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/transport"
)

// UpdateLead carries the optional claim field changes. ClearPhone removes the
// stored phone; it wins over ClientPhone.
type UpdateLead struct {
	MeetingNotes   *string
	AnythingToKnow *string
	ClientPhone    *string
	ClearPhone     bool
	PaymentPlan    *domain.PaymentPlan
	BookingStatus  *domain.Status
	PlanDetails    *domain.PlanDetails
}

func (u UpdateLead) body() map[string]any {
	body := map[string]any{}
	if u.MeetingNotes != nil {
		body["meetingNotes"] = *u.MeetingNotes
	}
	if u.AnythingToKnow != nil {
		body["anythingToKnow"] = *u.AnythingToKnow
	}
	switch {
	case u.ClearPhone:
		body["clientPhone"] = nil
	case u.ClientPhone != nil:
		body["clientPhone"] = *u.ClientPhone
	}
	if u.PaymentPlan != nil {
		body["paymentPlan"] = u.PaymentPlan
	}
	if u.BookingStatus != nil {
		body["bookingStatus"] = string(*u.BookingStatus)
	}
	if u.PlanDetails != nil {
		body["planDetails"] = u.PlanDetails
	}
	return body
}

func (c *Client) LeadByEmail(ctx context.Context, email string) (transport.LeadResponse, error) {
	if err := validateEmail(email); err != nil {
		return transport.LeadResponse{}, err
	}
	var out transport.LeadResponse
	err := c.do(ctx, http.MethodGet, "/api/bda/lead-by-email/"+url.PathEscape(strings.TrimSpace(email)), nil, nil, &out)
	return out, err
}

func (c *Client) GetLead(ctx context.Context, bookingID string) (transport.LeadResponse, error) {
	if err := validateBookingID(bookingID); err != nil {
		return transport.LeadResponse{}, err
	}
	var out transport.LeadResponse
	err := c.do(ctx, http.MethodGet, "/api/leads/"+url.PathEscape(bookingID), nil, nil, &out)
	return out, err
}

// ClaimLead claims a lead, optionally with the plan already sold.
func (c *Client) ClaimLead(ctx context.Context, bookingID string, plan *domain.PaymentPlan) (transport.LeadResponse, error) {
	if err := validateBookingID(bookingID); err != nil {
		return transport.LeadResponse{}, err
	}
	if err := validatePlan(plan, false); err != nil {
		return transport.LeadResponse{}, err
	}
	var out transport.LeadResponse
	err := c.do(ctx, http.MethodPost, "/api/bda/claim-lead/"+url.PathEscape(bookingID), nil,
		transport.ClaimLeadRequest{PaymentPlan: plan}, &out)
	return out, err
}

// UpdateLead edits a claimed lead. A status change in the update comes back
// with the follow-up outcome, like ChangeStatus.
func (c *Client) UpdateLead(ctx context.Context, bookingID string, update UpdateLead) (transport.StatusChangeResponse, error) {
	if err := validateBookingID(bookingID); err != nil {
		return transport.StatusChangeResponse{}, err
	}
	paid := update.BookingStatus != nil && *update.BookingStatus == domain.StatusPaid
	if err := validatePlan(update.PaymentPlan, paid); err != nil {
		return transport.StatusChangeResponse{}, err
	}
	var out transport.StatusChangeResponse
	err := c.do(ctx, http.MethodPut, "/api/bda/update-lead/"+url.PathEscape(bookingID), nil, update.body(), &out)
	return out, err
}

// ChangeStatus moves a lead. Moving to paid without a valid plan fails locally.
func (c *Client) ChangeStatus(ctx context.Context, bookingID string, req transport.StatusChangeRequest) (transport.StatusChangeResponse, error) {
	if err := validateBookingID(bookingID); err != nil {
		return transport.StatusChangeResponse{}, err
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return transport.StatusChangeResponse{}, &ValidationError{Field: "status", Message: err.Error()}
	}
	if err := validatePlan(req.Plan, status == domain.StatusPaid); err != nil {
		return transport.StatusChangeResponse{}, err
	}
	req.Status = string(status)
	var out transport.StatusChangeResponse
	err = c.do(ctx, http.MethodPut, "/api/campaign-bookings/"+url.PathEscape(bookingID)+"/status", nil, req, &out)
	return out, err
}

func (c *Client) Transitions(ctx context.Context, bookingID string) (transport.TransitionsResponse, error) {
	if err := validateBookingID(bookingID); err != nil {
		return transport.TransitionsResponse{}, err
	}
	var out transport.TransitionsResponse
	err := c.do(ctx, http.MethodGet, "/api/campaign-bookings/"+url.PathEscape(bookingID)+"/transitions", nil, nil, &out)
	return out, err
}

func (c *Client) MyLeads(ctx context.Context, q QueryState) (transport.MyLeadsResponse, error) {
	var out transport.MyLeadsResponse
	err := c.do(ctx, http.MethodGet, "/api/bda/my-leads", q.Values(), nil, &out)
	return out, err
}

func (c *Client) ListLeads(ctx context.Context, q QueryState) (transport.ListResponse, error) {
	var out transport.ListResponse
	err := c.do(ctx, http.MethodGet, "/api/leads/paginated", q.Values(), nil, &out)
	return out, err
}

func (c *Client) ListCampaignBookings(ctx context.Context, q QueryState) (transport.ListResponse, error) {
	var out transport.ListResponse
	err := c.do(ctx, http.MethodGet, "/api/campaign-bookings/paginated", q.Values(), nil, &out)
	return out, err
}

// Unclaim is the admin override.
func (c *Client) Unclaim(ctx context.Context, bookingID string) (transport.LeadResponse, error) {
	if err := validateBookingID(bookingID); err != nil {
		return transport.LeadResponse{}, err
	}
	var out transport.LeadResponse
	err := c.do(ctx, http.MethodPost, "/api/crm/admin/booking/"+url.PathEscape(bookingID)+"/unclaim", nil, nil, &out)
	return out, err
}

// DeleteClient purges every booking of a client. Deleting twice reports 0.
func (c *Client) DeleteClient(ctx context.Context, email string) (transport.DeleteResponse, error) {
	if err := validateEmail(email); err != nil {
		return transport.DeleteResponse{}, err
	}
	var out transport.DeleteResponse
	err := c.do(ctx, http.MethodDelete, "/api/users/delete/"+url.PathEscape(strings.TrimSpace(email)), nil, nil, &out)
	return out, err
}

func (c *Client) Permissions(ctx context.Context) (transport.PermissionsResponse, error) {
	var out transport.PermissionsResponse
	err := c.do(ctx, http.MethodGet, "/api/crm/permissions", nil, nil, &out)
	return out, err
}

func (c *Client) IncentiveConfig(ctx context.Context) (incentives.ConfigResponse, error) {
	var out incentives.ConfigResponse
	err := c.do(ctx, http.MethodGet, "/api/crm/admin/bda-incentives/config", nil, nil, &out)
	return out, err
}

func (c *Client) PutIncentiveConfig(ctx context.Context, plans []domain.PlanConfig) (incentives.ConfigResponse, error) {
	if len(plans) == 0 {
		return incentives.ConfigResponse{}, &ValidationError{Field: "plans", Message: "at least one plan is required"}
	}
	for _, p := range plans {
		if err := domain.ValidatePlanConfig(p); err != nil {
			return incentives.ConfigResponse{}, &ValidationError{Field: "plans." + string(p.PlanName), Message: err.Error()}
		}
	}
	var out incentives.ConfigResponse
	err := c.do(ctx, http.MethodPut, "/api/crm/admin/bda-incentives/config", nil,
		incentives.UpdateConfigRequest{Plans: plans}, &out)
	return out, err
}

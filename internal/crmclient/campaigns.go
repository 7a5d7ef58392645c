package crmclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bda_portal_backend/internal/campaigns"
)

// PartialFailure describes a campaign where some recipients already paid.
type PartialFailure struct {
	PaidRecipients []campaigns.Recipient `json:"paidRecipients"`
	ValidCount     int                   `json:"validCount"`
}

// ConfirmFunc decides whether to continue with the valid subset.
type ConfirmFunc func(PartialFailure) bool

// ErrCampaignDeclined is returned when confirm said no.
var ErrCampaignDeclined = errors.New("campaign not sent: paid recipients present")

func validateCampaignRecipients(ids []string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			return nil
		}
	}
	return &ValidationError{Field: "bookingIds", Message: "select at least one recipient"}
}

// SendWhatsAppCampaign sends req. On a partial failure it asks confirm and,
// if allowed, resubmits with ProceedWithValid. A nil confirm declines.
func (c *Client) SendWhatsAppCampaign(ctx context.Context, req campaigns.SendWhatsAppRequest, confirm ConfirmFunc) (campaigns.Result, error) {
	if err := validateCampaignRecipients(req.BookingIDs); err != nil {
		return campaigns.Result{}, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return campaigns.Result{}, &ValidationError{Field: "message", Message: "message is required"}
	}
	return c.sendCampaign(ctx, "/api/whatsapp-campaigns/send", confirm, func(proceed bool) any {
		req.ProceedWithValid = proceed
		return req
	}, req.ProceedWithValid)
}

// SendEmailCampaign behaves like SendWhatsAppCampaign for email.
func (c *Client) SendEmailCampaign(ctx context.Context, req campaigns.SendEmailRequest, confirm ConfirmFunc) (campaigns.Result, error) {
	if err := validateCampaignRecipients(req.BookingIDs); err != nil {
		return campaigns.Result{}, err
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return campaigns.Result{}, &ValidationError{Field: "body", Message: "subject and body are required"}
	}
	return c.sendCampaign(ctx, "/api/email-campaigns/send", confirm, func(proceed bool) any {
		req.ProceedWithValid = proceed
		return req
	}, req.ProceedWithValid)
}

func (c *Client) sendCampaign(ctx context.Context, path string, confirm ConfirmFunc, body func(bool) any, proceed bool) (campaigns.Result, error) {
	var out campaigns.Result
	err := c.do(ctx, http.MethodPost, path, nil, body(proceed), &out)
	if err == nil {
		return out, nil
	}

	partial, ok := asPartialFailure(err)
	if !ok || proceed {
		return campaigns.Result{}, err
	}
	if confirm == nil || !confirm(partial) {
		return campaigns.Result{}, ErrCampaignDeclined
	}

	out = campaigns.Result{}
	if err := c.do(ctx, http.MethodPost, path, nil, body(true), &out); err != nil {
		return campaigns.Result{}, err
	}
	return out, nil
}

func asPartialFailure(err error) (PartialFailure, bool) {
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusConflict || len(fe.Details) == 0 {
		return PartialFailure{}, false
	}
	var pf PartialFailure
	if json.Unmarshal(fe.Details, &pf) != nil || len(pf.PaidRecipients) == 0 {
		return PartialFailure{}, false
	}
	return pf, true
}

func (c *Client) CampaignRuns(ctx context.Context, channel campaigns.Channel) ([]campaigns.Run, error) {
	var out struct {
		Items []campaigns.Run `json:"items"`
	}
	path := "/api/whatsapp-campaigns"
	if channel == campaigns.ChannelEmail {
		path = "/api/email-campaigns"
	}
	err := c.do(ctx, http.MethodGet, path, nil, nil, &out)
	return out.Items, err
}

// Package campaigns sends bulk WhatsApp and email messages to selected leads
// and records every run.
package campaigns

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// Run is one recorded campaign send.
type Run struct {
	ID          uuid.UUID `json:"id"`
	Channel     Channel   `json:"channel"`
	CreatedBy   string    `json:"createdBy"`
	Template    string    `json:"template"`
	Requested   int       `json:"requested"`
	Sent        int       `json:"sent"`
	Failed      int       `json:"failed"`
	SkippedPaid int       `json:"skippedPaid"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SendWhatsAppRequest struct {
	BookingIDs       []string `json:"bookingIds" validate:"required,min=1,dive,required"`
	Message          string   `json:"message" validate:"required"`
	ProceedWithValid bool     `json:"proceedWithValid"`
}

type SendEmailRequest struct {
	BookingIDs       []string `json:"bookingIds" validate:"required,min=1,dive,required"`
	Subject          string   `json:"subject" validate:"required"`
	Body             string   `json:"body" validate:"required"`
	ProceedWithValid bool     `json:"proceedWithValid"`
}

// Recipient identifies a lead in responses.
type Recipient struct {
	BookingID  string `json:"bookingId"`
	ClientName string `json:"clientName"`
}

// Failure is a recipient whose send failed.
type Failure struct {
	BookingID string `json:"bookingId"`
	Error     string `json:"error"`
}

// Result summarizes a finished send.
type Result struct {
	RunID            uuid.UUID `json:"runId"`
	Requested        int       `json:"requested"`
	Sent             int       `json:"sent"`
	Failed           int       `json:"failed"`
	SkippedPaid      int       `json:"skippedPaid"`
	SkippedNoContact int       `json:"skippedNoContact"`
	NotFound         []string  `json:"notFound,omitempty"`
	Failures         []Failure `json:"failures,omitempty"`
}

// placeholderData is what message templates can reference.
type placeholderData struct {
	ClientName string
	PlanName   string
}

// messageTemplate renders {{.ClientName}} and {{.PlanName}} per lead.
type messageTemplate struct {
	tmpl *template.Template
}

func parseMessageTemplate(field, text string) (*messageTemplate, error) {
	tmpl, err := template.New(field).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, apperr.Validation("invalid message template").WithDetails(map[string]any{field: err.Error()})
	}
	// Probe once so unknown fields fail before anything is sent.
	if err := tmpl.Execute(&bytes.Buffer{}, placeholderData{}); err != nil {
		return nil, apperr.Validation("invalid message template").WithDetails(map[string]any{field: err.Error()})
	}
	return &messageTemplate{tmpl: tmpl}, nil
}

func (m *messageTemplate) render(lead domain.Lead) (string, error) {
	data := placeholderData{ClientName: strings.TrimSpace(lead.ClientName)}
	if data.ClientName == "" {
		data.ClientName = "there"
	}
	if lead.PaymentPlan != nil {
		data.PlanName = string(lead.PaymentPlan.Name)
	}
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

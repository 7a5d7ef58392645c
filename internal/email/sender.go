// Package email delivers lead follow-ups, BDA call reminders and campaign mail
// through Brevo, SendGrid or a plain SMTP relay.
package email

import (
	"context"
	"fmt"

	"bda_portal_backend/platform/config"
)

type Sender interface {
	SendFollowUpEmail(ctx context.Context, toEmail, clientName, planName string) error
	SendCallReminderEmail(ctx context.Context, toEmail string, reminder CallReminder) error
	SendCampaignEmail(ctx context.Context, toEmail, subject, body string) error
}

// CallReminder tells a BDA which completed lead to phone.
type CallReminder struct {
	BDAName     string
	BookingID   string
	ClientName  string
	ClientEmail string
	ClientPhone string
}

// Message is a rendered email ready for a provider.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// deliverer is the provider-specific half of a Sender.
type deliverer interface {
	deliver(ctx context.Context, msg Message) error
}

type NoopSender struct{}

func (NoopSender) SendFollowUpEmail(ctx context.Context, toEmail, clientName, planName string) error {
	return nil
}

func (NoopSender) SendCallReminderEmail(ctx context.Context, toEmail string, reminder CallReminder) error {
	return nil
}

func (NoopSender) SendCampaignEmail(ctx context.Context, toEmail, subject, body string) error {
	return nil
}

// NewSender picks the provider named by EMAIL_PROVIDER. "none" yields a NoopSender.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	switch cfg.GetEmailProvider() {
	case "", "none":
		return NoopSender{}, nil
	case "brevo":
		return newTemplated(NewBrevo(cfg.GetBrevoAPIKey(), cfg.GetEmailFromName(), cfg.GetEmailFromAddress())), nil
	case "sendgrid":
		return newTemplated(NewSendGrid(cfg.GetSendGridAPIKey(), cfg.GetEmailFromName(), cfg.GetEmailFromAddress())), nil
	case "smtp":
		return newTemplated(NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		)), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}

// templated renders the HTML templates and hands the result to a provider.
type templated struct {
	d deliverer
}

func newTemplated(d deliverer) *templated {
	return &templated{d: d}
}

func (t *templated) SendFollowUpEmail(ctx context.Context, toEmail, clientName, planName string) error {
	content, err := renderEmailTemplate("followup.html", followUpEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectFollowUp,
			Heading: "Thanks for meeting with us",
		},
		ClientName: clientName,
		PlanName:   planName,
	})
	if err != nil {
		return err
	}
	return t.d.deliver(ctx, Message{To: toEmail, Subject: subjectFollowUp, HTML: content})
}

func (t *templated) SendCallReminderEmail(ctx context.Context, toEmail string, reminder CallReminder) error {
	subject := fmt.Sprintf(subjectCallReminderFmt, reminder.ClientName)
	content, err := renderEmailTemplate("call_reminder.html", callReminderEmailData{
		baseEmailData: baseEmailData{
			Title:   subject,
			Heading: "Follow-up call due",
		},
		CallReminder: reminder,
	})
	if err != nil {
		return err
	}
	return t.d.deliver(ctx, Message{To: toEmail, Subject: subject, HTML: content})
}

func (t *templated) SendCampaignEmail(ctx context.Context, toEmail, subject, body string) error {
	content, err := renderEmailTemplate("campaign.html", campaignEmailData{
		baseEmailData: baseEmailData{
			Title:   subject,
			Heading: subject,
		},
		Paragraphs: splitParagraphs(body),
	})
	if err != nil {
		return err
	}
	return t.d.deliver(ctx, Message{To: toEmail, Subject: subject, HTML: content})
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"bda_portal_backend/internal/campaigns"
	"bda_portal_backend/internal/crmclient"

	"github.com/spf13/cobra"
)

func newCampaignCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Send and review bulk campaigns",
	}
	cmd.AddCommand(
		newCampaignWhatsAppCommand(app),
		newCampaignEmailCommand(app),
		newCampaignRunsCommand(app),
	)
	return cmd
}

// confirmPartial prompts unless yes is set.
func (a *App) confirmPartial(yes bool) crmclient.ConfirmFunc {
	return func(pf crmclient.PartialFailure) bool {
		a.warn("%d recipients already paid:", len(pf.PaidRecipients))
		for _, r := range pf.PaidRecipients {
			fmt.Fprintf(a.Out, "  %s  %s\n", r.BookingID, r.ClientName)
		}
		if yes {
			return true
		}
		return a.confirm(fmt.Sprintf("Send to the %d remaining recipients?", pf.ValidCount))
	}
}

func (a *App) printCampaignResult(res campaigns.Result) {
	a.success("Run %s: %d of %d sent", res.RunID, res.Sent, res.Requested)
	if res.SkippedPaid > 0 || res.SkippedNoContact > 0 {
		a.warn("skipped %d paid, %d without contact details", res.SkippedPaid, res.SkippedNoContact)
	}
	for _, id := range res.NotFound {
		a.warn("not found: %s", id)
	}
	if len(res.Failures) > 0 {
		rows := make([][]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			rows = append(rows, []string{f.BookingID, f.Error})
		}
		a.table([]string{"Booking", "Error"}, rows)
	}
}

// campaignRun wraps a send so a declined prompt is not reported as a failure.
func (a *App) campaignRun(res campaigns.Result, err error) error {
	if errors.Is(err, crmclient.ErrCampaignDeclined) {
		a.warn("campaign not sent")
		return nil
	}
	if err != nil {
		return err
	}
	return a.done(res, func() { a.printCampaignResult(res) })
}

func readBody(inline, file string) (string, error) {
	if file == "" {
		return inline, nil
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(raw), nil
}

func newCampaignWhatsAppCommand(app *App) *cobra.Command {
	var (
		ids         []string
		message     string
		messageFile string
		yes         bool
	)
	cmd := &cobra.Command{
		Use:   "whatsapp",
		Short: "Send a WhatsApp message to selected bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readBody(message, messageFile)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			res, err := app.Client.SendWhatsAppCampaign(ctx, campaigns.SendWhatsAppRequest{
				BookingIDs: ids,
				Message:    body,
			}, app.confirmPartial(yes))
			return app.campaignRun(res, err)
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "booking ids, comma separated")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message template, may use {{.ClientName}} and {{.PlanName}}")
	cmd.Flags().StringVar(&messageFile, "message-file", "", "read the message template from a file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "send to valid recipients without asking")
	return cmd
}

func newCampaignEmailCommand(app *App) *cobra.Command {
	var (
		ids      []string
		subject  string
		body     string
		bodyFile string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Send an email to selected bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readBody(body, bodyFile)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			res, err := app.Client.SendEmailCampaign(ctx, campaigns.SendEmailRequest{
				BookingIDs: ids,
				Subject:    subject,
				Body:       text,
			}, app.confirmPartial(yes))
			return app.campaignRun(res, err)
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "booking ids, comma separated")
	cmd.Flags().StringVar(&subject, "subject", "", "email subject")
	cmd.Flags().StringVar(&body, "body", "", "email body template")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "read the body template from a file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "send to valid recipients without asking")
	return cmd
}

func newCampaignRunsCommand(app *App) *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent campaign runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch := campaigns.Channel(channel)
			if ch != campaigns.ChannelWhatsApp && ch != campaigns.ChannelEmail {
				return &crmclient.ValidationError{Field: "channel", Message: "must be whatsapp or email"}
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			runs, err := app.Client.CampaignRuns(ctx, ch)
			if err != nil {
				return err
			}
			return app.done(runs, func() {
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.CreatedAt.Format("2006-01-02 15:04"),
						r.CreatedBy,
						strconv.Itoa(r.Requested),
						strconv.Itoa(r.Sent),
						strconv.Itoa(r.Failed),
						strconv.Itoa(r.SkippedPaid),
					})
				}
				app.table([]string{"When", "By", "Requested", "Sent", "Failed", "Paid skipped"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&channel, "channel", string(campaigns.ChannelWhatsApp), "whatsapp or email")
	return cmd
}

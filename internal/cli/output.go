package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/transport"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) table(header []string, rows [][]string) {
	t := tablewriter.NewWriter(a.Out)
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	t.Header(cells...)
	for _, row := range rows {
		_ = t.Append(row)
	}
	_ = t.Render()
}

func (a *App) heading(format string, args ...any) {
	fmt.Fprintln(a.Out, color.New(color.FgCyan, color.Bold).Sprintf(format, args...))
}

func (a *App) success(format string, args ...any) {
	fmt.Fprintln(a.Out, color.New(color.FgGreen).Sprintf(format, args...))
}

func (a *App) warn(format string, args ...any) {
	fmt.Fprintln(a.Out, color.New(color.FgYellow).Sprintf(format, args...))
}

func statusColor(s domain.Status) *color.Color {
	switch s {
	case domain.StatusPaid:
		return color.New(color.FgGreen, color.Bold)
	case domain.StatusCompleted:
		return color.New(color.FgCyan)
	case domain.StatusCanceled, domain.StatusNoShow, domain.StatusIgnored:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func (a *App) printLead(l transport.LeadResponse) {
	a.heading("Lead %s", l.BookingID)
	w := a.Out
	fmt.Fprintf(w, "  Client:    %s <%s>\n", l.ClientName, l.ClientEmail)
	if l.ClientPhone != nil {
		fmt.Fprintf(w, "  Phone:     %s\n", *l.ClientPhone)
	}
	fmt.Fprintf(w, "  Status:    %s\n", statusColor(l.BookingStatus).Sprint(l.BookingStatus))
	if l.ScheduledEventStartTime != nil {
		fmt.Fprintf(w, "  Meeting:   %s\n", l.ScheduledEventStartTime.Format(time.RFC3339))
	}
	if l.PaymentPlan != nil {
		fmt.Fprintf(w, "  Plan:      %s %s\n", l.PaymentPlan.Name, l.PaymentPlan.DisplayPrice)
	}
	if l.ClaimedBy != nil {
		fmt.Fprintf(w, "  Claimed:   %s (%s)\n", l.ClaimedBy.Name, l.ClaimedBy.Email)
	} else {
		fmt.Fprintf(w, "  Claimed:   %s\n", color.New(color.Faint).Sprint("unclaimed"))
	}
	if l.IncentiveINR != nil {
		fmt.Fprintf(w, "  Incentive: %s\n", domain.FormatINR(*l.IncentiveINR))
	}
	fmt.Fprintf(w, "  Source:    %s\n", l.UTMSource)
	if strings.TrimSpace(l.MeetingNotes) != "" {
		fmt.Fprintf(w, "  Notes:     %s\n", l.MeetingNotes)
	}
}

func (a *App) printFollowUps(resp transport.StatusChangeResponse) {
	if resp.FollowUpScheduled {
		fmt.Fprintf(a.Out, "%d follow-ups scheduled\n", resp.FollowUpCount)
	}
	if resp.FollowUpError != "" {
		a.warn("follow-ups not scheduled: %s", resp.FollowUpError)
	}
}

func (a *App) printLeadTable(items []transport.LeadResponse) {
	rows := make([][]string, 0, len(items))
	for _, l := range items {
		plan, owner := "-", "-"
		if l.PaymentPlan != nil {
			plan = string(l.PaymentPlan.Name) + " " + l.PaymentPlan.DisplayPrice
		}
		if l.ClaimedBy != nil {
			owner = l.ClaimedBy.Email
		}
		rows = append(rows, []string{l.BookingID, l.ClientName, l.ClientEmail, string(l.BookingStatus), plan, owner})
	}
	a.table([]string{"Booking", "Client", "Email", "Status", "Plan", "Owner"}, rows)
}

func (a *App) printPagination(p transport.Pagination) {
	fmt.Fprintf(a.Out, "page %d of %d, %d total\n", p.Page, p.TotalPages, p.Total)
}

// confirm asks a yes/no question on the app's input.
func (a *App) confirm(question string) bool {
	fmt.Fprint(a.Out, color.New(color.FgYellow).Sprint(question)+" [y/N]: ")
	var answer string
	if _, err := fmt.Fscanln(a.In, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (a *App) done(v any, table func()) error {
	if a.Format == "json" {
		return a.printJSON(v)
	}
	table()
	return nil
}

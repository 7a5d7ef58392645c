package cli

import (
	"strings"

	"bda_portal_backend/internal/crmclient"
	"bda_portal_backend/internal/leads/domain"
	"bda_portal_backend/internal/leads/transport"

	"github.com/spf13/cobra"
)

type planFlags struct {
	name     string
	price    float64
	currency string
}

func (p *planFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.name, "plan", "", "plan name ("+strings.Join(domain.PlanValues(), ", ")+")")
	cmd.Flags().Float64Var(&p.price, "price", 0, "amount paid")
	cmd.Flags().StringVar(&p.currency, "currency", string(domain.CurrencyUSD), "payment currency ("+strings.Join(domain.CurrencyValues(), ", ")+")")
}

// plan returns nil when no plan flag was given.
func (p *planFlags) plan(cmd *cobra.Command) *domain.PaymentPlan {
	if !cmd.Flags().Changed("plan") && !cmd.Flags().Changed("price") {
		return nil
	}
	return &domain.PaymentPlan{Name: domain.PlanName(p.name), Price: p.price, Currency: domain.Currency(p.currency)}
}

func newLeadCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lead",
		Short: "Look up and work a single lead",
	}
	cmd.AddCommand(
		newLeadGetCommand(app),
		newLeadClaimCommand(app),
		newLeadUpdateCommand(app),
		newLeadStatusCommand(app),
		newLeadUnclaimCommand(app),
	)
	return cmd
}

func newLeadGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <client-email>",
		Short: "Find a lead by client email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			lead, err := app.Client.LeadByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			return app.done(lead, func() { app.printLead(lead) })
		},
	}
}

func newLeadClaimCommand(app *App) *cobra.Command {
	var plan planFlags
	cmd := &cobra.Command{
		Use:   "claim <booking-id>",
		Short: "Claim an unclaimed lead, optionally with the plan sold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			lead, err := app.Client.ClaimLead(ctx, args[0], plan.plan(cmd))
			if err != nil {
				return err
			}
			return app.done(lead, func() {
				app.success("Claimed %s", lead.BookingID)
				app.printLead(lead)
			})
		},
	}
	plan.bind(cmd)
	return cmd
}

func newLeadUpdateCommand(app *App) *cobra.Command {
	var (
		plan       planFlags
		notes      string
		anything   string
		phone      string
		clearPhone bool
		status     string
	)
	cmd := &cobra.Command{
		Use:   "update <booking-id>",
		Short: "Update notes, phone, plan or status of a claimed lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := crmclient.UpdateLead{
				PaymentPlan: plan.plan(cmd),
				ClearPhone:  clearPhone,
			}
			if cmd.Flags().Changed("notes") {
				update.MeetingNotes = &notes
			}
			if cmd.Flags().Changed("anything-to-know") {
				update.AnythingToKnow = &anything
			}
			if cmd.Flags().Changed("phone") {
				update.ClientPhone = &phone
			}
			if cmd.Flags().Changed("status") {
				s, err := domain.ParseStatus(status)
				if err != nil {
					return &crmclient.ValidationError{Field: "status", Message: err.Error()}
				}
				update.BookingStatus = &s
			}

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			resp, err := app.Client.UpdateLead(ctx, args[0], update)
			if err != nil {
				return err
			}
			return app.done(resp, func() {
				app.success("Updated %s", resp.Lead.BookingID)
				app.printLead(resp.Lead)
				app.printFollowUps(resp)
			})
		},
	}
	plan.bind(cmd)
	cmd.Flags().StringVar(&notes, "notes", "", "meeting notes")
	cmd.Flags().StringVar(&anything, "anything-to-know", "", "client context")
	cmd.Flags().StringVar(&phone, "phone", "", "client phone")
	cmd.Flags().BoolVar(&clearPhone, "clear-phone", false, "remove the stored phone")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	return cmd
}

func newLeadStatusCommand(app *App) *cobra.Command {
	var plan planFlags
	cmd := &cobra.Command{
		Use:   "status <booking-id> <status>",
		Short: "Move a lead to another status; paid needs --plan and --price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			resp, err := app.Client.ChangeStatus(ctx, args[0], transport.StatusChangeRequest{
				Status: args[1],
				Plan:   plan.plan(cmd),
			})
			if err != nil {
				return err
			}
			return app.done(resp, func() {
				app.success("%s is now %s", resp.Lead.BookingID, statusColor(resp.Lead.BookingStatus).Sprint(resp.Lead.BookingStatus))
				app.printFollowUps(resp)
			})
		},
	}
	plan.bind(cmd)
	return cmd
}

func newLeadUnclaimCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unclaim <booking-id>",
		Short: "Release a claimed lead (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			lead, err := app.Client.Unclaim(ctx, args[0])
			if err != nil {
				return err
			}
			return app.done(lead, func() { app.success("Released %s", lead.BookingID) })
		},
	}
}

type filterFlags struct {
	search    string
	status    string
	plan      string
	from      string
	to        string
	utmSource string
	minAmount float64
	maxAmount float64
	page      int
	limit     int
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "free-text search")
	cmd.Flags().StringVar(&f.status, "status", "", "status filter, or all")
	cmd.Flags().StringVar(&f.plan, "plan", "", "plan filter, or all")
	cmd.Flags().StringVar(&f.from, "from", "", "from date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "to date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.utmSource, "utm-source", "", "UTM source filter")
	cmd.Flags().Float64Var(&f.minAmount, "min-amount", 0, "minimum amount paid")
	cmd.Flags().Float64Var(&f.maxAmount, "max-amount", 0, "maximum amount paid")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 20, "page size")
}

func (f *filterFlags) state(cmd *cobra.Command) crmclient.QueryState {
	var lo, hi *float64
	if cmd.Flags().Changed("min-amount") {
		lo = &f.minAmount
	}
	if cmd.Flags().Changed("max-amount") {
		hi = &f.maxAmount
	}
	return crmclient.QueryState{}.
		WithSearch(f.search).
		WithStatus(f.status).
		WithPlan(f.plan).
		WithDateRange(f.from, f.to).
		WithUTMSource(f.utmSource).
		WithAmountRange(lo, hi).
		WithLimit(f.limit).
		WithPage(f.page)
}

func newLeadsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List leads",
	}
	cmd.AddCommand(newLeadsMineCommand(app), newLeadsListCommand(app))
	return cmd
}

func newLeadsMineCommand(app *App) *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List leads you claimed, with the incentive total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			resp, err := app.Client.MyLeads(ctx, filters.state(cmd))
			if err != nil {
				return err
			}
			return app.done(resp, func() {
				app.printLeadTable(resp.Items)
				app.printPagination(resp.Pagination)
				app.heading("Incentives: %s across %d paid leads", resp.TotalIncentivesDisplay, resp.PaidLeads)
				if resp.ExcludedNonUSD > 0 {
					app.warn("%d non-USD payments are excluded from the total", resp.ExcludedNonUSD)
				}
			})
		},
	}
	filters.bind(cmd)
	return cmd
}

func newLeadsListCommand(app *App) *cobra.Command {
	var (
		filters filterFlags
		view    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all leads or campaign bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			var (
				resp transport.ListResponse
				err  error
			)
			switch view {
			case "leads":
				resp, err = app.Client.ListLeads(ctx, filters.state(cmd))
			case "bookings":
				resp, err = app.Client.ListCampaignBookings(ctx, filters.state(cmd))
			default:
				return &crmclient.ValidationError{Field: "view", Message: "must be leads or bookings"}
			}
			if err != nil {
				return err
			}
			return app.done(resp, func() {
				app.printLeadTable(resp.Items)
				app.printPagination(resp.Pagination)
				app.heading("Revenue: %s, %d paid", resp.Stats.TotalRevenueLabel, resp.Stats.PaidCount)
			})
		},
	}
	filters.bind(cmd)
	cmd.Flags().StringVar(&view, "view", "leads", "leads or bookings")
	return cmd
}

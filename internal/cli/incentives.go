package cli

import (
	"fmt"
	"os"
	"strconv"

	"bda_portal_backend/internal/crmclient"
	"bda_portal_backend/internal/incentives"
	"bda_portal_backend/internal/leads/domain"

	"github.com/spf13/cobra"
)

func newIncentivesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incentives",
		Short: "Read or change the plan incentive config",
	}
	cmd.AddCommand(newIncentivesGetCommand(app), newIncentivesSetCommand(app))
	return cmd
}

func (a *App) printIncentives(resp incentives.ConfigResponse) {
	rows := make([][]string, 0, len(resp.Plans))
	for _, p := range resp.Plans {
		rows = append(rows, []string{
			string(p.PlanName),
			domain.DisplayAmount(p.BasePriceUSD, domain.CurrencyUSD),
			domain.FormatINR(p.IncentivePerLeadINR),
		})
	}
	a.table([]string{"Plan", "Base price", "Incentive per lead"}, rows)
}

func newIncentivesGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the incentive config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			resp, err := app.Client.IncentiveConfig(ctx)
			if err != nil {
				return err
			}
			return app.done(resp, func() { app.printIncentives(resp) })
		},
	}
}

func newIncentivesSetCommand(app *App) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set [<plan> <base-price-usd> <incentive-inr>]",
		Short: "Replace plans from arguments or a YAML catalog (admin)",
		Args: func(cmd *cobra.Command, args []string) error {
			if file == "" && len(args) != 3 {
				return fmt.Errorf("expected <plan> <base-price-usd> <incentive-inr> or --file")
			}
			if file != "" && len(args) != 0 {
				return fmt.Errorf("--file cannot be combined with arguments")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := plansFromInput(file, args)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			resp, err := app.Client.PutIncentiveConfig(ctx, plans)
			if err != nil {
				return err
			}
			return app.done(resp, func() {
				app.success("Saved %d plans", len(plans))
				app.printIncentives(resp)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog with a plans list")
	return cmd
}

func plansFromInput(file string, args []string) ([]domain.PlanConfig, error) {
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		return incentives.ParseCatalog(raw)
	}

	name, err := domain.ParsePlanName(args[0])
	if err != nil {
		return nil, &crmclient.ValidationError{Field: "plan", Message: err.Error()}
	}
	base, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, &crmclient.ValidationError{Field: "basePriceUsd", Message: "must be a number"}
	}
	incentive, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return nil, &crmclient.ValidationError{Field: "incentivePerLeadInr", Message: "must be a number"}
	}
	return []domain.PlanConfig{{
		PlanName:            name,
		BasePriceUSD:        base,
		Currency:            domain.CurrencyUSD,
		IncentivePerLeadINR: incentive,
	}}, nil
}

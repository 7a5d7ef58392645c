package cli

import (
	"github.com/spf13/cobra"
)

func newClientCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Client-level admin actions",
	}
	cmd.AddCommand(newClientDeleteCommand(app))
	return cmd
}

func newClientDeleteCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <client-email>",
		Short: "Delete every lead for a client email (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !app.confirm("Delete all leads for "+args[0]+"?") {
				app.warn("aborted")
				return nil
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			resp, err := app.Client.DeleteClient(ctx, args[0])
			if err != nil {
				return err
			}
			return app.done(resp, func() {
				app.success("Deleted %d leads for %s", resp.Deleted, resp.Email)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

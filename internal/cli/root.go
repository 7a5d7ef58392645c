// Package cli implements the bdactl commands over crmclient.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"bda_portal_backend/internal/crmclient"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "BDACTL"

	keyAPIURL = "api-url"
	keyToken  = "token"
	keyOutput = "output"

	defaultAPIURL  = "http://localhost:8080"
	requestTimeout = 60 * time.Second
)

var version = "dev"

// App carries global CLI state shared across commands.
type App struct {
	Client *crmclient.Client
	Out    io.Writer
	In     io.Reader
	Format string
}

// NewRootCommand builds the command tree. in feeds confirmation prompts.
// Global flags fall back to BDACTL_API_URL, BDACTL_TOKEN and BDACTL_OUTPUT.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	app := &App{Out: out, In: in}

	root := &cobra.Command{
		Use:           "bdactl",
		Short:         "Work BDA portal leads from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			apiURL := strings.TrimSpace(v.GetString(keyAPIURL))
			if apiURL == "" {
				apiURL = defaultAPIURL
			}
			token := strings.TrimSpace(v.GetString(keyToken))
			format := strings.ToLower(v.GetString(keyOutput))
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown output format %q", v.GetString(keyOutput))
			}
			app.Client = crmclient.New(apiURL, crmclient.WithToken(token))
			app.Format = format
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(in)
	root.SetVersionTemplate("{{.Name}} version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.String(keyAPIURL, defaultAPIURL, "API base URL ($BDACTL_API_URL)")
	flags.String(keyToken, "", "bearer token ($BDACTL_TOKEN)")
	flags.StringP(keyOutput, "o", "table", "output format: table or json ($BDACTL_OUTPUT)")
	for _, key := range []string{keyAPIURL, keyToken, keyOutput} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	root.AddCommand(
		newLeadCommand(app),
		newLeadsCommand(app),
		newIncentivesCommand(app),
		newClientCommand(app),
		newCampaignCommand(app),
		newAnalysisCommand(app),
	)
	return root
}

// Execute runs bdactl and prints a colored error line on failure.
func Execute(ctx context.Context) int {
	root := NewRootCommand(os.Stdin, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	var ve *crmclient.ValidationError
	var fe *crmclient.FetchError
	switch {
	case errors.As(err, &ve):
		fmt.Fprintln(w, color.New(color.FgYellow).Sprint("invalid input: ")+ve.Error())
	case errors.As(err, &fe):
		fmt.Fprintln(w, color.New(color.FgRed, color.Bold).Sprint("request failed: ")+fe.Error())
	default:
		fmt.Fprintln(w, color.New(color.FgRed, color.Bold).Sprint("error: ")+err.Error())
	}
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

// Package cli builds the marquee command tree. With no subcommand it starts
// the console; the subcommands are scriptable one-shots against the same
// backend.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/five82/marquee/internal/app"
	"github.com/five82/marquee/internal/config"
	"github.com/five82/marquee/internal/logger"
)

// Flag and environment keys.
const (
	keyConfig   = "config"
	keyURL      = "url"
	keyPoll     = "poll"
	keyPassword = "password"
	keyJSON     = "json"
)

type cliApp struct {
	v *viper.Viper

	// setup is swapped in tests.
	setup func(app.Options) (*app.Services, error)
	run   func(context.Context, app.Options) error
}

func (a *cliApp) options() app.Options {
	return app.Options{
		ConfigPath: a.v.GetString(keyConfig),
		APIURL:     a.v.GetString(keyURL),
		PollEvery:  a.v.GetInt(keyPoll),
		Password:   a.v.GetString(keyPassword),
	}
}

// services runs fn with a ready client and closes the log file afterwards.
func (a *cliApp) services(fn func(*app.Services) error) error {
	svc, err := a.setup(a.options())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()
	return fn(svc)
}

func (a *cliApp) jsonOutput() bool {
	return a.v.GetBool(keyJSON)
}

// NewRootCmd returns the marquee command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&cliApp{v: viper.New(), setup: app.Setup, run: app.Run})
}

func newRootCmd(a *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "marquee",
		Short:         "Terminal console for the Kometa WebUI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive console
  marquee

  # Check the backend from a script
  marquee status --json

  # Validate a collection file before saving it
  marquee validate config/Movies.yml
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), a.options())
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(keyConfig, "", "config file (default "+config.DefaultPath()+")")
	flags.String(keyURL, "", "Kometa WebUI base URL")
	flags.Int(keyPoll, 0, "status refresh interval in seconds")
	flags.Bool(keyJSON, false, "print JSON instead of tables")

	// Flags win over MARQUEE_* variables; both win over the config file.
	a.v.SetEnvPrefix("MARQUEE")
	a.v.AutomaticEnv()
	_ = a.v.BindPFlag(keyConfig, flags.Lookup(keyConfig))
	_ = a.v.BindPFlag(keyURL, flags.Lookup(keyURL))
	_ = a.v.BindPFlag(keyPoll, flags.Lookup(keyPoll))
	_ = a.v.BindPFlag(keyJSON, flags.Lookup(keyJSON))
	_ = a.v.BindEnv(keyURL, config.EnvAPIURL)
	_ = a.v.BindEnv(keyPoll, config.EnvPoll)
	_ = a.v.BindEnv(keyPassword, config.EnvPassword)

	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newTestCmd(a))
	cmd.AddCommand(newRunsCmd(a))
	cmd.AddCommand(newDiffCmd(a))
	cmd.AddCommand(newLogsCmd(a))
	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

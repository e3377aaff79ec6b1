// Package cli implements hirectl, a terminal client that pages through the
// hireboard API.
package cli

import (
	"github.com/charmbracelet/log"
	"github.com/justsurfingit/hireboard/internal/client"
	"github.com/justsurfingit/hireboard/internal/config"
	"github.com/justsurfingit/hireboard/internal/logging"
	"github.com/justsurfingit/hireboard/internal/pagination"
	"github.com/justsurfingit/hireboard/internal/session"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand, built in PersistentPreRunE.
type app struct {
	cfg    config.ClientConfig
	logger *log.Logger
	bus    *session.Bus
	store  *session.Store
	api    *client.Client
}

// newClient builds an API client. When authenticated is set every request
// carries the session token and fails with session.ErrSignedOut while signed
// out.
func (a *app) newClient(authenticated bool) *client.Client {
	opts := []client.Option{
		client.WithTimeout(a.cfg.RequestTimeout),
		client.WithRateLimit(a.cfg.RequestsPerSecond),
		client.WithLogger(a.logger),
	}
	if authenticated {
		opts = append(opts, client.WithTokenSource(a.store))
	}
	return client.New(a.cfg.APIBaseURL, opts...)
}

func (a *app) controllerOptions(extra ...pagination.Option) []pagination.Option {
	return append([]pagination.Option{
		pagination.WithLimit(a.cfg.PageSize),
		pagination.WithDebounce(a.cfg.SearchDebounce),
		pagination.WithLogger(a.logger),
	}, extra...)
}

// NewRootCmd creates the root cobra command for hirectl.
func NewRootCmd() *cobra.Command {
	a := &app{}
	var (
		flagServer    string
		flagToken     string
		flagDebug     bool
		flagLogLevel  string
		flagLogFormat string
	)

	root := &cobra.Command{
		Use:   "hirectl",
		Short: "Browse tracked job applications and email templates",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.APIBaseURL = flagServer
			}
			if flags.Changed("token") {
				cfg.APIToken = flagToken
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = flagLogLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = flagLogFormat
			}
			if flagDebug {
				cfg.LogLevel = "debug"
			}

			a.cfg = cfg
			a.logger = logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			a.bus = session.NewBus()
			a.store = session.NewStore(a.bus, cfg.APIToken)
			a.api = a.newClient(a.store.SignedIn())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.bus != nil {
				a.bus.Close()
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", "", "API base URL (or HIREBOARD_API_URL env)")
	root.PersistentFlags().StringVar(&flagToken, "token", "", "API bearer token (or HIREBOARD_API_TOKEN env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json, logfmt)")

	root.AddCommand(
		newJobsCmd(a),
		newTemplatesCmd(a),
		newEventsCmd(a),
		newBrowseCmd(a),
	)
	return root
}

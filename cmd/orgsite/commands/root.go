// Package commands implements the orgsite command line client.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"orgsite-client/internal/api"
	"orgsite-client/internal/config"
	"orgsite-client/internal/dialog"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/navigation"
	"orgsite-client/internal/notify"
	"orgsite-client/internal/observability"
	"orgsite-client/internal/service"
	"orgsite-client/internal/tokenstore"
)

// app holds everything a command needs. It is built once per invocation,
// after flags are parsed.
type app struct {
	cfg     *config.Config
	store   domain.TokenStore
	closer  io.Closer
	client  *api.Client
	toasts  *notify.Center
	dialogs *dialog.Manager
	auth    *service.AuthService
	data    *service.Data

	out    io.Writer
	errOut io.Writer
	prompt *prompter
}

// Option customises the root command, mainly for tests.
type Option func(*settings)

type settings struct {
	loadConfig func() (*config.Config, error)
	store      domain.TokenStore
}

// WithConfig skips environment loading.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.loadConfig = func() (*config.Config, error) { return cfg, nil }
	}
}

// WithTokenStore overrides the configured session backend.
func WithTokenStore(store domain.TokenStore) Option {
	return func(s *settings) { s.store = store }
}

type globalFlags struct {
	apiURL     string
	tokenStore string
	logLevel   string
}

// NewRootCommand creates the root command
func NewRootCommand(opts ...Option) *cobra.Command {
	s := &settings{loadConfig: config.Load}
	for _, opt := range opts {
		opt(s)
	}

	var flags globalFlags
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "orgsite",
		Short:         "Command line client for the organisation site",
		Long:          `orgsite logs in to the organisation site backend and manages its programs, services, events, news and users.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, s, flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", "", "Backend base URL (overrides ORGSITE_API_URL)")
	pf.StringVar(&flags.tokenStore, "store", "", "Session store: file, memory or redis (overrides ORGSITE_TOKEN_STORE)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		newLoginCommand(a),
		newRegisterCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newHealthCommand(a),
		newListCommand(a),
		newGetCommand(a),
		newCreateCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newUploadCommand(a),
		newDashboardCommand(a),
		newBookCommand(a),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command, s *settings, flags globalFlags) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if flags.apiURL != "" || flags.tokenStore != "" {
		c := *cfg
		if flags.apiURL != "" {
			c.APIBaseURL = flags.apiURL
		}
		if flags.tokenStore != "" {
			c.TokenStore = flags.tokenStore
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = &c
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	observability.InitLoggerTo(a.errOut, cfg.LogLevel, cfg.LogFormat)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a.store, a.closer = s.store, nil
	if a.store == nil {
		store, closer, err := tokenstore.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		a.store, a.closer = store, closer
	}

	// A terminal has nothing to show while a browser would wait to redirect,
	// so navigation happens at once and prints a hint.
	nav := navigation.Printer{W: a.errOut}
	clientOpts := []api.Option{
		api.WithNavigator(nav),
		api.WithLoginPath(cfg.LoginPath),
	}
	if cfg.RateLimit > 0 {
		clientOpts = append(clientOpts, api.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)))
	}
	client, err := api.NewClient(cfg.APIBaseURL, a.store, clientOpts...)
	if err != nil {
		return err
	}
	a.client = client

	a.toasts = notify.NewCenter(notify.WithSink(toastSink(a.errOut)))
	a.prompt = newPrompter(cmd.InOrStdin(), a.errOut)
	a.dialogs = dialog.NewManager(dialog.WithOpenHook(a.prompt.ask))
	a.prompt.bind(a.dialogs.Resolve)

	scheduler := navigation.NewScheduler(nav, navigation.WithAfterFunc(immediately))
	a.auth = service.NewAuthService(client, a.store,
		service.WithNotifier(a.toasts),
		service.WithNavigator(nav),
		service.WithScheduler(scheduler),
		service.WithLoginPath(cfg.LoginPath),
	)
	a.data = service.NewData(client, a.auth, service.WithCacheTTL(cfg.CacheTTL))
	a.auth.OnLogout(a.data.ClearOnLogout)
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

type firedTimer struct{}

func (firedTimer) Stop() bool { return false }

func immediately(_ time.Duration, f func()) navigation.Timer {
	f()
	return firedTimer{}
}

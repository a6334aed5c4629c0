// Package cli implements the leadreach command-line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/cache"
	"github.com/leadreach/leadreach/internal/cliconfig"
	"github.com/leadreach/leadreach/internal/credentials"
	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/service"
)

// msgSessionExpired is printed when the backend rejects the stored token.
const msgSessionExpired = "Session expired. Please log in again with `leadreach login`."

// ErrSessionExpired is returned after a 401/403 cleared the credentials.
var ErrSessionExpired = errors.New("session expired")

// errNotLoggedIn wraps credentials.ErrNotLoggedIn with a hint.
var errNotLoggedIn = fmt.Errorf("%w: run `leadreach login` first", credentials.ErrNotLoggedIn)

// App holds the CLI's I/O and environment. Zero fields get process defaults.
type App struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	// ConfigDir overrides cliconfig.Dir.
	ConfigDir  string
	HTTPClient *http.Client
	Now        func() time.Time

	apiURL  string
	timeout time.Duration
	verbose bool
}

func (a *App) defaults() {
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}
	if a.In == nil {
		a.In = os.Stdin
	}
	if a.Now == nil {
		a.Now = time.Now
	}
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	app := &App{}
	return app.run(os.Args[1:])
}

// run executes args and reports errors the way the shell user sees them.
func (a *App) run(args []string) int {
	root := NewRootCmd(a)
	root.SetArgs(args)

	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrSessionExpired):
		fmt.Fprintln(a.Err, msgSessionExpired)
		if err != ErrSessionExpired {
			fmt.Fprintln(a.Err, "Error:", err)
		}
	default:
		fmt.Fprintln(a.Err, "Error:", err)
	}
	return 1
}

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	app.defaults()

	root := &cobra.Command{
		Use:   "leadreach",
		Short: "Discover and export business leads from the terminal",
		Long: `leadreach talks to the LeadReach API: log in, browse your business
groups, generate new ones and download them as CSV.

The API URL comes from --api-url, $LEADREACH_API_URL or api_base_url in
~/.config/leadreach/config.yaml, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.SetIn(app.In)

	root.PersistentFlags().StringVar(&app.apiURL, "api-url", "", "LeadReach API base URL")
	root.PersistentFlags().DurationVar(&app.timeout, "timeout", backend.DefaultTimeout, "timeout for API calls")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "log API calls to stderr")

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newGroupsCmd(app),
		newDiscoverCmd(app),
		newShowCmd(app),
		newExportCmd(app),
	)
	return root
}

// env is everything a command needs to talk to the backend.
type env struct {
	dashboard *service.Dashboard
	creds     *credentials.Store
	cfg       *cliconfig.Config
	apiURL    string
}

func (a *App) configDir() (string, error) {
	if a.ConfigDir != "" {
		return a.ConfigDir, nil
	}
	return cliconfig.Dir()
}

func (a *App) logger() *slog.Logger {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.Err, &slog.HandlerOptions{Level: level}))
}

// newEnv loads config and builds a dashboard service for one invocation.
// The group cache is per-process, so every command sees fresh data.
func (a *App) newEnv() (*env, error) {
	dir, err := a.configDir()
	if err != nil {
		return nil, err
	}
	cfg, err := cliconfig.Load(dir)
	if err != nil {
		return nil, err
	}

	apiURL := cfg.APIURL(a.apiURL)
	httpClient := a.HTTPClient
	if httpClient == nil {
		httpClient = backend.NewHTTPClient(a.timeout)
	}
	client, err := backend.New(apiURL, httpClient)
	if err != nil {
		return nil, err
	}

	dashboard := service.NewDashboard(client, cache.NewMemory(), nil, nil, a.logger(), service.Config{
		DefaultDiscoverLimit: cfg.DefaultLimit,
	})
	return &env{
		dashboard: dashboard,
		creds:     credentials.NewStore(dir),
		cfg:       cfg,
		apiURL:    apiURL,
	}, nil
}

// session turns stored credentials into the session the service expects.
func (e *env) session() (*model.Session, error) {
	creds, err := e.creds.Load()
	if errors.Is(err, credentials.ErrNotLoggedIn) {
		return nil, errNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	return &model.Session{Token: creds.Token, User: creds.User}, nil
}

// authed wraps a command body that needs a stored session. A backend
// 401/403 clears the credentials.
func (a *App) authed(fn func(ctx context.Context, e *env, sess *model.Session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := a.newEnv()
		if err != nil {
			return err
		}
		sess, err := e.session()
		if err != nil {
			return err
		}

		err = fn(cmd.Context(), e, sess, args)
		if backend.IsUnauthorized(err) {
			if clearErr := e.creds.Clear(); clearErr != nil {
				return errors.Join(ErrSessionExpired, clearErr)
			}
			return ErrSessionExpired
		}
		return err
	}
}

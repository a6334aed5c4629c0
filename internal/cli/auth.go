package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/credentials"
	"github.com/leadreach/leadreach/internal/service"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the API token",
		Long: `Log in to the LeadReach API. The token is stored in
~/.config/leadreach/credentials.json with mode 0600.

The password is prompted for when --password is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.newEnv()
			if err != nil {
				return err
			}

			reader := bufio.NewReader(app.In)
			if username == "" {
				if username, err = prompt(app.Out, reader, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = readPassword(app, reader); err != nil {
					return err
				}
			}

			resp, err := e.dashboard.Login(cmd.Context(), username, password)
			if err != nil {
				if errors.Is(err, service.ErrMissingCredentials) {
					return err
				}
				return fmt.Errorf("login failed: %s", backend.Message(err, err.Error()))
			}

			creds := &credentials.Credentials{
				Token:      resp.Token,
				User:       resp.User,
				APIBaseURL: e.apiURL,
				SavedAt:    app.Now().UTC(),
			}
			if err := e.creds.Save(creds); err != nil {
				return err
			}

			st := newStyles(app.Out)
			fmt.Fprintln(app.Out, st.success.Render("Welcome, "+resp.User.Username+"!"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.configDir()
			if err != nil {
				return err
			}
			if err := credentials.NewStore(dir).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Logged out.")
			return nil
		},
	}
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal, else a plain line.
func readPassword(app *App, r *bufio.Reader) (string, error) {
	if f, ok := app.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(app.Out, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(app.Out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return prompt(app.Out, r, "Password: ")
}

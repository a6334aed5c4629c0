package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leadreach/leadreach/internal/backend"
	"github.com/leadreach/leadreach/internal/model"
	"github.com/leadreach/leadreach/internal/service"
)

const (
	viewCards = "cards"
	viewTable = "table"
)

func newGroupsCmd(app *App) *cobra.Command {
	var search, mode string

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List business groups with summary stats",
		Args:  cobra.NoArgs,
		RunE: app.authed(func(ctx context.Context, e *env, sess *model.Session, args []string) error {
			if mode != viewCards && mode != viewTable {
				return fmt.Errorf("--view must be %s or %s", viewCards, viewTable)
			}

			list, err := e.dashboard.ListGroups(ctx, sess, true)
			if err != nil {
				if backend.IsUnauthorized(err) {
					return err
				}
				return fmt.Errorf("load groups: %s", backend.Message(err, err.Error()))
			}

			st := newStyles(app.Out)
			renderStats(app.Out, st, service.ComputeStats(list, app.Now()))

			shown := service.Filter(list.Groups, search)
			switch {
			case len(list.Groups) == 0:
				fmt.Fprintln(app.Out, "No business groups yet")
				fmt.Fprintln(app.Out, st.muted.Render("Run `leadreach discover` to generate your first group."))
				return nil
			case len(shown) == 0:
				fmt.Fprintln(app.Out, "No groups found")
				fmt.Fprintln(app.Out, st.muted.Render(fmt.Sprintf("No groups match %q. Try a different search term.", search)))
				return nil
			case mode == viewTable:
				renderGroupTable(app.Out, st, shown)
			default:
				renderGroupCards(app.Out, st, shown)
			}

			renderFooter(app.Out, st, len(shown), list.Total, strings.TrimSpace(search))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by group name, keyword or city")
	cmd.Flags().StringVar(&mode, "view", viewCards, "layout: cards or table")
	return cmd
}

func newDiscoverCmd(app *App) *cobra.Command {
	var keywords, cities string
	var limit int

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Generate a new business group",
		Example: `  leadreach discover --keywords "restaurants, coffee shops" --cities "New York, Los Angeles"
  leadreach discover -k dentists -c Austin --limit 20`,
		Args: cobra.NoArgs,
		RunE: app.authed(func(ctx context.Context, e *env, sess *model.Session, args []string) error {
			input := service.DiscoverInput{Keywords: keywords, Cities: cities, Limit: limit}

			n, err := e.dashboard.Discover(ctx, sess, input)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrMissingTerms):
					return errors.New(service.MissingTermsMessage)
				case errors.Is(err, service.ErrInvalidLimit), backend.IsUnauthorized(err):
					return err
				}
				return fmt.Errorf("generate businesses: %s", backend.Message(err, err.Error()))
			}

			st := newStyles(app.Out)
			fmt.Fprintln(app.Out, st.success.Render(fmt.Sprintf("Successfully generated %s businesses!", number(n))))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "comma-separated keywords")
	cmd.Flags().StringVarP(&cities, "cities", "c", "", "comma-separated cities")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum businesses to discover (default 50 or default_limit from config.yaml)")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show the businesses in a group",
		Args:  cobra.ExactArgs(1),
		RunE: app.authed(func(ctx context.Context, e *env, sess *model.Session, args []string) error {
			details, err := e.dashboard.GroupDetails(ctx, sess, args[0])
			if err != nil {
				if backend.IsUnauthorized(err) {
					return err
				}
				return fmt.Errorf("load group details: %s", backend.Message(err, err.Error()))
			}

			renderDetails(app.Out, newStyles(app.Out), details)
			return nil
		}),
	}
}

func newExportCmd(app *App) *cobra.Command {
	var name, outDir string

	cmd := &cobra.Command{
		Use:   "export <group-id>",
		Short: "Download a group as CSV",
		Long: `Download a group's businesses as CSV. The file is named after the
group, e.g. coffee-shops-2024-05-01.csv. Without --name the group name is
looked up first.`,
		Args: cobra.ExactArgs(1),
		RunE: app.authed(func(ctx context.Context, e *env, sess *model.Session, args []string) error {
			id := args[0]

			if name == "" {
				// The name only affects the filename, so a failed lookup is not fatal.
				if details, err := e.dashboard.GroupDetails(ctx, sess, id); err == nil {
					name = details.Export.Name
				} else if backend.IsUnauthorized(err) {
					return err
				}
			}

			export, err := e.dashboard.DownloadCSV(ctx, sess, id, name)
			if err != nil {
				if backend.IsUnauthorized(err) {
					return err
				}
				return fmt.Errorf("download CSV: %s", backend.Message(err, err.Error()))
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			path := filepath.Join(outDir, export.Filename)
			if err := os.WriteFile(path, export.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			st := newStyles(app.Out)
			fmt.Fprintln(app.Out, st.success.Render("CSV downloaded: "+path))
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "group name used for the filename")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write the CSV into")
	return cmd
}

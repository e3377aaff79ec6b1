package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/justsurfingit/hireboard/internal/client"
	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/justsurfingit/hireboard/internal/pagination"
	"github.com/spf13/cobra"
)

// listPages starts ctrl, prints the first settled page and, with all set,
// walks forward with SetPage until the last page.
func listPages[T any](ctx context.Context, w io.Writer, logger *log.Logger, ctrl *pagination.Controller[T], all bool, render func(io.Writer, pagination.Snapshot[T])) error {
	defer ctrl.Close()
	events := ctrl.Subscribe()
	ctrl.Start(ctx)

	for {
		snap, err := settle(ctx, ctrl, events, logger)
		if err != nil {
			return err
		}
		if snap.Error != "" {
			return fmt.Errorf("list failed: %w", ctrl.Err())
		}
		render(w, snap)

		p := snap.PageParams
		if !all || p.Page >= p.TotalPages {
			return nil
		}
		ctrl.SetPage(p.Page + 1)
	}
}

func newJobsCmd(a *app) *cobra.Command {
	var (
		page   int
		limit  int
		search string
		status string
		view   string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List tracked jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.controllerOptions(
				pagination.WithLimit(limit),
				pagination.WithPage(page),
				pagination.WithSearchQuery(search),
				pagination.WithKey(client.CollectionKey(view, a.store.SessionID())),
			)
			if status != "" {
				opts = append(opts, pagination.WithCustomFilters(map[string]any{"status": strings.ToUpper(status)}))
			}
			ctrl := pagination.New(a.api.ListJobs, client.NormalizeJobs, opts...)
			return listPages(cmd.Context(), cmd.OutOrStdout(), a.logger, ctrl, all, renderJobs)
		},
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", 1, "Page to show")
	f.IntVar(&limit, "limit", 0, "Rows per page (default HIREBOARD_PAGE_SIZE)")
	f.StringVar(&search, "search", "", "Match title or company")
	f.StringVar(&status, "status", "", "Only jobs with this status (applied, interview, offer, rejected)")
	f.StringVar(&view, "view", dtos.ViewAll, "all, active or closed")
	f.BoolVar(&all, "all", false, "Print every page")
	return cmd
}

func newTemplatesCmd(a *app) *cobra.Command {
	var (
		page     int
		limit    int
		search   string
		category string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List email templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.controllerOptions(
				pagination.WithLimit(limit),
				pagination.WithPage(page),
				pagination.WithSearchQuery(search),
			)
			if category != "" {
				opts = append(opts, pagination.WithCustomFilters(map[string]any{"category": strings.ToUpper(category)}))
			}
			ctrl := pagination.New(a.api.ListTemplates, client.NormalizeTemplates, opts...)
			return listPages(cmd.Context(), cmd.OutOrStdout(), a.logger, ctrl, all, renderTemplates)
		},
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", 1, "Page to show")
	f.IntVar(&limit, "limit", 0, "Rows per page (default HIREBOARD_PAGE_SIZE)")
	f.StringVar(&search, "search", "", "Match name or subject")
	f.StringVar(&category, "category", "", "INTERVIEW_INVITE, REJECTION, OFFER or FOLLOW_UP")
	f.BoolVar(&all, "all", false, "Print every page")
	return cmd
}

func newEventsCmd(a *app) *cobra.Command {
	var (
		page  int
		limit int
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "events JOB_ID",
		Short: "Show the history of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			fetch := func(ctx context.Context, p pagination.Params) (*client.EventPage, error) {
				return a.api.ListJobEvents(ctx, uint(id), p)
			}
			ctrl := pagination.New(fetch, client.NormalizeEvents, a.controllerOptions(
				pagination.WithLimit(limit),
				pagination.WithPage(page),
			)...)
			return listPages(cmd.Context(), cmd.OutOrStdout(), a.logger, ctrl, all, renderEvents)
		},
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", 1, "Page to show")
	f.IntVar(&limit, "limit", 0, "Rows per page (default HIREBOARD_PAGE_SIZE)")
	f.BoolVar(&all, "all", false, "Print every page")
	return cmd
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

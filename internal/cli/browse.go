package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/justsurfingit/hireboard/internal/client"
	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/justsurfingit/hireboard/internal/pagination"
	"github.com/justsurfingit/hireboard/internal/session"
	"github.com/spf13/cobra"
)

const browseHelp = `commands:
  n | p          next / previous page
  g N            go to page N
  / TEXT         search (empty clears)
  f KEY=VALUE    set a filter (empty value removes it, bare f clears all)
  l N            rows per page
  v VIEW         job view: all, active, closed
  r              refetch
  login TOKEN    start a new session
  logout         end the session
  q              quit`

var jobViews = []string{dtos.ViewAll, dtos.ViewActive, dtos.ViewClosed}

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "browse jobs|templates",
		Short:     "Page through jobs or templates interactively",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"jobs", "templates"},
		RunE: func(cmd *cobra.Command, args []string) error {
			api := a.newClient(true)
			ctx, in, out := cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()

			switch args[0] {
			case "jobs":
				ctrl := pagination.New(api.ListJobs, client.NormalizeJobs, a.controllerOptions(
					pagination.WithKey(client.CollectionKey(dtos.ViewAll, a.store.SessionID())),
				)...)
				return newBrowser(a, ctrl, out, renderJobs, true).run(ctx, in)
			default:
				ctrl := pagination.New(api.ListTemplates, client.NormalizeTemplates, a.controllerOptions(
					pagination.WithKey(client.CollectionKey("", a.store.SessionID())),
				)...)
				return newBrowser(a, ctrl, out, renderTemplates, false).run(ctx, in)
			}
		},
	}
}

// browser is a line-oriented view over one controller. Each command is
// applied to the controller, then the browser waits for it to settle and
// redraws the page.
type browser[T any] struct {
	a      *app
	ctrl   *pagination.Controller[T]
	out    io.Writer
	render func(io.Writer, pagination.Snapshot[T])
	views  bool
	view   string
}

func newBrowser[T any](a *app, ctrl *pagination.Controller[T], out io.Writer, render func(io.Writer, pagination.Snapshot[T]), views bool) *browser[T] {
	return &browser[T]{
		a:      a,
		ctrl:   ctrl,
		out:    out,
		render: render,
		views:  views,
		view:   client.ViewFromKey(ctrl.Key()),
	}
}

func (b *browser[T]) run(ctx context.Context, in io.Reader) error {
	sessions, unsubscribe := b.a.bus.Subscribe(4)
	defer unsubscribe()
	defer b.ctrl.Close()
	events := b.ctrl.Subscribe()

	b.ctrl.Start(ctx)
	if err := b.show(ctx, events); err != nil {
		return err
	}
	fmt.Fprintln(b.out, `type "h" for help`)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(b.out)
			return scanner.Err()
		}
		name, arg := parseCommand(scanner.Text())
		if name == "" {
			continue
		}
		if name == "q" || name == "quit" {
			return nil
		}
		if !b.exec(name, arg) {
			continue
		}
		b.applySessionChanges(sessions)
		if err := b.show(ctx, events); err != nil {
			return err
		}
	}
}

// exec applies one command and reports whether the page should be redrawn.
func (b *browser[T]) exec(name, arg string) bool {
	page := b.ctrl.PageParams().Page
	switch name {
	case "n":
		b.ctrl.SetPage(page + 1)
	case "p":
		b.ctrl.SetPage(page - 1)
	case "g":
		n, ok := b.number(arg)
		if !ok {
			return false
		}
		b.ctrl.SetPage(n)
	case "/":
		b.ctrl.SetSearchQuery(arg)
	case "f":
		b.ctrl.SetCustomFilters(applyFilter(b.ctrl.Filters().CustomFilters, arg))
	case "l":
		n, ok := b.number(arg)
		if !ok {
			return false
		}
		b.ctrl.SetLimit(min(n, dtos.MaxLimit))
	case "v":
		if !b.views {
			fmt.Fprintln(b.out, "views are only available for jobs")
			return false
		}
		if !slices.Contains(jobViews, arg) {
			fmt.Fprintf(b.out, "unknown view %q (want %s)\n", arg, strings.Join(jobViews, ", "))
			return false
		}
		b.view = arg
		b.ctrl.SetKey(client.CollectionKey(b.view, b.a.store.SessionID()))
	case "r":
		b.ctrl.Refetch(pagination.RefetchOptions{})
	case "login":
		if arg == "" {
			fmt.Fprintln(b.out, "usage: login TOKEN")
			return false
		}
		b.a.store.SignIn(arg)
	case "logout":
		b.a.store.SignOut()
	case "h", "help", "?":
		fmt.Fprintln(b.out, browseHelp)
		return false
	default:
		fmt.Fprintf(b.out, "unknown command %q, type \"h\" for help\n", name)
		return false
	}
	return true
}

// applySessionChanges rekeys the controller for every session event
// published since the last command.
func (b *browser[T]) applySessionChanges(sessions <-chan session.Event) {
	for {
		select {
		case e, ok := <-sessions:
			if !ok {
				return
			}
			switch e.Type {
			case session.SignedIn:
				fmt.Fprintln(b.out, "signed in")
			case session.SignedOut:
				fmt.Fprintln(b.out, "signed out")
			}
			b.ctrl.SetKey(client.CollectionKey(b.view, e.SessionID))
		default:
			return
		}
	}
}

func (b *browser[T]) show(ctx context.Context, events <-chan pagination.Event[T]) error {
	snap, err := settle(ctx, b.ctrl, events, b.a.logger)
	if err != nil {
		return err
	}
	b.render(b.out, snap)
	return nil
}

func (b *browser[T]) number(arg string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		fmt.Fprintf(b.out, "expected a positive number, got %q\n", arg)
		return 0, false
	}
	return n, true
}

// parseCommand splits a line into a command name and its argument. "/text"
// is accepted as "/ text".
func parseCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, "/"); ok {
		return "/", strings.TrimSpace(rest)
	}
	name, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

// applyFilter returns a copy of current with "key=value" applied. An empty
// arg clears every filter.
func applyFilter(current map[string]any, arg string) map[string]any {
	if arg == "" {
		return nil
	}
	out := maps.Clone(current)
	if out == nil {
		out = map[string]any{}
	}
	key, value, _ := strings.Cut(arg, "=")
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if value == "" {
		delete(out, key)
	} else {
		out[key] = value
	}
	return out
}

// Package main provides the librarydesk command, a terminal front-end for the
// library backend: catalog, readers, posts and the borrow desk.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/librarydesk/librarydesk/internal/config"
	"github.com/librarydesk/librarydesk/internal/di"
	"github.com/librarydesk/librarydesk/internal/di/providers"
	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/notify"
	"github.com/librarydesk/librarydesk/internal/validation"
)

// annotationStandalone marks commands that run without the container.
const annotationStandalone = "standalone"

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitCanceled   = 130
)

// app is the state shared by every command of one invocation.
type app struct {
	flags    config.Overrides
	injector *do.RootScope
	notices  *notify.Subscriber
	stderr   io.Writer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{stderr: os.Stderr}

	root := &cobra.Command{
		Use:   "librarydesk",
		Short: "Front desk for the library backend",
		Long: `librarydesk manages books, readers, posts and borrow slips held by the
library REST backend.

Lists can be searched and filtered by status. Borrowing a book requires the
reader's phone or email to match a registered reader.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.stderr = cmd.ErrOrStderr()
			if cmd.Annotations[annotationStandalone] == "true" {
				return nil
			}
			a.injector = di.NewContainer(a.flags)
			if err := di.Bootstrap(a.injector); err != nil {
				return err
			}
			a.notices = do.MustInvoke[*providers.HubHandle](a.injector).Subscribe("")
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.Environment, "env", "", "Environment: development, staging or production (env: ENV)")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level: debug, info, warn or error (env: LOG_LEVEL)")
	pf.StringVar(&a.flags.BaseURL, "api-base-url", "", "Backend base URL (env: API_BASE_URL)")
	pf.StringVar(&a.flags.Timeout, "api-timeout", "", "Per-request timeout, e.g. 30s (env: API_TIMEOUT)")
	pf.StringVar(&a.flags.Profile, "profile", "", "Backend profile from the config file (env: LIBRARYDESK_PROFILE)")
	pf.StringVar(&a.flags.ProfileFile, "config", "", "Profile file (default: librarydesk.yaml, env: LIBRARYDESK_CONFIG)")
	pf.StringVar(&a.flags.EnvFile, "env-file", "", "Environment file (default: .env)")

	root.AddCommand(
		newBooksCmd(a),
		newReadersCmd(a),
		newPostsCmd(a),
		newBorrowsCmd(a),
		newCatalogCmd(a),
		newSearchCmd(a),
		newMockServerCmd(a),
	)
	return root, a
}

// screens resolves the four screens from the container.
func (a *app) screens() (*di.Screens, error) {
	return di.InvokeScreens(a.injector)
}

// close prints pending notifications and shuts the container down.
func (a *app) close() {
	if a.notices != nil {
		drainNotices(a.stderr, a.notices)
	}
	if a.injector != nil {
		_ = a.injector.Shutdown()
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	a.stderr = stderr

	err := root.ExecuteContext(ctx)
	a.close()
	return reportError(stderr, err)
}

// reportError prints err and returns the process exit code for it.
func reportError(w io.Writer, err error) int {
	if err == nil {
		return exitOK
	}

	switch errors.KindOf(err) {
	case errors.KindValidation:
		fmt.Fprintf(w, "%s %v\n", styleError.Render("invalid input:"), err)
		fields := validation.FieldErrors(err)
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
		}
		return exitValidation
	case errors.KindCanceled:
		fmt.Fprintln(w, styleMuted.Render("canceled"))
		return exitCanceled
	default:
		fmt.Fprintf(w, "%s %v\n", styleError.Render("error:"), err)
		return exitFailure
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

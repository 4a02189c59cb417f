package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/oaiiae/contacts-directory/cli/api"
	"github.com/oaiiae/contacts-directory/cli/browse"
	"github.com/oaiiae/contacts-directory/cli/client"
	"github.com/oaiiae/contacts-directory/cli/logger"
	"github.com/oaiiae/contacts-directory/state"
)

//nolint: gochecknoglobals // set at build time
var (
	title    = "Contacts Directory"
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Pass `--port` or set the `SERVICE_PORT` env var.
type Options struct {
	logger.Options
	api.ServerOptions
	api.RouterOptions
	api.ClientOptions
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger := logger.New(&options.Options)
		srv := api.NewServer(&options.ServerOptions,
			api.NewRouter(&options.RouterOptions, title, version, revision, created, logger),
			logger,
		)
		hooks.OnStart(func() {
			logger.Info("listening", "addr", srv.Addr, "prefix", options.EndpointsPrefix)
			err := srv.ListenAndServe()
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("failed to listen and serve", "err", err)
			} else {
				logger.Info("server closed")
			}
		})
		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			err := srv.Shutdown(ctx)
			if err != nil {
				logger.Warn("could not shutdown the server", "err", err)
			}
		})
	})

	root := cli.Root()
	root.Use = "contacts"
	root.Short = "Serve the contacts API or operate on it as a client"
	root.Version = version
	root.AddCommand(
		clientCommand("list", "List all contacts", cobra.NoArgs,
			func(ctx context.Context, cmd *cobra.Command, _ []string, store *state.Store) error {
				return client.List(ctx, store, cmd.OutOrStdout())
			}),
		clientCommand("create key=value...", "Create a contact from attributes", cobra.MinimumNArgs(1),
			func(ctx context.Context, cmd *cobra.Command, args []string, store *state.Store) error {
				return client.Create(ctx, store, args, cmd.OutOrStdout())
			}),
		clientCommand("delete ID", "Delete a contact by login.uuid", cobra.ExactArgs(1),
			func(ctx context.Context, cmd *cobra.Command, args []string, store *state.Store) error {
				return client.Delete(ctx, store, args[0], cmd.OutOrStdout())
			}),
		clientCommand("get ID", "Open a contact by login.uuid", cobra.ExactArgs(1),
			func(ctx context.Context, cmd *cobra.Command, args []string, store *state.Store) error {
				return client.Get(ctx, store, args[0], cmd.OutOrStdout())
			}),
		clientCommand("browse", "Browse contacts interactively", cobra.NoArgs,
			func(ctx context.Context, _ *cobra.Command, _ []string, store *state.Store) error {
				return browse.Run(ctx, store)
			}),
	)
	cli.Run()
}

// clientCommand returns a subcommand running do with a store built from the
// parsed options. Errors are logged and turn into a non-zero exit status.
func clientCommand(
	use, short string,
	args cobra.PositionalArgs,
	do func(context.Context, *cobra.Command, []string, *state.Store) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, o *Options) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			// the interface owns the terminal, keep logs out of it unless sent to a file
			if cmd.Name() == "browse" && (o.File == "" || o.File == "-") {
				o.File = os.DevNull
			}
			set := metrics.NewSet()
			store := api.NewStore(&o.ClientOptions, logger.New(&o.Options), set)

			err := do(ctx, cmd, args, store)
			err = errors.Join(err, api.WriteMetrics(&o.ClientOptions, set))
			if err != nil {
				slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)).Error(cmd.Name()+" failed", "err", err)
				stop()
				os.Exit(1) //nolint: gocritic // stop already called
			}
		}),
	}
}

package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/conneroisu/assetpack/internal/config"
	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/conneroisu/assetpack/internal/server"
	"github.com/conneroisu/assetpack/internal/validation"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the development server",
		Long: `Start a development server that packs assets on every request.

The configuration file is re-read for each request, so edits to assets or
processors take effect without a restart. Requests that do not name an asset
are served as static files from server.root.

Examples:
  assetpack serve                  # Serve on localhost:8000
  assetpack serve --port 3000      # Use a different port
  assetpack serve --root public    # Serve static files from ./public`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	cmd.Flags().IntP("port", "p", 0, "port to serve on (default 8000)")
	cmd.Flags().String("host", "", "host to bind to (default localhost)")
	cmd.Flags().String("root", "", "directory for static files (default base directory)")
	addFlagValidation(cmd.Flags(), "port", validatePort)
	a.bindOnRun(cmd, map[string]string{
		"port": config.KeyServerPort,
		"host": config.KeyServerHost,
		"root": config.KeyServerRoot,
	})
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := a.settings(ctx, false)
	if err != nil {
		return err
	}
	srv := server.New(
		net.JoinHostPort(settings.Server().Host, strconv.Itoa(settings.Server().Port)),
		a.engineFactory(settings.Output()),
		server.WithFs(a.fs),
		server.WithLogger(a.logger),
		server.WithMetrics(a.metrics),
	)

	base := "http://" + srv.Addr()
	if err := validation.ValidateURL(base); err != nil {
		return apperrors.WrapConfig(err, apperrors.ErrCodeConfigInvalid, "invalid server address")
	}

	fmt.Fprintf(a.out, "Serving %d asset(s) on %s (index at %s)\n",
		len(settings.AssetNames()), color.CyanString(base), base+server.IndexPath)
	return srv.Start(ctx)
}

// engineFactory reloads configuration for every request. output replaces an
// unset output directory so requests do not each create a temporary one.
func (a *app) engineFactory(output string) server.EngineFactory {
	return func(ctx context.Context) (*pack.Engine, error) {
		cfg, err := a.loader.Load()
		if err != nil {
			return nil, err
		}
		b := config.FromConfig(cfg).WithFs(a.fs)
		if cfg.Output == "" {
			b.WithOutput(output)
		}
		s, err := b.Build()
		if err != nil {
			return nil, err
		}
		return a.engine(s)
	}
}

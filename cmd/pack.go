package cmd

import (
	"fmt"
	"time"

	"github.com/conneroisu/assetpack/internal/config"
	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type packOptions struct {
	force  bool
	strict bool
	quiet  bool
}

func (a *app) packCommand() *cobra.Command {
	opts := &packOptions{}
	cmd := &cobra.Command{
		Use:     "pack [asset]",
		Aliases: []string{"p"},
		Short:   "Pack stale assets to the output directory",
		Long: `Pack every configured asset, or only the named one, into the output
directory. Assets whose output is newer than all of their inputs are skipped
unless --force is given.

Examples:
  assetpack pack                    # Pack every stale asset
  assetpack pack css/site.css       # Pack one asset
  assetpack pack --force -o dist    # Repack everything into ./dist
  assetpack pack --strict           # Fail when an input is missing`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return a.runPack(cmd, name, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "repack even when outputs are up to date")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any input is missing")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "only print failures and missing inputs")
	cmd.Flags().StringP("output", "o", "", "override the output directory")
	cmd.Flags().IntP("workers", "j", 0, "assets packed in parallel (default GOMAXPROCS)")
	a.bindOnRun(cmd, map[string]string{
		"output":  config.KeyOutput,
		"workers": config.KeyWorkers,
	})
	return cmd
}

func (a *app) runPack(cmd *cobra.Command, name string, opts *packOptions) error {
	ctx := cmd.Context()
	settings, err := a.settings(ctx, true)
	if err != nil {
		return err
	}
	engine, err := a.engine(settings)
	if err != nil {
		return err
	}
	if name != "" && !engine.Has(name) {
		return apperrors.ErrAssetNotFound(name)
	}
	if settings.Ephemeral() {
		fmt.Fprintf(a.out, "Packing into temporary directory %s\n", settings.Output())
	}

	start := time.Now()
	results, packErr := engine.PackToDisk(ctx, name, opts.force)

	collector := apperrors.NewErrorCollector()
	handler := apperrors.NewErrorHandler(a.logger)
	for _, res := range results {
		collector.AddErrors(res.Missing...)
	}
	for _, res := range results {
		a.printResult(res, collector.GetErrorsByAsset(res.Asset), opts.quiet)
	}
	for _, missing := range collector.GetAllErrors() {
		handler.Handle(ctx, missing)
	}

	if !opts.quiet {
		a.printSummary(time.Since(start))
	}
	if packErr != nil {
		return packErr
	}
	if opts.strict && collector.HasErrors() {
		return fmt.Errorf("%d missing input(s) with --strict", collector.Len())
	}
	return nil
}

func (a *app) printResult(res pack.Result, missing []error, quiet bool) {
	switch {
	case res.Err != nil:
		fmt.Fprintf(a.out, "%s %s: %v\n", color.RedString("failed"), res.Asset, res.Err)
	case res.Packed:
		if !quiet {
			fmt.Fprintf(a.out, "%s %s -> %s (%d inputs, %s)\n",
				color.GreenString("packed"), res.Asset, res.Path, len(res.Inputs), res.Duration.Round(time.Microsecond))
		}
	default:
		if !quiet {
			fmt.Fprintf(a.out, "%s %s\n", color.New(color.Faint).Sprint("up to date"), res.Asset)
		}
	}
	for _, err := range missing {
		fmt.Fprintf(a.out, "  %s %v\n", color.YellowString("missing"), err)
	}
}

func (a *app) printSummary(elapsed time.Duration) {
	m := a.metrics.Snapshot()
	summary := fmt.Sprintf("%d packed, %d up to date, %d failed in %s",
		m.Packed, m.UpToDate, m.Failed, elapsed.Round(time.Millisecond))
	if m.Failed > 0 {
		summary = color.RedString(summary)
	}
	fmt.Fprintln(a.out, summary)
}

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/conneroisu/assetpack/internal/finder"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func (a *app) collectCommand() *cobra.Command {
	var (
		dest   string
		ignore []string
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Repack every asset and copy the outputs to a directory",
		Long: `Force a repack of every asset and copy the packed files into --dest,
skipping names that match an --ignore pattern. Patterns match the full asset
name or its base name.

Examples:
  assetpack collect --dest build/static
  assetpack collect --dest build/static --ignore '*.map'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := a.settings(cmd.Context(), false)
			if err != nil {
				return err
			}
			engine, err := a.engine(settings)
			if err != nil {
				return err
			}

			f := finder.New(engine, a.fs)
			entries, results, err := f.List(cmd.Context(), ignore)
			for _, res := range results {
				for _, missing := range res.Missing {
					a.logger.Warn(cmd.Context(), missing, "Input not found", "asset", res.Asset)
				}
			}
			if err != nil {
				return err
			}

			for _, entry := range entries {
				if err := copyEntry(entry, a.fs, dest); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "Collected %d asset(s) into %s\n", len(entries), dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "destination directory")
	cmd.Flags().StringSliceVarP(&ignore, "ignore", "i", nil, "glob patterns of asset names to skip")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}

func copyEntry(entry finder.Entry, fs afero.Fs, dest string) error {
	src, err := entry.Storage.Open(entry.Name)
	if err != nil {
		return fmt.Errorf("opening packed %s: %w", entry.Name, err)
	}
	defer src.Close()

	target := filepath.Join(dest, filepath.FromSlash(entry.Name))
	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}
	if err := afero.WriteReader(fs, target, src); err != nil {
		return fmt.Errorf("copying %s: %w", entry.Name, err)
	}
	return nil
}

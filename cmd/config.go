package cmd

import (
	"github.com/conneroisu/assetpack/internal/config"
	"github.com/spf13/cobra"
)

func (a *app) configCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after flags and environment overrides are
applied. Builtin defaults are omitted, so the output is the smallest file
that reproduces the current setup.

Examples:
  assetpack config                 # YAML
  assetpack config -f toml > assetpack.toml`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			return validateFormat(format, configFormats)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := a.settings(cmd.Context(), false)
			if err != nil {
				return err
			}
			f, err := config.ParseFormat(format)
			if err != nil {
				return err
			}
			data, err := config.Marshal(settings.Export(), f)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, toml, json)")
	cmd.Flags().StringP("output", "o", "", "override the output directory")
	a.bindOnRun(cmd, map[string]string{"output": config.KeyOutput})
	return cmd
}

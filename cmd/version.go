package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/conneroisu/assetpack/internal/version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) versionCommand() *cobra.Command {
	var (
		format string
		short  bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for assetpack including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version and target platform

Examples:
  assetpack version              # Full version info
  assetpack version --short      # Just the version
  assetpack version --format json`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		PreRunE: func(*cobra.Command, []string) error {
			return validateFormat(format, versionFormats)
		},
		RunE: func(*cobra.Command, []string) error {
			info := version.Get()
			switch format {
			case "json":
				encoder := json.NewEncoder(a.out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			case "yaml":
				return yaml.NewEncoder(a.out).Encode(info)
			}
			if short {
				_, err := fmt.Fprintln(a.out, info.Short())
				return err
			}
			_, err := fmt.Fprintf(a.out, "assetpack %s\n%s\n", info.Short(), info)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json, yaml)")
	cmd.Flags().BoolVar(&short, "short", false, "show the version only")
	return cmd
}

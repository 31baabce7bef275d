package cmd

import (
	"fmt"
	"strings"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/finder"
	"github.com/conneroisu/assetpack/internal/resolver"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) checkCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report configuration problems without packing",
		Long: `Build the configuration and resolve every asset's inputs without packing,
then report warnings and missing inputs. Configuration errors make the command
fail; warnings only do with --strict.`,
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

			res := resolver.New(a.fs, settings.SearchRoots())
			problems := settings.Warnings()
			for _, w := range finder.New(engine, a.fs).Check() {
				problems = append(problems, w.String())
			}
			for _, name := range engine.Assets() {
				_, missing, err := engine.Derive(name)
				if err != nil {
					return err
				}
				for _, m := range missing {
					problems = append(problems, describeMissing(res, m))
				}
			}

			if len(problems) == 0 {
				fmt.Fprintf(a.out, "%s %d asset(s) configured\n", color.GreenString("ok"), len(engine.Assets()))
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(a.out, "%s %s\n", color.YellowString("warning"), p)
			}
			if strict {
				return fmt.Errorf("%d problem(s) found", len(problems))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any problem is reported")
	return cmd
}

// describeMissing formats err with the paths searched for its input.
func describeMissing(res *resolver.Resolver, err error) string {
	var pe *apperrors.PackError
	if !apperrors.As(err, &pe) || pe.Input == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v (searched %s)", err, strings.Join(res.Candidates(pe.Input), ", "))
}

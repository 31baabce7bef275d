package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/conneroisu/assetpack/internal/asset"
	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type listEntry struct {
	Name    string        `json:"name" yaml:"name"`
	Output  string        `json:"output" yaml:"output"`
	Inputs  []asset.Input `json:"inputs" yaml:"inputs"`
	Missing []string      `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func (a *app) listCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "list [asset...]",
		Aliases: []string{"l", "ls"},
		Short:   "List assets and the inputs they resolve to",
		Long: `List configured assets with their resolved inputs and processor chains.
Nothing is packed.

Examples:
  assetpack list                 # Table of every asset
  assetpack list app.js -f json  # One asset as JSON`,
		PreRunE: func(*cobra.Command, []string) error {
			return validateFormat(format, listFormats)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.settings(cmd.Context(), false)
			if err != nil {
				return err
			}
			engine, err := a.engine(settings)
			if err != nil {
				return err
			}
			entries, err := listEntries(engine, args)
			if err != nil {
				return err
			}
			return writeList(a.out, format, entries)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json, yaml)")
	return cmd
}

func listEntries(engine *pack.Engine, names []string) ([]listEntry, error) {
	if len(names) == 0 {
		names = engine.Assets()
	}

	entries := make([]listEntry, 0, len(names))
	for _, name := range names {
		a, missing, err := engine.Derive(name)
		if err != nil {
			return nil, err
		}
		entry := listEntry{Name: name, Output: engine.OutputPath(name), Inputs: a.Inputs}
		if entry.Inputs == nil {
			entry.Inputs = []asset.Input{}
		}
		for _, err := range missing {
			entry.Missing = append(entry.Missing, err.Error())
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func writeList(w io.Writer, format string, entries []listEntry) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(entries); err != nil {
			return err
		}
		return encoder.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ASSET\tINPUT\tPROCESSORS\tMISSING")
		for _, e := range entries {
			if len(e.Inputs) == 0 {
				fmt.Fprintf(tw, "%s\t-\t-\t%d\n", e.Name, len(e.Missing))
			}
			for i, in := range e.Inputs {
				name := e.Name
				missing := fmt.Sprint(len(e.Missing))
				if i > 0 {
					name, missing = "", ""
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, in.Name, strings.Join(in.Processors, ","), missing)
			}
		}
		return tw.Flush()
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/rdecheck/rdecheck/pkg/report"
	"github.com/rdecheck/rdecheck/pkg/rule"
	"github.com/rdecheck/rdecheck/pkg/yaml"
)

type ListArgs struct {
	*RootArgs
	ConfigArgs

	Output string
}

func NewListArgs(ra *RootArgs) *ListArgs {
	return &ListArgs{RootArgs: ra}
}

func (la *ListArgs) AddFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	la.ConfigArgs.AddFlags(flags)
	flags.StringVarP(&la.Output, "output", "o", string(report.FormatText),
		fmt.Sprintf("Output format, one of: %s", strings.Join(report.Formats(), ", ")))

	must(cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(report.Formats(), cobra.ShellCompDirectiveNoFileComp),
	))
}

// entry is one listed item.
type entry struct {
	ID          string `json:"id"          yaml:"id"`
	Description string `json:"description" yaml:"description"`
}

func NewListCmd(la *ListArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "list {rules|kinds}",
		Short:     "List the known cell rules or the file kinds of the rule table",
		ValidArgs: []string{"rules", "kinds"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(la.Output)
			if err != nil {
				return fmt.Errorf("invalid output: %w", err)
			}

			var entries []entry

			switch args[0] {
			case "rules":
				entries = listRules(rule.NewRegistry())
			case "kinds":
				entries, err = la.listKinds(cmd)
				if err != nil {
					return err
				}
			}

			return writeEntries(cmd.OutOrStdout(), format, entries, isTerminal(cmd.OutOrStdout()))
		},
		SilenceUsage: true,
	}

	la.AddFlags(cmd)

	return cmd
}

func listRules(reg *rule.Registry) []entry {
	list := reg.List()

	entries := make([]entry, 0, len(list))
	for _, d := range list {
		entries = append(entries, entry{ID: string(d.ID), Description: d.Description})
	}

	return entries
}

func (la *ListArgs) listKinds(cmd *cobra.Command) ([]entry, error) {
	cfg, err := la.LoadConfig(isTerminal(cmd.OutOrStdout()))
	if err != nil {
		return nil, err
	}

	path, err := la.RuleTablePath(cfg)
	if err != nil {
		return nil, err
	}

	sch, err := LoadSchema(rule.NewRegistry(), path)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(sch.FileKinds))
	for _, k := range sch.FileKinds {
		entries = append(entries, entry{ID: k.ID, Description: k.Description})
	}

	return entries, nil
}

func writeEntries(w io.Writer, format report.Format, entries []entry, color bool) error {
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(entries)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil

	case report.FormatYAML:
		enc := yaml.NewEncoder(w)

		err := enc.Encode(entries)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		err = enc.Close()
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return nil
	}

	width := 0
	for _, e := range entries {
		width = max(width, lipgloss.Width(e.ID))
	}

	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	idStyle := r.NewStyle().Bold(true).Width(width + 2)
	descStyle := r.NewStyle().Faint(true)

	for _, e := range entries {
		mustN(fmt.Fprintln(w, idStyle.Render(e.ID)+descStyle.Render(e.Description)))
	}

	return nil
}

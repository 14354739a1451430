package cmd

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceNet/pkg/library"
)

func newPartsCmd(a *app) *cobra.Command {
	var showPins bool
	c := &cobra.Command{
		Use:   "parts <library> [pattern]",
		Short: "List the parts of a library",
		Long: `Resolve a library along the search paths and list its parts. An optional
regular expression filters part names; with --pins the pins of each listed
part are shown as well.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pattern *regexp.Regexp
			if len(args) == 2 {
				re, err := regexp.Compile("(?i)" + args[1])
				if err != nil {
					return fmt.Errorf("invalid pattern: %w", err)
				}
				pattern = re
			}
			lib, err := a.registry().Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return listParts(cmd.OutOrStdout(), lib, pattern, showPins)
		},
	}
	c.Flags().BoolVarP(&showPins, "pins", "p", false, "show the pins of each part")
	return c
}

func listParts(out io.Writer, lib *library.Library, pattern *regexp.Regexp, showPins bool) error {
	fmt.Fprintf(out, "Library: %s (%d parts)\n", lib.Name, lib.Len())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPINS\tUNITS\tDESCRIPTION")
	for _, name := range lib.Names() {
		if pattern != nil && !pattern.MatchString(name) {
			continue
		}
		t, err := lib.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", t.Name, len(t.Pins), len(t.Units), t.Description)
		if !showPins {
			continue
		}
		for _, p := range t.Pins {
			fn := p.Func
			if fn == "" {
				fn = "unspecified"
			}
			line := fmt.Sprintf("  %s\t%s\t%s", p.Num, p.Name, strings.ToLower(fn))
			if len(p.Aliases) > 0 {
				line += "\t" + strings.Join(p.Aliases, ",")
			}
			fmt.Fprintln(tw, line)
		}
	}
	return tw.Flush()
}

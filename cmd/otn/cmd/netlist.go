package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/netlist"
)

func newNetlistCmd(a *app) *cobra.Command {
	var (
		vars   map[string]string
		format string
		output string
	)
	c := &cobra.Command{
		Use:   "netlist <design.hcl>",
		Short: "Export the netlist of a design",
		Long: `Build the design, merge net names and write the netlist as JSON or as a
KiCad s-expression netlist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if format == "" {
				format = a.cfg.Netlist.Format
			}
			f, err := netlist.ParseFormat(format)
			if err != nil {
				return err
			}

			c, err := a.build(ctx, a.registry(), args[0], vars)
			if err != nil {
				return err
			}
			err = c.Write(func() error {
				warnings, err := c.MergeNetNames()
				for _, w := range warnings {
					ctxlog.FromContext(ctx).Warn(w)
				}
				return err
			})
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer file.Close()
				out = file
			}
			return netlist.Build(c, netlist.WithSource(args[0])).Write(out, f)
		},
	}
	c.Flags().StringToStringVar(&vars, "var", nil, "set a design variable (name=value)")
	c.Flags().StringVarP(&format, "format", "f", "", "output format: json or kicad (default from netlist.format)")
	c.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return c
}

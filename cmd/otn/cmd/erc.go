package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/internal/watcher"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/erc"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/library"
)

// ErrCheckFailed is returned when a report breaches the fail-on policy.
var ErrCheckFailed = errors.New("erc check failed")

type ercOptions struct {
	vars    map[string]string
	watch   bool
	failOn  string
	jsonOut bool
}

func newERCCmd(a *app) *cobra.Command {
	opts := &ercOptions{}
	c := &cobra.Command{
		Use:   "erc <design.hcl>",
		Short: "Run the electrical rules check on a design",
		Long: `Build the design, merge net names and check every net and part against the
pin compatibility table. The command fails when the report breaches
erc.fail_on (error, warning or never).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.failOn != "" {
				a.cfg.ERC.FailOn = opts.failOn
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			if opts.watch {
				return a.watchERC(cmd, args[0], opts)
			}
			return a.runERC(cmd.Context(), cmd.OutOrStdout(), a.registry(), args[0], opts)
		},
	}
	c.Flags().StringToStringVar(&opts.vars, "var", nil, "set a design variable (name=value)")
	c.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-run whenever the design file changes")
	c.Flags().StringVar(&opts.failOn, "fail-on", "", "override erc.fail_on")
	c.Flags().BoolVar(&opts.jsonOut, "json", false, "print the report as JSON")
	return c
}

func (a *app) runERC(ctx context.Context, out io.Writer, reg *library.Registry, path string, opts *ercOptions) error {
	c, err := a.build(ctx, reg, path, opts.vars)
	if err != nil {
		return err
	}
	table, err := a.cfg.ERCTable()
	if err != nil {
		return err
	}
	report, err := erc.New(erc.WithTable(table)).Check(ctx, c)
	if err != nil {
		return err
	}

	if err := printReport(out, report, opts.jsonOut); err != nil {
		return err
	}
	if report.Failed(a.cfg.ERC.FailOn) {
		return fmt.Errorf("%w: %d errors, %d warnings", ErrCheckFailed, report.Errors, report.Warnings)
	}
	return nil
}

func printReport(out io.Writer, r *erc.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	for _, f := range r.Findings {
		if _, err := fmt.Fprintf(out, "%-7s [%s] %s\n", f.Level, f.Stage, f.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "%d errors, %d warnings\n", r.Errors, r.Warnings)
	return err
}

// watchERC runs the check once and again after every change to the design
// file, until the context is cancelled. Failures are reported, not returned.
func (a *app) watchERC(cmd *cobra.Command, path string, opts *ercOptions) error {
	ctx := cmd.Context()
	log := ctxlog.FromContext(ctx)
	out := cmd.OutOrStdout()
	reg := a.registry()

	w, err := watcher.New(watcher.Config{Files: []string{path}})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()
	changes, err := w.Start(ctx)
	if err != nil {
		return err
	}

	for {
		if err := a.runERC(ctx, out, reg, path, opts); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("check failed", "design", path, "error", err)
		}
		log.Info("watching for changes", "design", path)
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		}
	}
}

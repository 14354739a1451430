package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/internal/tracing"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/config"
)

var version = "dev"

// app is the state shared by every subcommand once the root has loaded the
// configuration.
type app struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
	tracer  *tracing.Provider
}

// NewRootCmd builds the otn command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "otn",
		Short: "OpenTraceNet - circuit connectivity and electrical rules checking",
		Long: `OpenTraceNet (otn) builds circuits from HCL design scripts and part
libraries (YAML, KiCad symbols, BSDL), checks them against electrical rules
and exports netlists.

Examples:
  otn erc board.hcl                        # Run the electrical rules check
  otn erc --watch board.hcl                # Re-check whenever the design changes
  otn netlist --format kicad board.hcl     # Write a KiCad netlist
  otn parts -L ./libs passives             # List the parts of a library`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./otn.yaml or ~/.config/otn/otn.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	flags.String("log-format", "text", "log format: text or json")
	flags.StringSliceP("lib", "L", nil, "library search path (repeatable)")
	flags.Bool("trace", false, "export OpenTelemetry spans (see trace.* config)")

	root.AddCommand(newERCCmd(a), newNetlistCmd(a), newPartsCmd(a), newVersionCmd())
	return root
}

// init loads the configuration and installs the logger in the command context.
func (a *app) init(cmd *cobra.Command) error {
	v := viper.New()
	if err := v.BindPFlag("log.format", cmd.Flags().Lookup("log-format")); err != nil {
		return err
	}
	if err := v.BindPFlag("trace.enabled", cmd.Flags().Lookup("trace")); err != nil {
		return err
	}
	cfg, err := config.Load(v, a.cfgFile)
	if err != nil {
		return err
	}
	if extra, _ := cmd.Flags().GetStringSlice("lib"); len(extra) > 0 {
		cfg.Library.Paths = append(extra, cfg.Library.Paths...)
	}
	a.cfg = cfg

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Format, level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	tp, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:      cfg.Trace.Enabled,
		Exporter:     cfg.Trace.Exporter,
		FilePath:     cfg.Trace.FilePath,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		SampleRate:   cfg.Trace.SampleRate,
		ServiceName:  tracing.DefaultServiceName,
	})
	if err != nil {
		return err
	}
	a.tracer = tp

	cmd.SetContext(ctxlog.WithLogger(ctx, a.logger))
	a.logger.Debug("configuration loaded", "file", v.ConfigFileUsed(),
		"library_paths", cfg.Library.Paths, "tracing", tp.Enabled())
	return nil
}

// shutdown flushes spans recorded during the command.
func (a *app) shutdown(ctx context.Context) error {
	if a.tracer == nil {
		return nil
	}
	tp := a.tracer
	a.tracer = nil
	if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("tracing: shutdown: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command.
// Spans are flushed even when the command fails.
func Execute(ctx context.Context) error {
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	if serr := a.shutdown(ctx); serr != nil && err == nil {
		err = serr
	}
	return err
}

// SetVersion sets the version string reported by --version and otn version.
func SetVersion(v string) {
	version = v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the otn version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "otn %s\n", version)
			return err
		},
	}
}

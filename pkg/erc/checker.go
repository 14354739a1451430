package erc

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

const tracerName = "github.com/OpenTraceLab/OpenTraceNet/pkg/erc"

// Checker runs electrical rules checks against circuits. A Checker holds no
// state between runs and may be reused.
type Checker struct {
	table *Table
}

// Option configures a Checker.
type Option func(*Checker)

// WithTable replaces the default compatibility table.
func WithTable(t *Table) Option {
	return func(ch *Checker) {
		if t != nil {
			ch.table = t
		}
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	ch := &Checker{table: DefaultTable()}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// Check merges net names, checks every group of merged nets once, then
// checks every part. Findings are logged through the context logger and
// returned in the report; only cancellation produces an error.
func (ch *Checker) Check(ctx context.Context, c *circuit.Circuit) (*Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "erc.check")
	defer span.End()

	r, err := ch.check(ctx, c)
	span.SetAttributes(
		attribute.Int("erc.errors", r.Errors),
		attribute.Int("erc.warnings", r.Warnings),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return r, err
}

func (ch *Checker) check(ctx context.Context, c *circuit.Circuit) (*Report, error) {
	log := ctxlog.FromContext(ctx)
	r := &Report{}

	warnings, err := c.MergeNetNames()
	for _, w := range warnings {
		r.add(Warning, StageNames, "", "%s", w)
	}
	if err != nil {
		r.add(Error, StageNames, "", "%v", err)
	}

	seen := make(map[*circuit.Net]bool)
	for _, n := range c.AllNets() {
		if seen[n] {
			continue
		}
		for _, m := range n.Nets() {
			seen[m] = true
		}
		if err := ctx.Err(); err != nil {
			return r, err
		}
		ch.checkNet(n, r)
	}

	for _, p := range c.Parts() {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		checkPart(p, r)
	}

	for _, f := range r.Findings {
		level := slog.LevelWarn
		if f.Level == Error {
			level = slog.LevelError
		}
		log.Log(ctx, level, f.Message, "stage", string(f.Stage))
	}
	log.Info("ERC finished", "warnings", r.Warnings, "errors", r.Errors)
	return r, nil
}

// CheckNet runs the net stage on the group containing n.
func (ch *Checker) CheckNet(n *circuit.Net) *Report {
	r := &Report{}
	ch.checkNet(n, r)
	return r
}

// CheckPart runs the part stage on p.
func (ch *Checker) CheckPart(p *circuit.Part) *Report {
	r := &Report{}
	checkPart(p, r)
	return r
}

func (ch *Checker) checkNet(n *circuit.Net, r *Report) {
	if n.IsNoConnect() || !groupDoERC(n) {
		return
	}
	name := n.Name()
	pins := n.Pins()

	switch len(pins) {
	case 0:
		r.add(Warning, StageNet, name, "No pins attached to net %s.", name)
	case 1:
		r.add(Warning, StageNet, name, "Only one pin (%s) attached to net %s.", pins[0].ERCDesc(), name)
	default:
		for i := range pins {
			for j := i + 1; j < len(pins); j++ {
				a, b := pins[i], pins[j]
				if !a.DoERC || !b.DoERC {
					continue
				}
				level, msg := ch.table.Lookup(a.Func, b.Func)
				if level == OK {
					continue
				}
				r.add(level, StageNet, name, "Pin conflict on net %s, %s <==> %s (%s)",
					name, a.ERCDesc(), b.ERCDesc(), msg)
			}
		}
	}

	drive := n.Drive()
	for _, p := range pins {
		drive = max(drive, p.Drive())
	}
	if drive <= circuit.DriveNone {
		r.add(Warning, StageNet, name, "No drivers for net %s", name)
	}
	for _, p := range pins {
		if p.Func.Info().MinRcv > drive {
			r.add(Warning, StageNet, name, "Insufficient drive current on net %s for pin %s", name, p.ERCDesc())
		}
	}
}

// groupDoERC reports whether every net merged with n takes part in the check.
func groupDoERC(n *circuit.Net) bool {
	for _, m := range n.Nets() {
		if !m.DoERC {
			return false
		}
	}
	return true
}

func checkPart(p *circuit.Part, r *Report) {
	if !p.DoERC {
		return
	}
	for _, pin := range p.Pins() {
		if !pin.DoERC {
			continue
		}
		subject := p.Ref() + "." + pin.Num
		switch {
		case !pin.IsConnected():
			if !pin.IsNoConnect() {
				r.add(Warning, StagePart, subject, "Unconnected pin: %s.", pin.ERCDesc())
			}
		case pin.IsNoConnect():
			r.add(Warning, StagePart, subject,
				"Incorrectly connected pin: %s should not be connected to a net (%s).",
				pin.ERCDesc(), pin.Net().Name())
		}
	}
}

package cmd

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/design"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/library"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/library/bsdl"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/library/kicad"
)

// registry returns a library registry over the configured search paths with
// every known loader.
func (a *app) registry() *library.Registry {
	return library.NewRegistry(
		library.WithPaths(a.cfg.Library.Paths...),
		library.WithCacheTTL(a.cfg.Library.CacheTTL),
		library.WithLoaders(kicad.Loader{}, bsdl.Loader{}),
	)
}

// build parses the design at path and builds it into a new circuit.
func (a *app) build(ctx context.Context, reg *library.Registry, path string, vars map[string]string) (*circuit.Circuit, error) {
	d, err := design.ParseFile(path)
	if err != nil {
		return nil, err
	}
	values := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		values[k] = cty.StringVal(v)
	}

	c := circuit.New(circuit.WithLogger(ctxlog.FromContext(ctx)))
	err = d.Build(ctx, c,
		design.WithParts(reg),
		design.WithVariables(values),
		design.WithMatchRegex(a.cfg.Parts.MatchRegex),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

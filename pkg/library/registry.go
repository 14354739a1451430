package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

const tracerName = "github.com/OpenTraceLab/OpenTraceNet/pkg/library"

// Registry resolves library names to files along its search paths and
// parses them with the loader registered for the file extension. Parsed
// libraries are cached until they expire or the file changes on disk.
type Registry struct {
	mu      sync.RWMutex
	paths   []string
	loaders map[string]Loader
	cache   *cache.Cache
}

type cached struct {
	lib     *Library
	modTime time.Time
	size    int64
}

// Option configures a Registry.
type Option func(*Registry)

// WithPaths sets the search paths, tried in order.
func WithPaths(paths ...string) Option {
	return func(r *Registry) { r.paths = append([]string(nil), paths...) }
}

// WithCacheTTL sets how long a parsed library stays cached. Zero keeps
// entries until the file changes.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl <= 0 {
			r.cache = cache.New(cache.NoExpiration, 0)
			return
		}
		r.cache = cache.New(ttl, 2*ttl)
	}
}

// WithLoaders registers loaders.
func WithLoaders(loaders ...Loader) Option {
	return func(r *Registry) {
		for _, l := range loaders {
			r.register(l)
		}
	}
}

// NewRegistry creates a registry that knows the YAML format.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		paths:   []string{"."},
		loaders: make(map[string]Loader),
		cache:   cache.New(10*time.Minute, 20*time.Minute),
	}
	r.register(YAMLLoader{})
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a loader. A later loader replaces an earlier one for the
// same extension.
func (r *Registry) Register(l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(l)
}

func (r *Registry) register(l Loader) {
	for _, ext := range l.Extensions() {
		r.loaders[strings.ToLower(ext)] = l
	}
}

// Extensions returns the registered file extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Paths returns the search paths.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.paths...)
}

// Resolve finds the file for a library name. A name with a directory part
// is used as given; otherwise each search path is tried. A name without an
// extension is tried with every registered extension.
func (r *Registry) Resolve(name string) (string, error) {
	candidates := []string{name}
	if filepath.Ext(name) == "" || r.loaderFor(name) == nil {
		for _, ext := range r.Extensions() {
			candidates = append(candidates, name+ext)
		}
	}

	var dirs []string
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		dirs = []string{""}
	} else {
		dirs = r.Paths()
	}

	for _, dir := range dirs {
		for _, c := range candidates {
			path := filepath.Join(dir, c)
			if info, err := os.Stat(path); err == nil && !info.IsDir() && r.loaderFor(path) != nil {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: library %s (searched %s)", ErrNotFound, name, strings.Join(dirs, ", "))
}

func (r *Registry) loaderFor(path string) Loader {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaders[strings.ToLower(filepath.Ext(path))]
}

// Open returns the parsed library for name, using the cache when the file
// is unchanged.
func (r *Registry) Open(ctx context.Context, name string) (*Library, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "library.open", trace.WithAttributes(attribute.String("library.name", name)))
	defer span.End()

	lib, err := r.open(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("library.path", lib.Path), attribute.Int("library.parts", lib.Len()))
	return lib, nil
}

func (r *Registry) open(ctx context.Context, name string) (*Library, error) {
	log := ctxlog.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}

	if v, ok := r.cache.Get(abs); ok {
		entry := v.(cached)
		if entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
			log.Debug("library cache hit", "path", abs)
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("library.cache_hit", true))
			return entry.lib, nil
		}
		log.Debug("library changed on disk", "path", abs)
	}

	loader := r.loaderFor(abs)
	if loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, filepath.Ext(abs))
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	defer f.Close()

	start := time.Now()
	lib, err := loader.Parse(f, filepath.Base(abs))
	if err != nil {
		return nil, err
	}
	lib.Path = abs
	log.Info("library loaded", "path", abs, "parts", lib.Len(), slog.Duration("elapsed", time.Since(start)))

	r.cache.SetDefault(abs, cached{lib: lib, modTime: info.ModTime(), size: info.Size()})
	return lib, nil
}

// Part opens a library and builds the named part from it.
func (r *Registry) Part(ctx context.Context, lib, name string) (*circuit.Part, error) {
	l, err := r.Open(ctx, lib)
	if err != nil {
		return nil, err
	}
	return l.Part(name)
}

// Flush drops every cached library.
func (r *Registry) Flush() { r.cache.Flush() }

// Cached reports how many libraries are cached.
func (r *Registry) Cached() int { return r.cache.ItemCount() }

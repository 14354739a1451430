// Package library loads part templates from files on disk. A Library is a
// named set of Templates; a Template turns into a circuit.Part ready to be
// instantiated. Loaders for each file format register with a Registry,
// which finds files along search paths and caches parsed libraries.
package library

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

var (
	// ErrNotFound is returned when a library file or part does not exist.
	ErrNotFound = errors.New("library: not found")

	// ErrNoLoader is returned for a file extension no loader handles.
	ErrNoLoader = errors.New("library: no loader for file type")

	// ErrDuplicate is returned when a library already holds a part name.
	ErrDuplicate = errors.New("library: duplicate part")
)

// Loader parses one library file format.
type Loader interface {
	// Extensions lists the file extensions handled, lower case with the dot.
	Extensions() []string
	// Parse reads a library. name identifies the source in errors.
	Parse(r io.Reader, name string) (*Library, error)
}

// PinDef describes one pin of a template.
type PinDef struct {
	Num     string   `yaml:"num"`
	Name    string   `yaml:"name"`
	Func    string   `yaml:"func"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// UnitDef groups pins, by number or name, into a labelled unit.
type UnitDef struct {
	Label string   `yaml:"label"`
	Pins  []string `yaml:"pins"`
}

// Template is a part definition as read from a library.
type Template struct {
	Name        string            `yaml:"name"`
	Aliases     []string          `yaml:"aliases,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Value       string            `yaml:"value,omitempty"`
	Footprint   string            `yaml:"footprint,omitempty"`
	Datasheet   string            `yaml:"datasheet,omitempty"`
	RefPrefix   string            `yaml:"ref_prefix,omitempty"`
	Fields      map[string]string `yaml:"fields,omitempty"`
	Pins        []PinDef          `yaml:"pins"`
	Units       []UnitDef         `yaml:"units,omitempty"`
}

// Part builds a fresh part from the template. Each call returns an
// independent part outside any circuit.
func (t *Template) Part() (*circuit.Part, error) {
	pins := make([]*circuit.Pin, 0, len(t.Pins))
	for _, d := range t.Pins {
		fn := circuit.Unspec
		if d.Func != "" {
			var err error
			if fn, err = circuit.ParsePinFunc(d.Func); err != nil {
				return nil, fmt.Errorf("library: part %s pin %s: %w", t.Name, d.Num, err)
			}
		}
		pin := circuit.NewPin(d.Num, d.Name, fn)
		pin.AddAlias(d.Aliases...)
		pins = append(pins, pin)
	}

	p, err := circuit.NewPart(t.Name, pins...)
	if err != nil {
		return nil, fmt.Errorf("library: part %s: %w", t.Name, err)
	}
	p.Description = t.Description
	p.Footprint = t.Footprint
	p.Datasheet = t.Datasheet
	p.Aliases = append([]string(nil), t.Aliases...)
	if t.RefPrefix != "" {
		p.RefPrefix = t.RefPrefix
	}
	if t.Value != "" {
		p.SetValue(t.Value)
	}
	for k, v := range t.Fields {
		p.Fields[k] = v
	}
	for _, u := range t.Units {
		ids := make([]any, len(u.Pins))
		for i, id := range u.Pins {
			ids[i] = id
		}
		if _, err := p.MakeUnit(u.Label, ids...); err != nil {
			return nil, fmt.Errorf("library: part %s unit %s: %w", t.Name, u.Label, err)
		}
	}
	return p, nil
}

// Library is a named collection of templates.
type Library struct {
	Name string
	Path string

	templates []*Template
	index     map[string]*Template
}

// New creates an empty library.
func New(name string) *Library {
	return &Library{Name: name, index: make(map[string]*Template)}
}

// Add appends templates. Names and aliases are matched without regard to
// case; a name already taken by another template is an error.
func (l *Library) Add(templates ...*Template) error {
	for _, t := range templates {
		keys := append([]string{t.Name}, t.Aliases...)
		for _, k := range keys {
			if other, ok := l.index[strings.ToLower(k)]; ok && other != t {
				return fmt.Errorf("%w: %s in %s", ErrDuplicate, k, l.Name)
			}
		}
		for _, k := range keys {
			l.index[strings.ToLower(k)] = t
		}
		l.templates = append(l.templates, t)
	}
	return nil
}

// Get finds a template by name or alias.
func (l *Library) Get(name string) (*Template, error) {
	if t, ok := l.index[strings.ToLower(name)]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: part %s in %s", ErrNotFound, name, l.Name)
}

// Part builds a part from the named template.
func (l *Library) Part(name string) (*circuit.Part, error) {
	t, err := l.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Part()
}

// Templates returns the templates in the order they were added.
func (l *Library) Templates() []*Template {
	return append([]*Template(nil), l.templates...)
}

// Names returns the sorted template names.
func (l *Library) Names() []string {
	names := make([]string, len(l.templates))
	for i, t := range l.templates {
		names[i] = t.Name
	}
	sort.Strings(names)
	return names
}

// Len returns the number of templates.
func (l *Library) Len() int { return len(l.templates) }

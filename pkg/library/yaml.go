package library

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlFile is the document layout of a YAML part library.
type yamlFile struct {
	Library string      `yaml:"library"`
	Parts   []*Template `yaml:"parts"`
}

// YAMLLoader reads part libraries written in YAML:
//
//	library: passives
//	parts:
//	  - name: R
//	    ref_prefix: R
//	    pins:
//	      - {num: "1", func: passive}
//	      - {num: "2", func: passive}
type YAMLLoader struct{}

func (YAMLLoader) Extensions() []string { return []string{".yaml", ".yml"} }

func (YAMLLoader) Parse(r io.Reader, name string) (*Library, error) {
	var doc yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return New(name), nil
		}
		return nil, fmt.Errorf("library: parse %s: %w", name, err)
	}

	libName := doc.Library
	if libName == "" {
		libName = name
	}
	lib := New(libName)
	for i, t := range doc.Parts {
		if t == nil || t.Name == "" {
			return nil, fmt.Errorf("library: parse %s: part %d has no name", name, i)
		}
		if err := lib.Add(t); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Marshal writes a library in the YAML layout read by YAMLLoader.
func Marshal(w io.Writer, lib *Library) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlFile{Library: lib.Name, Parts: lib.templates}); err != nil {
		return fmt.Errorf("library: encode %s: %w", lib.Name, err)
	}
	return enc.Close()
}

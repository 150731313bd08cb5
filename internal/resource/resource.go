// Package resource defines the content types managed by the console. Each
// content type is data: a REST path, an editable field schema, the field
// searched by the list filter and the columns shown in tables.
package resource

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/n1rna/cms-admin/internal/api"
)

//go:embed resources.yaml
var builtinYAML []byte

// FieldKind selects the editor used for a field
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindRichText FieldKind = "richtext"
	KindFile     FieldKind = "file"
)

// Field is one editable field of a content type
type Field struct {
	Name    string    `yaml:"name"`
	Label   string    `yaml:"label"`
	Kind    FieldKind `yaml:"kind"`
	Default string    `yaml:"default"`
}

// Sort is a default sort column and direction
type Sort struct {
	Key string `yaml:"key"`
	Dir string `yaml:"dir"`
}

// Definition describes one content type
type Definition struct {
	Key         string   `yaml:"key"`
	Title       string   `yaml:"title"`
	Singular    string   `yaml:"singular"`
	Path        string   `yaml:"path"`
	SearchField string   `yaml:"search_field"`
	DefaultSort *Sort    `yaml:"default_sort"`
	Columns     []string `yaml:"columns"`
	Fields      []Field  `yaml:"fields"`
}

// Field returns the editable field called name
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RichTextField returns the name of the rich-text field, or ""
func (d *Definition) RichTextField() string {
	for _, f := range d.Fields {
		if f.Kind == KindRichText {
			return f.Name
		}
	}
	return ""
}

// Defaults returns the initial form values for a new record
func (d *Definition) Defaults() map[string]string {
	values := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		values[f.Name] = f.Default
	}
	return values
}

// Project maps a record onto the editable fields; absent values become ""
func (d *Definition) Project(rec api.Record) map[string]string {
	values := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		values[f.Name] = rec.String(f.Name)
	}
	return values
}

// ExportColumns lists id, the table columns, the editable fields and the
// metadata fields, each once
func (d *Definition) ExportColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			cols = append(cols, name)
		}
	}

	add(api.FieldID)
	for _, c := range d.Columns {
		add(c)
	}
	for _, f := range d.Fields {
		add(f.Name)
	}
	for _, m := range []string{api.FieldCreatedAt, api.FieldUpdatedAt, api.FieldCreatedBy} {
		add(m)
	}
	return cols
}

var metadataFields = map[string]bool{
	api.FieldID:        true,
	api.FieldCreatedAt: true,
	api.FieldUpdatedAt: true,
	api.FieldCreatedBy: true,
}

// Validate checks a definition and fills defaults
func (d *Definition) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("resource key cannot be empty")
	}
	if strings.Trim(d.Path, "/") == "" {
		return fmt.Errorf("resource %s: path cannot be empty", d.Key)
	}
	d.Path = strings.Trim(d.Path, "/")
	if d.Title == "" {
		d.Title = d.Key
	}
	if d.Singular == "" {
		d.Singular = d.Title
	}
	if d.SearchField == "" {
		return fmt.Errorf("resource %s: search_field cannot be empty", d.Key)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("resource %s: no editable fields", d.Key)
	}

	names := make(map[string]bool)
	richText := 0
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("resource %s: field %d has no name", d.Key, i)
		}
		if metadataFields[f.Name] {
			return fmt.Errorf("resource %s: %s is assigned by the server and cannot be edited", d.Key, f.Name)
		}
		if names[f.Name] {
			return fmt.Errorf("resource %s: duplicate field %s", d.Key, f.Name)
		}
		names[f.Name] = true

		if f.Label == "" {
			f.Label = f.Name
		}
		switch f.Kind {
		case "":
			f.Kind = KindText
		case KindText, KindFile:
		case KindRichText:
			richText++
		default:
			return fmt.Errorf("resource %s: field %s has unknown kind %q", d.Key, f.Name, f.Kind)
		}
	}
	if richText > 1 {
		return fmt.Errorf("resource %s: at most one richtext field is supported", d.Key)
	}

	if len(d.Columns) == 0 {
		d.Columns = []string{d.SearchField}
	}
	for _, c := range d.Columns {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("resource %s: empty column name", d.Key)
		}
	}

	if d.DefaultSort != nil {
		if d.DefaultSort.Key == "" {
			return fmt.Errorf("resource %s: default_sort needs a key", d.Key)
		}
		switch d.DefaultSort.Dir {
		case "":
			d.DefaultSort.Dir = "asc"
		case "asc", "desc":
		default:
			return fmt.Errorf("resource %s: default_sort dir must be asc or desc", d.Key)
		}
	}
	return nil
}

// Registry is the ordered set of content types shown in the sidebar
type Registry struct {
	defs []*Definition
	byID map[string]*Definition
}

type registryFile struct {
	Resources []*Definition `yaml:"resources"`
}

// Parse builds a registry from YAML
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse resource definitions: %w", err)
	}
	if len(file.Resources) == 0 {
		return nil, fmt.Errorf("no resources defined")
	}

	reg := &Registry{byID: make(map[string]*Definition)}
	for _, d := range file.Resources {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := reg.byID[d.Key]; dup {
			return nil, fmt.Errorf("duplicate resource key %s", d.Key)
		}
		reg.byID[d.Key] = d
		reg.defs = append(reg.defs, d)
	}
	return reg, nil
}

// Builtin returns the built-in content types
func Builtin() *Registry {
	reg, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in resource definitions are invalid: %v", err))
	}
	return reg
}

// Load reads definitions from path, or returns the built-in set when path is empty
func Load(path string) (*Registry, error) {
	if path == "" {
		return Builtin(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource definitions: %w", err)
	}
	return Parse(data)
}

// All returns the definitions in declaration order
func (r *Registry) All() []*Definition {
	return r.defs
}

// Get looks a definition up by key or by REST path
func (r *Registry) Get(name string) (*Definition, error) {
	if d, ok := r.byID[name]; ok {
		return d, nil
	}
	for _, d := range r.defs {
		if d.Path == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unknown resource %q (available: %s)", name, strings.Join(r.Keys(), ", "))
}

// Keys returns the resource keys in declaration order
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.defs))
	for i, d := range r.defs {
		keys[i] = d.Key
	}
	return keys
}

package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/n1rna/cms-admin/internal/resource"
)

// assignment is one field=value pair from the command line
type assignment struct {
	Field string
	Value string
}

// assignmentsValue collects repeated field=value flags in order
type assignmentsValue struct {
	items *[]assignment
}

var _ pflag.Value = (*assignmentsValue)(nil)

func newAssignmentsValue(items *[]assignment) *assignmentsValue {
	return &assignmentsValue{items: items}
}

func (v *assignmentsValue) Set(s string) error {
	field, value, ok := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return fmt.Errorf("invalid assignment %q (use field=value)", s)
	}
	*v.items = append(*v.items, assignment{Field: field, Value: value})
	return nil
}

func (v *assignmentsValue) String() string {
	if v.items == nil {
		return ""
	}
	parts := make([]string, len(*v.items))
	for i, a := range *v.items {
		parts[i] = a.Field + "=" + a.Value
	}
	return strings.Join(parts, ",")
}

func (v *assignmentsValue) Type() string {
	return "field=value"
}

// fieldFlags are the flags shared by create and update
type fieldFlags struct {
	sets        []assignment
	files       []assignment
	contentFile string
}

func (f *fieldFlags) register(flags *pflag.FlagSet) {
	flags.Var(newAssignmentsValue(&f.sets), "set", "Set a field, e.g. --set title='Clerk Exam' (repeatable)")
	flags.Var(newAssignmentsValue(&f.files), "file", "Attach a file field by path; only the file name is stored (repeatable)")
	flags.StringVar(&f.contentFile, "content-file", "", "Read the rich-text field from a file")
}

// changed reports whether any field flag was given
func (f *fieldFlags) changed() bool {
	return len(f.sets) > 0 || len(f.files) > 0 || f.contentFile != ""
}

// apply feeds the flags into a form through change
func (f *fieldFlags) apply(def *resource.Definition, change func(field, value string) error) error {
	for _, a := range f.sets {
		if err := change(a.Field, a.Value); err != nil {
			return err
		}
	}
	for _, a := range f.files {
		if field, ok := def.Field(a.Field); ok && field.Kind != resource.KindFile {
			return fmt.Errorf("%s is not a file field", a.Field)
		}
		if a.Value != "" {
			if _, err := os.Stat(a.Value); err != nil {
				return fmt.Errorf("cannot attach %s: %w", a.Value, err)
			}
		}
		if err := change(a.Field, a.Value); err != nil {
			return err
		}
	}

	if f.contentFile != "" {
		richTextField := def.RichTextField()
		if richTextField == "" {
			return fmt.Errorf("%s has no rich-text field", def.Key)
		}
		data, err := os.ReadFile(f.contentFile)
		if err != nil {
			return fmt.Errorf("failed to read content file: %w", err)
		}
		if err := change(richTextField, string(data)); err != nil {
			return err
		}
	}
	return nil
}

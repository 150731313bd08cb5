package command

import (
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/output"
	"github.com/n1rna/cms-admin/internal/resource"
)

// EditCommand edits a record's fields in $EDITOR
type EditCommand struct{}

// NewEditCommand creates the edit command
func NewEditCommand(groupId string) *cobra.Command {
	ec := &EditCommand{}

	cmd := &cobra.Command{
		Use:   "edit [resource] [id]",
		Short: "Edit a record using your preferred editor",
		Long: `Edit a record using your preferred editor.

The editor is determined by the $EDITOR environment variable, falling back to 'vim' if not set.
The record's editable fields are presented as YAML; changes are submitted upon saving.

Examples:
  cms-admin edit jobs 42`,
		Args:    cobra.ExactArgs(2),
		RunE:    ec.Run,
		GroupID: groupId,
	}

	return cmd
}

// Run opens the record in the editor and submits the result
func (c *EditCommand) Run(cmd *cobra.Command, args []string) error {
	printer := output.NewPrinterWithWriter(cmd.OutOrStdout(), output.FormatTable, false)

	ctrl, err := RequireResource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	def := ctrl.Definition()

	rec, err := loadRecord(cmd, ctrl, api.RecordID(args[1]))
	if err != nil {
		return err
	}
	if err := ctrl.OpenEdit(rec); err != nil {
		return err
	}
	before := ctrl.Draft().Fields

	data, err := marshalFields(def, before)
	if err != nil {
		return err
	}

	editorCmd := os.Getenv("EDITOR")
	if editorCmd == "" {
		editorCmd = "vim" // fallback
	}

	tmpFile, err := createTempFile(fmt.Sprintf("%s-%s", def.Key, rec.ID()), data)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(tmpFile); err != nil {
			printer.Warning(fmt.Sprintf("Failed to remove temporary file: %v", err))
		}
	}()

	printer.Info(fmt.Sprintf("Editing %s %s using %s...", def.Singular, rec.ID(), editorCmd))
	if err := openEditor(editorCmd, tmpFile); err != nil {
		return err
	}

	edited, err := os.ReadFile(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to read edited file: %w", err)
	}
	after, err := unmarshalFields(edited)
	if err != nil {
		return err
	}

	changed := changedFields(before, after)
	if len(changed) == 0 {
		printer.Info("No changes")
		return nil
	}
	for _, name := range changed {
		if err := ctrl.ChangeField(name, after[name]); err != nil {
			return err
		}
	}

	if _, err := ctrl.Submit(cmd.Context()); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", def.Singular, rec.ID(), err)
	}

	printer.Success(fmt.Sprintf("%s %s updated (%s)", def.Singular, rec.ID(), strings.Join(changed, ", ")))
	return nil
}

// marshalFields renders fields as YAML in the content type's field order,
// multi-line values as literal blocks
func marshalFields(def *resource.Definition, fields map[string]string) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range def.Fields {
		value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fields[f.Name]}
		if strings.Contains(value.Value, "\n") {
			value.Style = yaml.LiteralStyle
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Name, HeadComment: f.Label},
			value,
		)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}
	return data, nil
}

func unmarshalFields(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = x
		case map[string]any, []any:
			return nil, fmt.Errorf("field %s must be a single value", k)
		default:
			fields[k] = fmt.Sprint(x)
		}
	}
	return fields, nil
}

// changedFields lists the fields of after that differ from before, sorted
func changedFields(before, after map[string]string) []string {
	var changed []string
	for name, value := range after {
		if old, ok := before[name]; !ok || old != value {
			changed = append(changed, name)
		}
	}
	slices.Sort(changed)
	return changed
}

// createTempFile creates a temporary file for editing
func createTempFile(prefix string, data []byte) (string, error) {
	file, err := os.CreateTemp(os.TempDir(), fmt.Sprintf("cms-admin-%s-*.yaml", prefix))
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return "", fmt.Errorf("failed to write to temporary file: %w", err)
	}

	return file.Name(), nil
}

// openEditor opens the specified editor with the given file
func openEditor(editor, tmpFile string) error {
	// Split editor command in case it has arguments
	editorParts := strings.Fields(editor)
	if len(editorParts) == 0 {
		return fmt.Errorf("editor command is empty")
	}

	cmdArgs := append(editorParts[1:], tmpFile)
	cmd := exec.Command(editorParts[0], cmdArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

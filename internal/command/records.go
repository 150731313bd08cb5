// Package command contains CLI command implementations.
package command

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/collection"
	"github.com/n1rna/cms-admin/internal/logger"
	"github.com/n1rna/cms-admin/internal/output"
	"github.com/n1rna/cms-admin/internal/screen"
)

// RecordsCommand implements the per-record subcommands
type RecordsCommand struct{}

// NewRecordsCommands creates list, show, create, update and delete
func NewRecordsCommands(groupId string) []*cobra.Command {
	rc := &RecordsCommand{}
	cmds := []*cobra.Command{
		rc.newListCommand(),
		rc.newShowCommand(),
		rc.newCreateCommand(),
		rc.newUpdateCommand(),
		rc.newDeleteCommand(),
	}
	for _, cmd := range cmds {
		cmd.GroupID = groupId
	}
	return cmds
}

func (c *RecordsCommand) newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [resource]",
		Short: "List the records of a content type",
		Long: `List the records of a content type.

Examples:
  # All job posts, newest first
  cms-admin list jobs

  # Search by title and sort
  cms-admin list results --query exam --sort title
  cms-admin list books --sort createdAt --desc --format json`,
		Args: cobra.ExactArgs(1),
		RunE: c.runList,
	}

	cmd.Flags().StringP("query", "q", "", "Case-insensitive search on the resource's search field")
	cmd.Flags().String("sort", "", "Field to sort by (default: the resource's default sort)")
	cmd.Flags().Bool("desc", false, "Sort descending")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")

	return cmd
}

func (c *RecordsCommand) newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [resource] [id]",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE:  c.runShow,
	}

	cmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")

	return cmd
}

func (c *RecordsCommand) newCreateCommand() *cobra.Command {
	var fields fieldFlags

	cmd := &cobra.Command{
		Use:   "create [resource]",
		Short: "Create a record",
		Long: `Create a record from field flags. Fields not given keep their defaults.

Examples:
  cms-admin create jobs --set title='Clerk Exam 2024' --set state=draft \
    --content-file description.html

  # File fields store only the file name
  cms-admin create books --set nameOfBook=Algebra --file pdf=./algebra.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCreate(cmd, args, &fields)
		},
	}

	fields.register(cmd.Flags())
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")
	cmd.Flags().Bool("quiet", false, "Suppress non-error output")

	return cmd
}

func (c *RecordsCommand) newUpdateCommand() *cobra.Command {
	var fields fieldFlags

	cmd := &cobra.Command{
		Use:   "update [resource] [id]",
		Short: "Update fields of a record",
		Long: `Update fields of a record. Fields not given keep their current values.

Examples:
  cms-admin update jobs 42 --set state=published
  cms-admin update blogs 7 --content-file post.html --file image=cover.png`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUpdate(cmd, args, &fields)
		},
	}

	fields.register(cmd.Flags())
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")
	cmd.Flags().Bool("quiet", false, "Suppress non-error output")

	return cmd
}

func (c *RecordsCommand) newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [resource] [id]...",
		Short: "Delete records",
		Long: `Delete one or more records. Deleting a record that no longer exists succeeds.`,
		Args:  cobra.MinimumNArgs(2),
		RunE:  c.runDelete,
	}

	cmd.Flags().Bool("quiet", false, "Suppress non-error output")

	return cmd
}

func (c *RecordsCommand) runList(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	sortKey, _ := cmd.Flags().GetString("sort")
	desc, _ := cmd.Flags().GetBool("desc")
	format, _ := cmd.Flags().GetString("format")

	printer, err := newPrinter(cmd, format, false)
	if err != nil {
		return err
	}

	ctrl, err := RequireResource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := ctrl.Load(cmd.Context()); err != nil {
		return err
	}

	store := ctrl.Store()
	store.SetQuery(query)
	if sortKey != "" {
		dir := collection.Asc
		if desc {
			dir = collection.Desc
		}
		store.SortBy(sortKey, dir)
	} else if desc {
		if st := store.Snapshot(); st.SortKey != "" {
			store.SortBy(st.SortKey, collection.Desc)
		}
	}

	return printer.PrintRecords(ctrl.Definition(), store.Filtered())
}

func (c *RecordsCommand) runShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	printer, err := newPrinter(cmd, format, false)
	if err != nil {
		return err
	}

	ctrl, err := RequireResource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	rec, err := loadRecord(cmd, ctrl, api.RecordID(args[1]))
	if err != nil {
		return err
	}
	return printer.PrintRecord(ctrl.Definition(), rec)
}

func (c *RecordsCommand) runCreate(cmd *cobra.Command, args []string, fields *fieldFlags) error {
	format, _ := cmd.Flags().GetString("format")
	quiet, _ := cmd.Flags().GetBool("quiet")
	printer, err := newPrinter(cmd, format, quiet)
	if err != nil {
		return err
	}

	ctrl, err := RequireResource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	def := ctrl.Definition()

	ctrl.OpenCreate()
	if err := fields.apply(def, ctrl.ChangeField); err != nil {
		return err
	}

	saved, err := ctrl.Submit(cmd.Context())
	if err != nil {
		return err
	}

	printer.Success(fmt.Sprintf("%s %s created", def.Singular, saved.ID()))
	if quiet {
		return nil
	}
	return printer.PrintRecord(def, saved)
}

func (c *RecordsCommand) runUpdate(cmd *cobra.Command, args []string, fields *fieldFlags) error {
	format, _ := cmd.Flags().GetString("format")
	quiet, _ := cmd.Flags().GetBool("quiet")
	printer, err := newPrinter(cmd, format, quiet)
	if err != nil {
		return err
	}
	if !fields.changed() {
		return fmt.Errorf("nothing to update, use --set, --file or --content-file")
	}

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
	if err := fields.apply(def, ctrl.ChangeField); err != nil {
		return err
	}

	saved, err := ctrl.Submit(cmd.Context())
	if err != nil {
		return err
	}

	printer.Success(fmt.Sprintf("%s %s updated", def.Singular, saved.ID()))
	if quiet {
		return nil
	}
	return printer.PrintRecord(def, saved)
}

func (c *RecordsCommand) runDelete(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	printer, err := newPrinter(cmd, string(output.FormatTable), quiet)
	if err != nil {
		return err
	}

	ctrl, err := RequireResource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	def := ctrl.Definition()

	var failed []error
	for _, id := range args[1:] {
		if err := ctrl.Delete(cmd.Context(), api.RecordID(id)); err != nil {
			logger.Error("delete %s %s: %v", def.Key, id, err)
			printer.Error(err.Error())
			failed = append(failed, err)
			continue
		}
		printer.Success(fmt.Sprintf("%s %s deleted", def.Singular, id))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d deletes failed: %w", len(failed), len(args)-1, errors.Join(failed...))
	}
	return nil
}

// loadRecord loads the collection and finds id in it
func loadRecord(cmd *cobra.Command, ctrl *screen.Controller, id api.RecordID) (api.Record, error) {
	if err := ctrl.Load(cmd.Context()); err != nil {
		return nil, err
	}
	rec, ok := ctrl.Store().Get(id)
	if !ok {
		return nil, &api.NotFoundError{Resource: ctrl.Definition().Key, ID: id}
	}
	return rec, nil
}

func newPrinter(cmd *cobra.Command, format string, quiet bool) (*output.Printer, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	// status lines would corrupt json and yaml output
	if f != output.FormatTable {
		quiet = true
	}
	return output.NewPrinterWithWriter(cmd.OutOrStdout(), f, quiet), nil
}

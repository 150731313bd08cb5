package command

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/n1rna/cms-admin/internal/export"
	"github.com/n1rna/cms-admin/internal/output"
)

type ExportCommand struct{}

func NewExportCommand(groupId string) *cobra.Command {
	ec := &ExportCommand{}

	cmd := &cobra.Command{
		Use:   "export [resource]",
		Short: "Export all records of a content type to a spreadsheet",
		Long: `Export all records of a content type, ignoring any search or sort.

The format is taken from --format, or from the output file's extension.
Without --output the file is written to the export directory.

Examples:
  cms-admin export jobs
  cms-admin export books -o books.csv
  cms-admin export results --format yaml -o -`,
		Args:    cobra.ExactArgs(1),
		RunE:    ec.Run,
		GroupID: groupId,
	}

	cmd.Flags().StringP("format", "f", "", "Export format (xlsx, csv, json, yaml); default xlsx")
	cmd.Flags().StringP("output", "o", "", "Output file path, - for stdout (default: export directory)")

	return cmd
}

func (c *ExportCommand) Run(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := resolveExportFormat(formatFlag, outputPath)
	if err != nil {
		return err
	}

	ctrl, err := RequireResource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	def := ctrl.Definition()

	if err := ctrl.Load(cmd.Context()); err != nil {
		return err
	}
	items := ctrl.Store().Items()

	if outputPath == "-" {
		return export.Write(cmd.OutOrStdout(), format, def, items)
	}

	if outputPath == "" {
		dir := "."
		if cfg := GetConfig(cmd.Context()); cfg != nil && cfg.ExportDir != "" {
			dir = cfg.ExportDir
		}
		outputPath = filepath.Join(dir, export.FileName(def, format, time.Now()))
	}

	if err := export.WriteFile(outputPath, format, def, items); err != nil {
		return err
	}

	printer := output.NewPrinterWithWriter(cmd.ErrOrStderr(), output.FormatTable, false)
	printer.Success(fmt.Sprintf("Exported %d %s to %s", len(items), def.Key, outputPath))
	return nil
}

// resolveExportFormat prefers the flag, then the file extension, then xlsx
func resolveExportFormat(flag, path string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if path != "" && path != "-" {
		return export.FormatForPath(path)
	}
	if path == "-" {
		return export.FormatCSV, nil
	}
	return export.FormatXLSX, nil
}

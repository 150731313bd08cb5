// Package export writes a collection's records to spreadsheet and data files
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/resource"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats
var Formats = []Format{FormatXLSX, FormatCSV, FormatJSON, FormatYAML}

// ParseFormat accepts a format name or a file extension
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// FormatForPath picks the format from a file name's extension
func FormatForPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("cannot tell export format of %s, no file extension", path)
	}
	return ParseFormat(ext)
}

// FileName returns the default export file name for def
func FileName(def *resource.Definition, format Format, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", def.Key, now.Format("20060102-150405"), format)
}

// Table lays items out as rows under def's export columns
func Table(def *resource.Definition, items []api.Record) (header []string, rows [][]string) {
	header = def.ExportColumns()
	rows = make([][]string, len(items))
	for i, rec := range items {
		row := make([]string, len(header))
		for j, col := range header {
			row[j] = rec.String(col)
		}
		rows[i] = row
	}
	return header, rows
}

// Write encodes items to w
func Write(w io.Writer, format Format, def *resource.Definition, items []api.Record) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, def, items)
	case FormatCSV:
		return writeCSV(w, def, items)
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(documents(def, items))
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(documents(def, items)); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteFile writes items to path, creating its directory
func WriteFile(path string, format Format, def *resource.Definition, items []api.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := Write(file, format, def, items); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to export %s: %w", def.Key, err)
	}
	return file.Close()
}

func writeCSV(w io.Writer, def *resource.Definition, items []api.Record) error {
	header, rows := Table(def, items)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// sheetName trims a title to what a worksheet name allows
func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, title)
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	if name == "" {
		name = "Sheet1"
	}
	return name
}

func writeXLSX(w io.Writer, def *resource.Definition, items []api.Record) error {
	header, rows := Table(def, items)

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(def.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if len(header) > 0 {
		last, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 20); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// documents reduces each record to its export columns. json.Number values
// become numbers again so YAML does not quote them.
func documents(def *resource.Definition, items []api.Record) []map[string]any {
	cols := def.ExportColumns()
	docs := make([]map[string]any, len(items))
	for i, rec := range items {
		doc := make(map[string]any, len(cols))
		for _, col := range cols {
			v, ok := rec[col]
			if !ok {
				continue
			}
			doc[col] = api.Plain(v)
		}
		docs[i] = doc
	}
	return docs
}

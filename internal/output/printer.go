// Package output provides formatted terminal output for collection records.
// This centralizes all printing and formatting logic away from command modules.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/resource"
)

// Format represents different output formats
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use table, json or yaml)", s)
	}
}

// maxCellWidth is the display width a table cell is cut to
const maxCellWidth = 48

// Printer handles formatted output to the terminal
type Printer struct {
	writer io.Writer
	format Format
	quiet  bool
}

// NewPrinter creates a new printer with the specified format
func NewPrinter(format Format, quiet bool) *Printer {
	return &Printer{
		writer: os.Stdout,
		format: format,
		quiet:  quiet,
	}
}

// NewPrinterWithWriter creates a new printer with a custom writer
func NewPrinterWithWriter(writer io.Writer, format Format, quiet bool) *Printer {
	return &Printer{
		writer: writer,
		format: format,
		quiet:  quiet,
	}
}

// Success prints a success message
func (p *Printer) Success(message string) {
	if !p.quiet {
		fmt.Fprintf(p.writer, "✓ %s\n", message)
	}
}

// Error prints an error message
func (p *Printer) Error(message string) {
	fmt.Fprintf(p.writer, "✗ %s\n", message)
}

// Warning prints a warning message
func (p *Printer) Warning(message string) {
	if !p.quiet {
		fmt.Fprintf(p.writer, "⚠ %s\n", message)
	}
}

// Info prints an informational message
func (p *Printer) Info(message string) {
	if !p.quiet {
		fmt.Fprintf(p.writer, "ℹ %s\n", message)
	}
}

// PrintRecords prints records under the content type's table columns
func (p *Printer) PrintRecords(def *resource.Definition, records []api.Record) error {
	switch p.format {
	case FormatTable:
		return p.printRecordsTable(def, records)
	case FormatJSON:
		return p.printJSON(records)
	case FormatYAML:
		plain := make([]api.Record, len(records))
		for i, rec := range records {
			plain[i] = rec.Plain()
		}
		return p.printYAML(plain)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// PrintRecord prints every field of one record
func (p *Printer) PrintRecord(def *resource.Definition, rec api.Record) error {
	switch p.format {
	case FormatTable:
		return p.printRecordTable(def, rec)
	case FormatJSON:
		return p.printJSON(rec)
	case FormatYAML:
		return p.printYAML(rec.Plain())
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// PrintResources prints the content types
func (p *Printer) PrintResources(defs []*resource.Definition) error {
	switch p.format {
	case FormatTable:
		w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "KEY\tTITLE\tPATH\tSEARCH\tFIELDS\n")
		fmt.Fprintf(w, "---\t-----\t----\t------\t------\n")
		for _, d := range defs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", d.Key, d.Title, d.Path, d.SearchField, len(d.Fields))
		}
		return w.Flush()
	case FormatJSON:
		return p.printJSON(defs)
	case FormatYAML:
		return p.printYAML(defs)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// Count is one line of a summary
type Count struct {
	Resource string `json:"resource" yaml:"resource"`
	Title    string `json:"title" yaml:"title"`
	Records  int    `json:"records" yaml:"records"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// PrintSummary prints record counts per content type
func (p *Printer) PrintSummary(counts []Count) error {
	switch p.format {
	case FormatTable:
		w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "RESOURCE\tRECORDS\n")
		fmt.Fprintf(w, "--------\t-------\n")
		for _, c := range counts {
			n := fmt.Sprint(c.Records)
			if c.Error != "" {
				n = "error: " + truncate(c.Error, maxCellWidth)
			}
			fmt.Fprintf(w, "%s\t%s\n", c.Title, n)
		}
		return w.Flush()
	case FormatJSON:
		return p.printJSON(counts)
	case FormatYAML:
		return p.printYAML(counts)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// printRecordsTable prints records in table format
func (p *Printer) printRecordsTable(def *resource.Definition, records []api.Record) error {
	if len(records) == 0 {
		fmt.Fprintf(p.writer, "No %s found\n", strings.ToLower(def.Title))
		return nil
	}

	columns := append([]string{api.FieldID}, def.Columns...)

	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	rules := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
		rules[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	fmt.Fprintln(w, strings.Join(rules, "\t"))

	for _, rec := range records {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = cell(rec.String(c))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	return w.Flush()
}

// printRecordTable prints one record as field/value lines
func (p *Printer) printRecordTable(def *resource.Definition, rec api.Record) error {
	fmt.Fprintf(p.writer, "%s %s\n", def.Singular, rec.ID())

	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	for _, f := range def.Fields {
		fmt.Fprintf(w, "  %s\t%s\n", f.Label, cell(rec.String(f.Name)))
	}
	for _, m := range []string{api.FieldCreatedAt, api.FieldUpdatedAt, api.FieldCreatedBy} {
		if v := rec.String(m); v != "" {
			fmt.Fprintf(w, "  %s\t%s\n", m, v)
		}
	}
	return w.Flush()
}

// cell flattens a value onto one line and cuts it to the table width
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return truncate(s, maxCellWidth)
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// printJSON prints any object as JSON
func (p *Printer) printJSON(obj interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(obj)
}

// printYAML prints any object as YAML
func (p *Printer) printYAML(obj interface{}) error {
	encoder := yaml.NewEncoder(p.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(obj); err != nil {
		return err
	}
	return encoder.Close()
}

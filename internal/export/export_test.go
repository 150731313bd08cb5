package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/resource"
)

func jobsDef(t *testing.T) *resource.Definition {
	t.Helper()
	def, err := resource.Builtin().Get("jobs")
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func sampleItems() []api.Record {
	return []api.Record{
		{"id": json.Number("1"), "title": "Clerk, Grade II", "state": "draft", "createdAt": "2024-01-01T00:00:00Z"},
		{"id": json.Number("2"), "title": "Typist", "description": "<p>line one\nline two</p>", "unknown": "dropped"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{"Excel", FormatXLSX, false},
		{".csv", FormatCSV, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}

	if f, err := FormatForPath("out/jobs.xlsx"); err != nil || f != FormatXLSX {
		t.Errorf("FormatForPath(xlsx) = %q, %v", f, err)
	}
	if _, err := FormatForPath("out/jobs"); err == nil {
		t.Error("FormatForPath without extension should fail")
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	if got := FileName(jobsDef(t), FormatCSV, now); got != "jobs-20240309-140507.csv" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestWriteCSV(t *testing.T) {
	def := jobsDef(t)
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, def, sampleItems()); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(records))
	}
	header := records[0]
	if header[0] != "id" || len(header) != len(def.ExportColumns()) {
		t.Errorf("header = %v", header)
	}

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}
	if records[1][col("title")] != "Clerk, Grade II" {
		t.Errorf("title = %q", records[1][col("title")])
	}
	if records[2][col("description")] != "<p>line one\nline two</p>" {
		t.Errorf("rich text should round-trip, got %q", records[2][col("description")])
	}
	if records[2][col("createdAt")] != "" {
		t.Errorf("missing values should be empty")
	}
	if strings.Contains(strings.Join(header, ","), "unknown") {
		t.Error("fields outside the export columns must not be written")
	}
}

func TestWriteJSONAndYAML(t *testing.T) {
	def := jobsDef(t)

	var jsonBuf bytes.Buffer
	if err := Write(&jsonBuf, FormatJSON, def, sampleItems()); err != nil {
		t.Fatal(err)
	}
	var docs []map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0]["id"] != float64(1) {
		t.Errorf("json docs = %v", docs)
	}
	if _, ok := docs[1]["unknown"]; ok {
		t.Error("unknown field exported")
	}

	var yamlBuf bytes.Buffer
	if err := Write(&yamlBuf, FormatYAML, def, sampleItems()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(yamlBuf.String(), "id: 1\n") {
		t.Errorf("ids should be plain YAML numbers:\n%s", yamlBuf.String())
	}
	var yamlDocs []map[string]any
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &yamlDocs); err != nil {
		t.Fatal(err)
	}
	if yamlDocs[0]["title"] != "Clerk, Grade II" {
		t.Errorf("yaml docs = %v", yamlDocs)
	}
}

func TestWriteXLSX(t *testing.T) {
	def := jobsDef(t)
	var buf bytes.Buffer
	if err := Write(&buf, FormatXLSX, def, sampleItems()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Jobs")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0][0] != "id" || rows[1][0] != "1" || rows[2][0] != "2" {
		t.Errorf("first column = %q %q %q", rows[0][0], rows[1][0], rows[2][0])
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jobs.csv")
	if err := WriteFile(path, FormatCSV, jobsDef(t), sampleItems()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "id,") {
		t.Errorf("file starts with %q", string(data[:10]))
	}

	bad := filepath.Join(t.TempDir(), "jobs.txt")
	if err := WriteFile(bad, Format("txt"), jobsDef(t), nil); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("failed export should not leave a file behind")
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Jobs", "Jobs"},
		{"Q&A: 2024/25", "Q&A- 2024-25"},
		{"", "Sheet1"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		if got := sheetName(tt.in); got != tt.want {
			t.Errorf("sheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

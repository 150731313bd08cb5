package collection

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/n1rna/cms-admin/internal/api"
)

func TestComputeSearch(t *testing.T) {
	items := []api.Record{
		rec(1, "Alpha Jobs"),
		rec(2, "Beta Results"),
		rec(3, "Gamma Notice"),
		{"id": json.Number("4")},
	}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty keeps all", "", []string{"1", "2", "3", "4"}},
		{"lower", "jobs", []string{"1"}},
		{"upper", "JOBS", []string{"1"}},
		{"mixed", "bEtA", []string{"2"}},
		{"inner substring", "ta re", []string{"2"}},
		{"no match", "delta", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Compute(items, Query{SearchField: "title", Text: tt.text}))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Compute(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestComputeSortTimestamps(t *testing.T) {
	t1 := "2024-01-01T10:00:00Z"
	t2 := "2024-03-05T08:30:00Z"
	t3 := "2024-12-31T23:59:59Z"
	items := []api.Record{
		rec(1, "b", "createdAt", t2),
		rec(2, "a", "createdAt", t1),
		rec(3, "c", "createdAt", t3),
	}

	asc := Compute(items, Query{SortKey: "createdAt", SortDir: Asc})
	if got := ids(asc); !slices.Equal(got, []string{"2", "1", "3"}) {
		t.Errorf("asc = %v", got)
	}

	desc := Compute(items, Query{SortKey: "createdAt", SortDir: Desc})
	if got := ids(desc); !slices.Equal(got, []string{"3", "1", "2"}) {
		t.Errorf("desc = %v", got)
	}

	if got := ids(items); !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Errorf("Compute modified its input: %v", got)
	}
}

func TestComputeSortMixedTimestampFormats(t *testing.T) {
	items := []api.Record{
		rec(1, "", "createdAt", "2024-05-01 09:00:00"),
		rec(2, "", "createdAt", "2024-04-30T23:00:00.123456"),
		rec(3, "", "createdAt", "2023-12-01"),
	}
	got := ids(Compute(items, Query{SortKey: "createdAt", SortDir: Asc}))
	if !slices.Equal(got, []string{"3", "2", "1"}) {
		t.Errorf("got %v", got)
	}
}

func TestComputeSortStrings(t *testing.T) {
	items := []api.Record{
		rec(1, "banana"),
		rec(2, "Apple"),
		rec(3, "apple"),
		rec(4, "banana"),
	}

	got := ids(Compute(items, Query{SortKey: "title", SortDir: Asc}))
	// byte order puts upper case first; equal titles keep list order
	if !slices.Equal(got, []string{"2", "3", "1", "4"}) {
		t.Errorf("asc = %v", got)
	}

	got = ids(Compute(items, Query{SortKey: "title", SortDir: Desc}))
	if !slices.Equal(got, []string{"1", "4", "3", "2"}) {
		t.Errorf("desc = %v", got)
	}
}

func TestComputeSortNumbers(t *testing.T) {
	items := []api.Record{
		{"id": json.Number("1"), "pages": json.Number("10")},
		{"id": json.Number("2"), "pages": json.Number("9")},
		{"id": json.Number("3"), "pages": json.Number("100")},
	}
	got := ids(Compute(items, Query{SortKey: "pages", SortDir: Asc}))
	if !slices.Equal(got, []string{"2", "1", "3"}) {
		t.Errorf("numeric sort = %v", got)
	}
}

func TestComputeSortMissingValues(t *testing.T) {
	items := []api.Record{
		rec(1, "b"),
		{"id": json.Number("2")},
		rec(3, "a"),
		rec(4, ""),
	}

	got := ids(Compute(items, Query{SortKey: "title", SortDir: Asc}))
	if !slices.Equal(got, []string{"2", "4", "3", "1"}) {
		t.Errorf("asc = %v", got)
	}

	got = ids(Compute(items, Query{SortKey: "title", SortDir: Desc}))
	if !slices.Equal(got, []string{"1", "3", "2", "4"}) {
		t.Errorf("desc = %v", got)
	}
}

func TestComputeSearchThenSort(t *testing.T) {
	items := []api.Record{
		rec(1, "Job C", "createdAt", "2024-03-01T00:00:00Z"),
		rec(2, "Result", "createdAt", "2024-01-01T00:00:00Z"),
		rec(3, "Job A", "createdAt", "2024-02-01T00:00:00Z"),
	}
	got := ids(Compute(items, Query{SearchField: "title", Text: "job", SortKey: "createdAt", SortDir: Desc}))
	if !slices.Equal(got, []string{"1", "3"}) {
		t.Errorf("got %v", got)
	}
}

func TestParseSortDir(t *testing.T) {
	tests := []struct {
		in      string
		want    SortDir
		wantErr bool
	}{
		{"", Asc, false},
		{"asc", Asc, false},
		{"DESC", Desc, false},
		{"down", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortDir(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortDir(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if Asc.Flip() != Desc || Desc.Flip() != Asc {
		t.Error("Flip should swap directions")
	}
}

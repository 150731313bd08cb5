package collection

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/n1rna/cms-admin/internal/api"
)

// SortDir is a sort direction
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// ParseSortDir accepts "asc", "desc" or "" (ascending)
func ParseSortDir(s string) (SortDir, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q (use asc or desc)", s)
	}
}

// Flip returns the opposite direction
func (d SortDir) Flip() SortDir {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Query is the search and sort applied to a collection
type Query struct {
	// SearchField is the field matched against Text
	SearchField string
	Text        string
	// SortKey is empty for natural order
	SortKey string
	SortDir SortDir
}

// Compute returns the records of items matching q, in q's order. Records
// whose search field contains q.Text, compared case-insensitively, are
// kept. Sorting is stable; items is never modified.
func Compute(items []api.Record, q Query) []api.Record {
	out := make([]api.Record, 0, len(items))

	fold := cases.Fold()
	needle := fold.String(q.Text)
	for _, rec := range items {
		if needle == "" || strings.Contains(fold.String(rec.String(q.SearchField)), needle) {
			out = append(out, rec)
		}
	}

	if q.SortKey != "" {
		sortRecords(out, q.SortKey, q.SortDir)
	}
	return out
}

type columnKind int

const (
	kindString columnKind = iota
	kindNumber
	kindTime
)

type sortKey struct {
	missing bool
	str     string
	num     float64
	at      time.Time
}

// classify picks one comparison for the whole column so the order stays
// total: numbers when every present value is a JSON number, timestamps when
// every present value parses as one, text otherwise
func classify(records []api.Record, field string) columnKind {
	allNumbers, allTimes, present := true, true, false
	for _, rec := range records {
		v, ok := rec[field]
		if !ok || v == nil || v == "" {
			continue
		}
		present = true
		switch x := v.(type) {
		case json.Number, float64, int, int64:
			allTimes = false
		case string:
			allNumbers = false
			if _, ok := api.ParseTime(x); !ok {
				allTimes = false
			}
		default:
			allNumbers, allTimes = false, false
		}
		if !allNumbers && !allTimes {
			break
		}
	}

	switch {
	case !present:
		return kindString
	case allNumbers:
		return kindNumber
	case allTimes:
		return kindTime
	default:
		return kindString
	}
}

func keyOf(rec api.Record, field string, kind columnKind) sortKey {
	v, ok := rec[field]
	if !ok || v == nil || v == "" {
		return sortKey{missing: true}
	}

	k := sortKey{str: rec.String(field)}
	switch kind {
	case kindNumber:
		switch x := v.(type) {
		case json.Number:
			k.num, _ = x.Float64()
		case float64:
			k.num = x
		case int:
			k.num = float64(x)
		case int64:
			k.num = float64(x)
		}
	case kindTime:
		k.at, _ = api.ParseTime(k.str)
	}
	return k
}

func compareKeys(a, b sortKey, kind columnKind) int {
	switch {
	case a.missing && b.missing:
		return 0
	case a.missing:
		return -1
	case b.missing:
		return 1
	}

	switch kind {
	case kindNumber:
		return cmp.Compare(a.num, b.num)
	case kindTime:
		return a.at.Compare(b.at)
	default:
		return strings.Compare(a.str, b.str)
	}
}

func sortRecords(records []api.Record, field string, dir SortDir) {
	kind := classify(records, field)

	type keyed struct {
		rec api.Record
		key sortKey
	}
	rows := make([]keyed, len(records))
	for i, rec := range records {
		rows[i] = keyed{rec: rec, key: keyOf(rec, field, kind)}
	}

	slices.SortStableFunc(rows, func(a, b keyed) int {
		if dir == Desc {
			return compareKeys(b.key, a.key, kind)
		}
		return compareKeys(a.key, b.key, kind)
	})

	for i := range rows {
		records[i] = rows[i].rec
	}
}

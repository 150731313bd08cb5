// Package api contains models for API communication
package api

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

// Metadata fields assigned by the backend
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldCreatedBy = "createdBy"
)

// RecordID is the string form of a server-assigned id. Numeric ids keep
// their JSON spelling, so 7 and "7" address the same record.
type RecordID string

// Fields is a create or update payload. It never carries an id.
type Fields map[string]any

// Record is one persisted entity of a content type
type Record map[string]any

// ID returns the record id, or "" when the record has none
func (r Record) ID() RecordID {
	return idOf(r[FieldID])
}

func idOf(v any) RecordID {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return RecordID(id)
	case json.Number:
		return RecordID(id.String())
	case float64:
		return RecordID(strconv.FormatFloat(id, 'f', -1, 64))
	default:
		return RecordID(fmt.Sprint(id))
	}
}

// String returns a field rendered as text; missing and null fields are ""
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy of r
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// Merge returns a copy of r with fields written over it. The id and
// creation timestamp of r are kept.
func (r Record) Merge(fields map[string]any) Record {
	merged := r.Clone()
	if merged == nil {
		merged = Record{}
	}
	for k, v := range fields {
		if k == FieldID || k == FieldCreatedAt {
			if _, ok := r[k]; ok {
				continue
			}
		}
		merged[k] = v
	}
	return merged
}

// Plain returns a copy of r with json.Number values turned back into
// int64 or float64, for encoders that would otherwise quote them
func (r Record) Plain() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = Plain(v)
	}
	return out
}

// Plain converts a json.Number to int64 or float64; other values pass through
func Plain(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// timeFormats lists the timestamp layouts the backend is known to emit
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a backend timestamp
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range timeFormats {
		if parsed, err := time.Parse(format, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

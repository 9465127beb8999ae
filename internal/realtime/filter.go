package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Change is one row-level change decoded from the row_changes channel.
// OldRecord is set for UPDATE and DELETE.
type Change struct {
	Table     string          `json:"table"`
	Op        string          `json:"op"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

// HasOld reports whether the change carries the row as it was before.
func (c Change) HasOld() bool {
	return len(c.OldRecord) > 0 && string(c.OldRecord) != "null"
}

// Field returns the record's column as a string, or "" if it is absent or null.
func (c Change) Field(column string) string {
	var m map[string]any
	if err := json.Unmarshal(c.Record, &m); err != nil {
		return ""
	}
	v, ok := m[column]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Filter selects changes on Table, optionally narrowed to rows where Column equals Value.
type Filter struct {
	Table  string
	Column string
	Value  string
}

// ParseFilter accepts the database-change syntax "column=eq.value". An empty expr matches every row.
func ParseFilter(table, expr string) (Filter, error) {
	if table == "" {
		return Filter{}, fmt.Errorf("filter: table is required")
	}
	f := Filter{Table: table}
	if expr == "" {
		return f, nil
	}
	col, rest, ok := strings.Cut(expr, "=")
	if !ok || col == "" {
		return Filter{}, fmt.Errorf("filter: expected column=eq.value, got %q", expr)
	}
	val, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return Filter{}, fmt.Errorf("filter: only eq is supported, got %q", rest)
	}
	f.Column = col
	f.Value = val
	return f, nil
}

func (f Filter) Match(c Change) bool {
	if f.Table != c.Table {
		return false
	}
	if f.Column == "" {
		return true
	}
	return c.Field(f.Column) == f.Value
}

func (f Filter) String() string {
	if f.Column == "" {
		return f.Table
	}
	return fmt.Sprintf("%s:%s=eq.%s", f.Table, f.Column, f.Value)
}

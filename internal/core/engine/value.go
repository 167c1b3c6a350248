// Package engine evaluates a canonical query against an in-memory row
// collection: filtering, search, sort, pagination and stance aggregation.
// It is pure apart from the optional search index and is also the reference
// the storage predicates are tested against
package engine

import (
	"strconv"
	"strings"
	"time"

	"docketlens/internal/core/query"
)

// Row is one comment-shaped record. The engine never touches fields beyond
// the paths named by the query, always through FieldValue
type Row map[string]any

// ValueKind discriminates the closed field value union
type ValueKind uint8

// Field value kinds
const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValueTime
	ValueStrings
)

// Value is the closed union a dotted-path lookup resolves to.
// Consumers switch on Kind instead of reflecting over raw row data
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
	Strs []string
}

// Null reports whether the value is absent
func (v Value) Null() bool { return v.Kind == ValueNull }

// FieldValue resolves a dotted path against a row.
// A missing intermediate segment yields a null value, never an error
func FieldValue(row Row, path string) Value {
	var cur any = map[string]any(row)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if r, ok := cur.(Row); ok {
				m = map[string]any(r)
			} else {
				return Value{}
			}
		}
		cur, ok = m[seg]
		if !ok {
			return Value{}
		}
	}
	return valueOf(cur)
}

func valueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return Value{Kind: ValueString, Str: t}
	case float64:
		return Value{Kind: ValueNumber, Num: t}
	case float32:
		return Value{Kind: ValueNumber, Num: float64(t)}
	case int:
		return Value{Kind: ValueNumber, Num: float64(t)}
	case int32:
		return Value{Kind: ValueNumber, Num: float64(t)}
	case int64:
		return Value{Kind: ValueNumber, Num: float64(t)}
	case bool:
		return Value{Kind: ValueBool, Bool: t}
	case time.Time:
		return Value{Kind: ValueTime, Time: t}
	case []string:
		return Value{Kind: ValueStrings, Strs: t}
	case []any:
		strs := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				strs = append(strs, s)
			}
		}
		if len(strs) == 0 {
			return Value{}
		}
		return Value{Kind: ValueStrings, Strs: strs}
	}
	// nested objects and anything unrecognized read as absent
	return Value{}
}

// String renders the value for substring matching and CSV cells.
// Null renders empty
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueTime:
		return v.Time.Format(time.RFC3339)
	case ValueStrings:
		return strings.Join(v.Strs, ",")
	}
	return ""
}

// Labels expands the value into its discrete labels.
// A delimited string field ("Merit,Due process") splits on commas
func (v Value) Labels() []string {
	switch v.Kind {
	case ValueStrings:
		out := make([]string, 0, len(v.Strs))
		for _, s := range v.Strs {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case ValueString:
		parts := strings.Split(v.Str, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case ValueNull:
		return nil
	}
	return []string{v.String()}
}

// Numeric reduces the value to a number for range filters and numeric sort.
// Strings parse as numbers or dates; unparseable values report false
func (v Value) Numeric() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Num, true
	case ValueTime:
		return float64(v.Time.Unix()), true
	case ValueString:
		return query.ParseNumeric(v.Str)
	}
	return 0, false
}

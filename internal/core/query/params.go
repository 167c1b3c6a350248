package query

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Recognized parameter keys. Anything else is ignored, not an error
const (
	ParamSort          = "sort"
	ParamSortDirection = "sortDirection"
	ParamSearch        = "search"
	ParamPage          = "page"
	ParamPageSize      = "pageSize"

	// FilterPrefix marks per-field filter parameters, e.g. filter_stance
	FilterPrefix = "filter_"
)

// ParseParams derives a normalized Query from address-bar style parameters.
// Each filter key is parsed independently; a malformed value degrades to
// ignoring that one field and never fails the whole parse
func ParseParams(params map[string]string) Query {
	q := New()

	if col, ok := params[ParamSort]; ok && strings.TrimSpace(col) != "" {
		dir := Asc
		if params[ParamSortDirection] == string(Desc) {
			dir = Desc
		}
		q.Sort = &SortSpec{Column: col, Direction: dir}
	}
	if s, ok := params[ParamSearch]; ok {
		q.Search = s
	}
	if s, ok := params[ParamPage]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			q.Page.Page = n
		}
	}
	if s, ok := params[ParamPageSize]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			q.Page.Size = n
		}
	}

	for key, raw := range params {
		if !strings.HasPrefix(key, FilterPrefix) {
			continue
		}
		field := strings.TrimPrefix(key, FilterPrefix)
		if f, ok := parseFilterValue(raw); ok {
			q.Filters[field] = f
		}
	}

	return q.Normalize()
}

// FromValues builds a query from address-bar values; for repeated keys the
// first value wins, matching how the browsing views mint addresses
func FromValues(vs url.Values) Query {
	raw := make(map[string]string, len(vs))
	for k, v := range vs {
		if len(v) > 0 {
			raw[k] = v[0]
		}
	}
	return ParseParams(raw)
}

// parseFilterValue attempts the value as JSON (arrays, objects, numbers)
// and falls back to a raw substring filter
func parseFilterValue(raw string) (Filter, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Text(raw), raw != ""
	}
	switch t := v.(type) {
	case []any:
		vals := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				vals = append(vals, s)
			}
		}
		return Discrete(vals...), len(vals) > 0
	case string:
		return Text(t), t != ""
	case float64:
		return Range(nil, nil, t), true
	case map[string]any:
		return parseFilterObject(t)
	}
	// null, bool and anything else carry no usable constraint
	return Filter{}, false
}

func parseFilterObject(obj map[string]any) (Filter, bool) {
	if vs, ok := obj["values"]; ok {
		f := Filter{Kind: KindDiscrete, Mode: ModeIncludes}
		if arr, ok := vs.([]any); ok {
			for _, e := range arr {
				if s, ok := e.(string); ok {
					f.Values = append(f.Values, s)
				}
			}
		}
		if m, ok := obj["mode"].(string); ok {
			f.Mode = Mode(m)
		}
		return f, len(f.Values) > 0
	}

	f := Filter{Kind: KindRange}
	if n, ok := asNumeric(obj["min"]); ok {
		f.Min = &n
	}
	if n, ok := asNumeric(obj["max"]); ok {
		f.Max = &n
	}
	if arr, ok := obj["exact"].([]any); ok {
		for _, e := range arr {
			if n, ok := asNumeric(e); ok {
				f.Exact = append(f.Exact, n)
			}
		}
	}
	return f, !f.Empty()
}

// asNumeric accepts JSON numbers, numeric strings and date strings.
// Dates become unix seconds so range bounds and row values compare on one axis
func asNumeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		return ParseNumeric(t)
	}
	return 0, false
}

// ParseNumeric parses a scalar string as a number or a date.
// Returns false for anything unparseable
func ParseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, true
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.Unix()), true
		}
	}
	return 0, false
}

// Params is the inverse of ParseParams: the canonical address-bar form.
// Fields with empty filters never appear; defaults (page 1, default size,
// no sort, no search) are elided so equal queries serialize identically
func (q Query) Params() map[string]string {
	q = q.Normalize()
	out := map[string]string{}

	if q.Sort != nil {
		out[ParamSort] = q.Sort.Column
		out[ParamSortDirection] = string(q.Sort.Direction)
	}
	if q.Search != "" {
		out[ParamSearch] = q.Search
	}
	if q.Page.Page != 1 {
		out[ParamPage] = strconv.Itoa(q.Page.Page)
	}
	if q.Page.Size != DefaultPageSize {
		out[ParamPageSize] = strconv.Itoa(q.Page.Size)
	}

	for field, f := range q.Filters {
		if s, ok := encodeFilterValue(f); ok {
			out[FilterPrefix+field] = s
		}
	}
	return out
}

func encodeFilterValue(f Filter) (string, bool) {
	if f.Empty() {
		return "", false
	}
	switch f.Kind {
	case KindDiscrete:
		if f.Mode == ModeIncludes {
			b, err := json.Marshal(f.Values)
			return string(b), err == nil
		}
		b, err := json.Marshal(map[string]any{"values": f.Values, "mode": string(f.Mode)})
		return string(b), err == nil
	case KindText:
		// raw text that itself parses as JSON must be wrapped so the
		// round trip does not reinterpret it
		if looksLikeJSON(f.Text) {
			b, err := json.Marshal(f.Text)
			return string(b), err == nil
		}
		return f.Text, true
	case KindRange:
		obj := map[string]any{}
		if f.Min != nil {
			obj["min"] = *f.Min
		}
		if f.Max != nil {
			obj["max"] = *f.Max
		}
		if len(f.Exact) > 0 {
			obj["exact"] = f.Exact
		}
		b, err := json.Marshal(obj)
		return string(b), err == nil
	}
	return "", false
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	switch s[0] {
	case '[', '{', '"':
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return s == "true" || s == "false" || s == "null"
}

// Encode renders the canonical parameters as a query string.
// url.Values sorts keys, so semantically equal queries encode identically
// regardless of construction order
func (q Query) Encode() string {
	vals := url.Values{}
	for k, v := range q.Params() {
		vals.Set(k, v)
	}
	return vals.Encode()
}

// CacheKey builds the deterministic cache key for one operation over this
// query. Op tags keep rows, stats and time-series entries separately
// invalidatable ("rows", "stats", "dedupedStats", "timeseries:<field>:<dedup>")
func (q Query) CacheKey(op string) string {
	return op + "?" + q.Encode()
}

// Equal reports semantic equality of two queries
func (q Query) Equal(other Query) bool {
	return q.Encode() == other.Encode()
}

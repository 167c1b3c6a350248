package service

import (
	"fmt"
	"strings"
)

// exportColumns fixes the CSV column order regardless of map iteration
var exportColumns = []string{
	"id",
	"title",
	"comment",
	"organization",
	"city",
	"state",
	"category",
	"stance",
	"themes",
	"posted_date",
	"received_date",
	"lookup_id",
	"attachment_count",
	"created_at",
}

// MarshalCSV renders rows under a fixed header. Every field is
// double-quoted with internal quotes doubled, so commas, quotes and
// newlines inside values never break the framing; missing and nil values
// render as empty strings
func MarshalCSV(columns []string, rows []map[string]any) []byte {
	var b strings.Builder
	writeRecord := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}

	writeRecord(columns)
	fields := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			fields[i] = csvField(row[col])
		}
		writeRecord(fields)
	}
	return []byte(b.String())
}

func csvField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

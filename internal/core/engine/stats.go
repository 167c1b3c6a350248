package engine

import (
	"sort"
	"time"
)

// Stance labels produced by upstream analysis
const (
	StanceFor     = "For"
	StanceAgainst = "Against"
)

func (c *StanceCounts) add(stance string) {
	c.Total++
	switch stance {
	case StanceFor:
		c.For++
	case StanceAgainst:
		c.Against++
	default:
		c.Neutral++
	}
}

// StanceStats counts stances over the whole filtered set
func StanceStats(rows []Row, stancePath string) StanceCounts {
	var out StanceCounts
	for _, row := range rows {
		out.add(FieldValue(row, stancePath).String())
	}
	return out
}

// DedupedStanceStats counts stances after collapsing duplicate submissions
// to one unit per lookup group. Collapsing happens after filtering, so the
// counts always describe the rows the user is looking at; the first row seen
// in a group is its representative. Rows without a group key count singly
func DedupedStanceStats(rows []Row, stancePath, lookupPath string) StanceCounts {
	var out StanceCounts
	seen := map[string]bool{}
	for _, row := range rows {
		key := FieldValue(row, lookupPath).String()
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out.add(FieldValue(row, stancePath).String())
	}
	return out
}

// TimeBucket is one day of stance counts
type TimeBucket struct {
	Date    string `json:"date"`
	For     int64  `json:"for"`
	Against int64  `json:"against"`
	Neutral int64  `json:"neutral"`
}

// BuildTimeSeries buckets the filtered set by day of dateField.
// includeDuplicates false collapses lookup groups first, same ordering rule
// as DedupedStanceStats. Rows whose date does not parse are skipped
func BuildTimeSeries(rows []Row, dateField, stancePath, lookupPath string, includeDuplicates bool) []TimeBucket {
	seen := map[string]bool{}
	byDay := map[string]*TimeBucket{}

	for _, row := range rows {
		if !includeDuplicates {
			if key := FieldValue(row, lookupPath).String(); key != "" {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
		}
		day, ok := dayOf(FieldValue(row, dateField))
		if !ok {
			continue
		}
		b := byDay[day]
		if b == nil {
			b = &TimeBucket{Date: day}
			byDay[day] = b
		}
		switch FieldValue(row, stancePath).String() {
		case StanceFor:
			b.For++
		case StanceAgainst:
			b.Against++
		default:
			b.Neutral++
		}
	}

	out := make([]TimeBucket, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func dayOf(v Value) (string, bool) {
	switch v.Kind {
	case ValueTime:
		return v.Time.Format("2006-01-02"), true
	case ValueString:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, v.Str); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}

package engine

import (
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

// Collection owns a row snapshot plus a lazily built search index.
// Replacing the rows bumps a revision; an index built against an older
// revision is discarded, never consulted, so stale-index results cannot
// leak past a data change
type Collection struct {
	mu   sync.RWMutex
	rows []Row
	rev  uint64
	idx  *index
}

type index struct {
	rev     uint64
	haystck []string
	rows    []Row
}

// NewCollection wraps a row snapshot
func NewCollection(rows []Row) *Collection {
	return &Collection{rows: rows, rev: 1}
}

// Replace swaps in a new row snapshot and invalidates the index
func (c *Collection) Replace(rows []Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
	c.rev++
	c.idx = nil
}

// Rows returns the current snapshot
func (c *Collection) Rows() []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rows
}

// Revision reports the snapshot revision, mostly for tests
func (c *Collection) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rev
}

// FuzzySearch ranks rows against term with prefix and fuzzy matching over
// the given paths. The index rebuilds on first use after any Replace.
// An empty term returns the full snapshot
func (c *Collection) FuzzySearch(term string, paths []string) []Row {
	term = strings.TrimSpace(term)
	if term == "" {
		return c.Rows()
	}

	c.mu.Lock()
	if c.idx == nil || c.idx.rev != c.rev {
		c.idx = buildIndex(c.rows, c.rev, paths)
	}
	idx := c.idx
	c.mu.Unlock()

	matches := fuzzy.Find(term, idx.haystck)
	out := make([]Row, 0, len(matches))
	for _, m := range matches {
		out = append(out, idx.rows[m.Index])
	}
	return out
}

func buildIndex(rows []Row, rev uint64, paths []string) *index {
	idx := &index{rev: rev, haystck: make([]string, 0, len(rows)), rows: rows}
	var sb strings.Builder
	for _, row := range rows {
		sb.Reset()
		for _, p := range paths {
			if v := FieldValue(row, p); !v.Null() {
				sb.WriteString(v.String())
				sb.WriteByte(' ')
			}
		}
		idx.haystck = append(idx.haystck, strings.ToLower(sb.String()))
	}
	return idx
}

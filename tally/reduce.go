package tally

import (
	"cmp"
	"slices"
)

// Entry is one identifier and its count.
type Entry struct {
	ID    string `json:"id"`
	Count uint64 `json:"count"`
}

// ReduceOptions selects the entries Top returns.
type ReduceOptions struct {
	// Limit is the number of entries to keep; zero or less keeps all.
	Limit int
	// Sort orders entries by descending count, ties by identifier. When
	// false, entries keep discovery order.
	Sort bool
	// Ignore excludes identifiers before selection. May be nil.
	Ignore *IgnoreSet
}

func byCount(a, b Entry) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}

	return cmp.Compare(a.ID, b.ID)
}

// Top returns the Limit entries of t with the largest counts. Equal counts
// are ranked by identifier so the selection is the same on every run.
func Top(t *Table, opts ReduceOptions) []Entry {
	type ranked struct {
		Entry
		pos int
	}

	entries := make([]ranked, 0, t.Len())
	for id, n := range t.All() {
		if opts.Ignore.Match(id) {
			continue
		}
		entries = append(entries, ranked{Entry: Entry{ID: id, Count: n}, pos: len(entries)})
	}

	trimmed := opts.Limit > 0 && opts.Limit < len(entries)
	if opts.Sort || trimmed {
		slices.SortFunc(entries, func(a, b ranked) int { return byCount(a.Entry, b.Entry) })
	}
	if trimmed {
		entries = entries[:opts.Limit]
		if !opts.Sort {
			slices.SortFunc(entries, func(a, b ranked) int { return cmp.Compare(a.pos, b.pos) })
		}
	}

	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Entry
	}

	return out
}

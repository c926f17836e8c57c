package tally

import (
	"strings"

	"golang.org/x/text/cases"
)

// IgnoreSet holds block identifiers excluded from results.
//
// Entries and identifiers are compared after Unicode case folding, with any
// "[...]" property suffix removed. A namespaced entry ("minecraft:air")
// matches that identifier only. A bare entry ("air") matches the name
// component of an identifier in any namespace, so it covers "x:air" and
// "y:air" but not "x:airship".
//
// A nil *IgnoreSet matches nothing. An IgnoreSet is not safe for concurrent
// use.
type IgnoreSet struct {
	fold      cases.Caser
	bare      map[string]struct{}
	qualified map[string]struct{}
}

// NewIgnoreSet creates a set holding ids.
func NewIgnoreSet(ids ...string) *IgnoreSet {
	s := &IgnoreSet{
		fold:      cases.Fold(),
		bare:      make(map[string]struct{}),
		qualified: make(map[string]struct{}),
	}
	for _, id := range ids {
		s.Add(id)
	}

	return s
}

func (s *IgnoreSet) normalize(id string) string {
	id = strings.TrimSpace(id)
	if name, _, ok := strings.Cut(id, "["); ok {
		id = name
	}

	return s.fold.String(id)
}

// Add adds id to the set. Blank ids are ignored.
func (s *IgnoreSet) Add(id string) {
	id = s.normalize(id)
	if id == "" {
		return
	}
	if strings.Contains(id, ":") {
		s.qualified[id] = struct{}{}
	} else {
		s.bare[id] = struct{}{}
	}
}

// Len returns the number of entries.
func (s *IgnoreSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.bare) + len(s.qualified)
}

// Match reports whether id is excluded by the set.
func (s *IgnoreSet) Match(id string) bool {
	if s.Len() == 0 {
		return false
	}

	id = s.normalize(id)
	if _, ok := s.qualified[id]; ok {
		return true
	}
	name := id
	if i := strings.LastIndexByte(id, ':'); i >= 0 {
		name = id[i+1:]
	}
	_, ok := s.bare[name]

	return ok
}

package ontology

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Term is an ontology class with its primary label and synonyms.
type Term struct {
	ID       string
	Label    string
	Synonyms []Synonym
	Obsolete bool
}

// Synonym is an alternative name with its scope (EXACT, RELATED, BROAD, NARROW).
type Synonym struct {
	Text  string
	Scope string
}

// MemoryIndex is an in-memory Searcher over a fixed term set, e.g. terms read
// from an RDF export.
type MemoryIndex struct {
	labels  map[string]string
	byLabel map[string][]string
	byAlias map[string][]string
	meta    []Metadata
}

// NewMemoryIndex indexes terms for exact, case-insensitive lookup. Obsolete
// terms are left out.
func NewMemoryIndex(meta Metadata, terms []Term) *MemoryIndex {
	idx := &MemoryIndex{
		labels:  make(map[string]string, len(terms)),
		byLabel: make(map[string][]string, len(terms)),
		byAlias: make(map[string][]string),
	}
	if meta.ID != "" {
		idx.meta = []Metadata{meta}
	}
	for _, t := range terms {
		if t.ID == "" || t.Obsolete {
			continue
		}
		if _, ok := idx.labels[t.ID]; !ok || idx.labels[t.ID] == "" {
			idx.labels[t.ID] = t.Label
		}
		if k := MatchKey(t.Label); k != "" {
			idx.byLabel[k] = appendUnique(idx.byLabel[k], t.ID)
		}
		for _, s := range t.Synonyms {
			if k := MatchKey(s.Text); k != "" {
				idx.byAlias[k] = appendUnique(idx.byAlias[k], t.ID)
			}
		}
	}
	return idx
}

// MatchKey normalizes text for case-insensitive equality: NFKC, case folded,
// surrounding whitespace removed.
func MatchKey(s string) string {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}

// BasicSearch implements Searcher.
func (m *MemoryIndex) BasicSearch(_ context.Context, text string, prop SearchProperty) ([]string, error) {
	if _, err := prop.Predicates(); err != nil {
		return nil, err
	}
	k := MatchKey(text)
	if k == "" {
		return nil, nil
	}
	var hits []string
	if prop == Label {
		hits = m.byLabel[k]
	} else {
		hits = m.byAlias[k]
	}
	out := append([]string(nil), hits...)
	sort.Strings(out)
	return out, nil
}

// Label implements Searcher.
func (m *MemoryIndex) Label(_ context.Context, curie string) (string, error) {
	return m.labels[curie], nil
}

// Metadata implements Searcher.
func (m *MemoryIndex) Metadata(context.Context) ([]Metadata, error) {
	return append([]Metadata(nil), m.meta...), nil
}

// Len returns the number of indexed terms.
func (m *MemoryIndex) Len() int {
	return len(m.labels)
}

func appendUnique(ids []string, id string) []string {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}

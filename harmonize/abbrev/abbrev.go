// Package abbrev keeps model-proposed expansions of condition abbreviations
// (e.g. "ASD") in an on-disk glossary so curators can review them later.
package abbrev

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/fileutils"
)

// Expansion is the structured answer requested from the model.
type Expansion struct {
	Conditions []string `json:"conditions"`
}

// DecodeExpansion parses a model response and drops blank and repeated conditions.
func DecodeExpansion(raw string) (Expansion, error) {
	var out Expansion
	if err := fileutils.DecodeModelJSON(raw, &out); err != nil {
		return Expansion{}, fmt.Errorf("DecodeExpansion: %w", err)
	}
	out.Conditions = dedupeStrings(out.Conditions)
	if len(out.Conditions) == 0 {
		return Expansion{}, errors.New("DecodeExpansion: no conditions in response")
	}
	return out, nil
}

// Glossary is the abbreviation glossary file.
type Glossary struct {
	Version int            `json:"version"`
	Entries []Entry        `json:"entries"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Entry is one abbreviation with every expansion seen so far.
type Entry struct {
	Abbreviation string   `json:"abbreviation"`
	Expansions   []string `json:"expansions"`
	Count        int      `json:"count"`
	Sources      []string `json:"sources,omitempty"`
	FirstSeenAt  *float64 `json:"first_seen_at,omitempty"`
	LastSeenAt   *float64 `json:"last_seen_at,omitempty"`
}

// LoadGlossary reads a glossary JSON file. If the file doesn't exist, it returns an empty glossary.
func LoadGlossary(path string) (Glossary, error) {
	if path == "" {
		return Glossary{}, errors.New("LoadGlossary: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Glossary{Version: 1, Entries: []Entry{}}, nil
		}
		return Glossary{}, fmt.Errorf("LoadGlossary: read file: %w", err)
	}
	var g Glossary
	if err := json.Unmarshal(b, &g); err != nil {
		return Glossary{}, fmt.Errorf("LoadGlossary: unmarshal: %w", err)
	}
	if g.Version == 0 {
		g.Version = 1
	}
	if g.Entries == nil {
		g.Entries = []Entry{}
	}
	return g, nil
}

// SaveGlossary writes the glossary JSON file atomically.
func SaveGlossary(path string, g Glossary) error {
	if path == "" {
		return errors.New("SaveGlossary: path is empty")
	}
	if err := fileutils.WriteJSONFileAtomic(path, g, true); err != nil {
		return fmt.Errorf("SaveGlossary: %w", err)
	}
	return nil
}

// Lookup returns the entry for abbr, matched case-sensitively after trimming
// since "ASD" and "Asd" may be different abbreviations.
func (g *Glossary) Lookup(abbr string) (Entry, bool) {
	abbr = strings.TrimSpace(abbr)
	for _, e := range g.Entries {
		if e.Abbreviation == abbr {
			return e, true
		}
	}
	return Entry{}, false
}

// Merge records expansions for abbr from source (e.g. "openai/gpt-5-mini"),
// bumps the entry's count and returns the expansions that were new.
func Merge(g *Glossary, abbr, source string, expansions []string, seenAt *float64) []string {
	if g == nil {
		return nil
	}
	abbr = strings.TrimSpace(abbr)
	if abbr == "" {
		return nil
	}
	if g.Version == 0 {
		g.Version = 1
	}

	idx := -1
	for i := range g.Entries {
		if g.Entries[i].Abbreviation == abbr {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.Entries = append(g.Entries, Entry{Abbreviation: abbr, FirstSeenAt: seenAt})
		idx = len(g.Entries) - 1
	}
	e := &g.Entries[idx]
	e.Count++
	if e.FirstSeenAt == nil {
		e.FirstSeenAt = seenAt
	}
	e.LastSeenAt = seenAt
	if source = strings.TrimSpace(source); source != "" {
		e.Sources = dedupeStrings(append(e.Sources, source))
	}

	known := make(map[string]struct{}, len(e.Expansions))
	for _, x := range e.Expansions {
		known[strings.ToLower(x)] = struct{}{}
	}
	var added []string
	for _, x := range dedupeStrings(expansions) {
		if _, ok := known[strings.ToLower(x)]; ok {
			continue
		}
		known[strings.ToLower(x)] = struct{}{}
		e.Expansions = append(e.Expansions, x)
		added = append(added, x)
	}

	sort.SliceStable(g.Entries, func(i, j int) bool {
		return strings.ToLower(g.Entries[i].Abbreviation) < strings.ToLower(g.Entries[j].Abbreviation)
	})
	return added
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

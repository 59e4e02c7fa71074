package abbrev

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestDecodeExpansion(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"conditions\": [\"Autism spectrum disorder\", \" atrial septal defect \", \"autism spectrum disorder\", \"\"]}\n```"
	got, err := DecodeExpansion(raw)
	if err != nil {
		t.Fatalf("DecodeExpansion: %v", err)
	}
	want := []string{"Autism spectrum disorder", "atrial septal defect"}
	if !reflect.DeepEqual(got.Conditions, want) {
		t.Fatalf("Conditions=%v, want %v", got.Conditions, want)
	}

	if _, err := DecodeExpansion(`{"conditions": []}`); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := DecodeExpansion("not json"); err == nil {
		t.Fatalf("expected error for non-JSON")
	}
}

func TestMerge_AddsAndCounts(t *testing.T) {
	t.Parallel()

	g := Glossary{Version: 1, Entries: []Entry{
		{Abbreviation: "MS", Expansions: []string{"multiple sclerosis"}, Count: 1},
	}}
	ts := 123.0

	added := Merge(&g, "ASD", "openai/gpt-5-mini", []string{"autism spectrum disorder", "atrial septal defect"}, &ts)
	if len(added) != 2 {
		t.Fatalf("added=%v, want 2", added)
	}
	added = Merge(&g, " ASD ", "anthropic/claude", []string{"Atrial Septal Defect", "acute stress disorder"}, &ts)
	if !reflect.DeepEqual(added, []string{"acute stress disorder"}) {
		t.Fatalf("added=%v", added)
	}

	if g.Entries[0].Abbreviation != "ASD" {
		t.Fatalf("entries not sorted: %v", g.Entries)
	}
	e, ok := g.Lookup("ASD")
	if !ok {
		t.Fatalf("missing ASD entry")
	}
	if e.Count != 2 || len(e.Expansions) != 3 || len(e.Sources) != 2 {
		t.Fatalf("entry=%+v", e)
	}
	if e.FirstSeenAt == nil || *e.FirstSeenAt != 123 {
		t.Fatalf("FirstSeenAt=%v", e.FirstSeenAt)
	}
	if _, ok := g.Lookup("asd"); ok {
		t.Fatalf("lookup should be case-sensitive")
	}
	if Merge(&g, "  ", "x", []string{"y"}, nil) != nil {
		t.Fatalf("blank abbreviation should be ignored")
	}
}

func TestGlossary_SaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "abbreviations.json")

	g, err := LoadGlossary(path)
	if err != nil {
		t.Fatalf("LoadGlossary(missing): %v", err)
	}
	if g.Version != 1 || len(g.Entries) != 0 {
		t.Fatalf("empty glossary=%+v", g)
	}

	Merge(&g, "T2D", "openai/gpt-5-mini", []string{"type 2 diabetes mellitus"}, nil)
	if err := SaveGlossary(path, g); err != nil {
		t.Fatalf("SaveGlossary: %v", err)
	}
	got, err := LoadGlossary(path)
	if err != nil {
		t.Fatalf("LoadGlossary: %v", err)
	}
	if !reflect.DeepEqual(got, g) {
		t.Fatalf("round trip=%+v, want %+v", got, g)
	}

	if _, err := LoadGlossary(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

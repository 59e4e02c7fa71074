package harmonize

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	data := "sheet_name: condition_codes\ntext_column: sourceText\ngroup_by: [UUID, study]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	r := l.Resolved()
	if r.SheetName != "condition_codes" || r.TextColumn != "sourceText" {
		t.Fatalf("Resolved=%+v", r)
	}
	if !reflect.DeepEqual(r.GroupBy, []string{"UUID", "study"}) {
		t.Fatalf("GroupBy=%v", r.GroupBy)
	}
	if !reflect.DeepEqual(r.Aggregate, DefaultAggregate) {
		t.Fatalf("Aggregate=%v", r.Aggregate)
	}
	if *r.TextColumnIndex != DefaultTextColumnIndex {
		t.Fatalf("TextColumnIndex=%d", *r.TextColumnIndex)
	}
}

func TestLoadLayout_Missing(t *testing.T) {
	t.Parallel()

	l, err := LoadLayout(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || l != nil {
		t.Fatalf("LoadLayout=%v err=%v, want nil nil", l, err)
	}
	r := l.Resolved()
	if r.SheetName != DefaultSheetName || !reflect.DeepEqual(r.GroupBy, DefaultGroupBy) {
		t.Fatalf("Resolved=%+v", r)
	}
}

func TestLoadLayout_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("group_by: {not: a list"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadLayout(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

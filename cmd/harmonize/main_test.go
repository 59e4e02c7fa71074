package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/ontology"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSplitIDs(t *testing.T) {
	t.Parallel()

	if got := splitIDs(" mondo, hp ,maxo"); !reflect.DeepEqual(got, []string{"mondo", "hp", "maxo"}) {
		t.Fatalf("splitIDs=%v", got)
	}
	if got := splitIDs("  "); got != nil {
		t.Fatalf("splitIDs(blank)=%v, want nil", got)
	}
}

func TestSearchConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := defaultSearchConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing ids")
	}
	cfg.OntologyIDs = []string{"mondo"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing data filename")
	}
	cfg.DataFilename = "in.xlsx"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got, want := cfg.InputPath(), filepath.Join("data", "input", "in.xlsx"); got != want {
		t.Fatalf("InputPath=%q, want %q", got, want)
	}

	cfg.OntologyIDs = []string{"mondo", ""}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty id")
	}
	cfg.OntologyIDs = []string{"mondo", "hp"}
	cfg.OntologyDB = "x.db"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for --ontology-db with two ids")
	}
	cfg.OntologyIDs = []string{"mondo"}
	cfg.OntologyRDF = "x.nt"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for --ontology-db with --ontology-rdf")
	}
}

func TestSearch_MissingArgsIsUsageError(t *testing.T) {
	t.Parallel()

	logFile := filepath.Join(t.TempDir(), "error.log")
	_, _, err := execute(t, "--log-file", logFile, "search", "--progress=false")
	var ue usageError
	if !errors.As(err, &ue) {
		t.Fatalf("err=%v, want usageError", err)
	}

	_, _, err = execute(t, "--log-file", logFile, "search", "a", "b", "c")
	if !errors.As(err, &ue) {
		t.Fatalf("err=%v, want usageError for extra args", err)
	}

	_, _, err = execute(t, "--log-file", logFile, "search", "--no-such-flag")
	if !errors.As(err, &ue) {
		t.Fatalf("err=%v, want usageError for unknown flag", err)
	}
}

func TestHello_LogsRecoveredError(t *testing.T) {
	t.Parallel()

	logFile := filepath.Join(t.TempDir(), "logs", "error.log")
	_, stderr, err := execute(t, "-v", "--log-file", logFile, "hello")
	if err != nil {
		t.Fatalf("hello: %v", err)
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"Hello from harmonize", "level=error", "integer divide by zero", "stack="} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("log missing %q:\n%s", want, data)
		}
	}
	if !strings.Contains(stderr, "divide by zero") {
		t.Fatalf("stderr=%q, want console copy", stderr)
	}
}

func TestHello_DefaultLogsWarningsAndAbove(t *testing.T) {
	t.Parallel()

	logFile := filepath.Join(t.TempDir(), "error.log")
	if _, _, err := execute(t, "--log-file", logFile, "hello"); err != nil {
		t.Fatalf("hello: %v", err)
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "Hello from harmonize") || !strings.Contains(string(data), "divide by zero") {
		t.Fatalf("default log:\n%s", data)
	}
}

func TestHello_QuietKeepsErrors(t *testing.T) {
	t.Parallel()

	logFile := filepath.Join(t.TempDir(), "error.log")
	if _, _, err := execute(t, "-q", "--log-file", logFile, "hello"); err != nil {
		t.Fatalf("hello: %v", err)
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "Hello from harmonize") {
		t.Fatalf("quiet log kept info entry:\n%s", data)
	}
	if !strings.Contains(string(data), "divide by zero") {
		t.Fatalf("quiet log dropped error entry:\n%s", data)
	}
}

func writeMondoDB(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "mondo.db")
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE statements (
		stanza TEXT, subject TEXT, predicate TEXT, object TEXT,
		value TEXT, datatype TEXT, language TEXT, graph TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	rows := [][4]string{
		{"obo:mondo.owl", "rdf:type", "owl:Ontology", ""},
		{"obo:mondo.owl", ontology.PredVersionIRI, "http://purl.obolibrary.org/obo/mondo/releases/2024-06-04/mondo.owl", ""},
		{"MONDO:0005015", ontology.PredLabel, "", "diabetes mellitus"},
		{"MONDO:0005148", ontology.PredLabel, "", "type 2 diabetes mellitus"},
		{"MONDO:0005148", ontology.PredExactSynonym, "", "T2D"},
	}
	for _, r := range rows {
		var obj, val interface{}
		if r[2] != "" {
			obj = r[2]
		}
		if r[3] != "" {
			val = r[3]
		}
		if _, err := db.Exec(`INSERT INTO statements (stanza, subject, predicate, object, value) VALUES (?, ?, ?, ?, ?)`,
			r[0], r[0], r[1], obj, val); err != nil {
			t.Fatalf("insert %v: %v", r, err)
		}
	}
	return path
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"study", "source_column", "conditionMeasureSourceText", "source_column_value"},
		{"s1", "dx", "Diabetes Mellitus", "1"},
		{"s1", "dx", "T2D", "2"},
		{"s2", "dx", "broken arm", "3"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := r
		if err := f.SetSheetRow(harmonize.DefaultSheetName, cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(dir, "condition_codes.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestSearch_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db := writeMondoDB(t, dir)
	writeInput(t, dir)
	outDir := filepath.Join(dir, "out")
	logFile := filepath.Join(dir, "error.log")

	stdout, _, err := execute(t,
		"-v", "--log-file", logFile,
		"search", "mondo", "condition_codes.xlsx",
		"--input-dir", dir,
		"--output-dir", outDir,
		"--ontology-db", db,
		"--progress=false",
	)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.HasPrefix(stdout, "rows=3 ontologies=mondo out=") {
		t.Fatalf("stdout=%q", stdout)
	}
	outPath := strings.TrimSpace(stdout[strings.Index(stdout, "out=")+len("out="):])
	if filepath.Dir(outPath) != outDir || !strings.HasPrefix(filepath.Base(outPath), "mondo-combined_ontology_annotations-") {
		t.Fatalf("out=%q", outPath)
	}

	tab, err := harmonize.LoadSheet(outPath, "")
	if err != nil {
		t.Fatalf("LoadSheet: %v", err)
	}
	if len(tab.Rows) != 3 {
		t.Fatalf("rows=%d, want 3", len(tab.Rows))
	}
	byText := make(map[string]harmonize.Row)
	for _, r := range tab.Rows {
		if r.ID() == "" {
			t.Fatalf("row without id: %v", r)
		}
		byText[r["conditionMeasureSourceText"]] = r
	}
	if r := byText["Diabetes Mellitus"]; r["mondoCode"] != "MONDO:0005015" || r["mondo_result_match_type"] != "MONDO_EXACT_LABEL" {
		t.Fatalf("label row=%v", r)
	}
	if r := byText["T2D"]; r["mondoLabel"] != "type 2 diabetes mellitus" || r["mondo_result_match_type"] != "MONDO_EXACT_ALIAS" {
		t.Fatalf("alias row=%v", r)
	}
	if r := byText["broken arm"]; r["mondoCode"] != "" {
		t.Fatalf("unmatched row=%v", r)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "Ontology metadata: obo:mondo.owl") {
		t.Fatalf("log missing ontology metadata:\n%s", data)
	}
}

func TestSearch_MissingInputFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, _, err := execute(t,
		"--log-file", filepath.Join(dir, "error.log"),
		"search", "-o", "mondo", "-d", "absent.xlsx",
		"--input-dir", dir, "--out", filepath.Join(dir, "o.xlsx"), "--progress=false",
	)
	if err == nil {
		t.Fatalf("expected error for missing input")
	}
	var ue usageError
	if errors.As(err, &ue) {
		t.Fatalf("err=%v, runtime failure reported as usage error", err)
	}
}

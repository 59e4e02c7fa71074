package harmonize

import "strings"

// RowIDColumn is the column that carries the generated per-row identifier.
const RowIDColumn = "UUID"

// MatchType records which search pass produced a match, e.g. "HPO_EXACT_LABEL".
type MatchType string

// Row is one spreadsheet row keyed by column header.
type Row map[string]string

// ID returns the row identifier.
func (r Row) ID() string {
	return r[RowIDColumn]
}

// Table is an in-memory sheet: ordered headers plus rows.
// Rows may omit columns; a missing key reads as the empty string.
type Table struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether name is one of the table headers.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EnsureColumn appends name to the headers if it is not present yet.
func (t *Table) EnsureColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Clone returns a deep copy so passes over one ontology never leak into another.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, 0, len(t.Rows)),
	}
	for _, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows = append(out.Rows, cp)
	}
	return out
}

// InputRow is the search-facing view of a loaded row: its identifier and free text.
type InputRow struct {
	RowID string
	Text  string
}

// InputRows projects the table onto the given free-text column.
func (t *Table) InputRows(textColumn string) []InputRow {
	out := make([]InputRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, InputRow{RowID: r.ID(), Text: r[textColumn]})
	}
	return out
}

// SearchResult is the grouped outcome of one search pass for one row.
// Multiple matched terms are joined into single ", "-delimited strings.
type SearchResult struct {
	RowID     string
	Curie     string
	Label     string
	MatchType MatchType
}

// Match is a single (curie, label) hit before grouping.
type Match struct {
	Curie string
	Label string
}

func joinMatches(matches []Match) (curies, labels string) {
	cs := make([]string, 0, len(matches))
	ls := make([]string, 0, len(matches))
	for _, m := range matches {
		cs = append(cs, m.Curie)
		ls = append(ls, m.Label)
	}
	return strings.Join(cs, ", "), strings.Join(ls, ", ")
}

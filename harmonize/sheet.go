package harmonize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/fileutils"
)

// DefaultSheetName is the sheet read from input workbooks and written to output workbooks.
const DefaultSheetName = "Sheet1"

// DefaultTextColumnIndex is the zero-based position of the free-text column in the
// expected input layout.
const DefaultTextColumnIndex = 2

// LoadSheet reads one sheet of an .xlsx workbook. The first row is the header;
// fully blank rows are skipped. Blank headers become "Unnamed: <i>" and repeated
// headers get a ".<n>" suffix so every column stays addressable.
func LoadSheet(path, sheetName string) (*Table, error) {
	if path == "" {
		return nil, errors.New("LoadSheet: path is empty")
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSheet: open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("LoadSheet: read sheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("LoadSheet: sheet %q is empty", sheetName)
	}

	t := &Table{Columns: headerNames(rows[0])}
	for _, cells := range rows[1:] {
		if isBlank(cells) {
			continue
		}
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(cells) {
				row[col] = cells[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func headerNames(cells []string) []string {
	out := make([]string, 0, len(cells))
	seen := make(map[string]int, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		out = append(out, name)
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// EnsureRowIDs adds the UUID column when missing and assigns a fresh random UUID
// to every row without one. It returns how many ids were generated.
func EnsureRowIDs(t *Table) int {
	t.EnsureColumn(RowIDColumn)
	n := 0
	for _, row := range t.Rows {
		if strings.TrimSpace(row[RowIDColumn]) != "" {
			continue
		}
		row[RowIDColumn] = uuid.NewString()
		n++
	}
	return n
}

// ResolveTextColumn picks the free-text column by header name, or by zero-based
// position when name is empty.
func ResolveTextColumn(t *Table, name string, index int) (string, error) {
	if name != "" {
		if !t.HasColumn(name) {
			return "", fmt.Errorf("ResolveTextColumn: column %q not found (have %s)", name, strings.Join(t.Columns, ", "))
		}
		return name, nil
	}
	if index < 0 || index >= len(t.Columns) {
		return "", fmt.Errorf("ResolveTextColumn: column index %d out of range (%d columns)", index, len(t.Columns))
	}
	return t.Columns[index], nil
}

// WriteSheet writes t as a single-sheet .xlsx workbook at path, header first.
// The file is written atomically.
func WriteSheet(path string, t *Table, sheetName string) error {
	if path == "" {
		return errors.New("WriteSheet: path is empty")
	}
	if t == nil {
		return errors.New("WriteSheet: table is nil")
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()
	if sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheetName); err != nil {
			return fmt.Errorf("WriteSheet: rename sheet: %w", err)
		}
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("WriteSheet: header: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("WriteSheet: row %d: %w", i, err)
		}
		vals := make([]interface{}, len(t.Columns))
		for j, c := range t.Columns {
			vals[j] = row[c]
		}
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return fmt.Errorf("WriteSheet: row %d: %w", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("WriteSheet: encode: %w", err)
	}
	if err := fileutils.WriteFileAtomicSameDir(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("WriteSheet: write %s: %w", path, err)
	}
	return nil
}

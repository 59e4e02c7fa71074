package harmonize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout describes where things live in the input workbook and how results are
// combined. It is read from an optional YAML file; unset fields fall back to
// the defaults of the standard condition-codes layout.
//
//	sheet_name: Sheet1
//	text_column: conditionMeasureSourceText
//	group_by: [UUID, study, source_column, source_column_value, conditionMeasureSourceText]
//	aggregate: [mondoLabel, mondoCode, mondo_result_match_type]
type Layout struct {
	SheetName       string   `yaml:"sheet_name"`
	TextColumn      string   `yaml:"text_column"`
	TextColumnIndex *int     `yaml:"text_column_index"`
	GroupBy         []string `yaml:"group_by"`
	Aggregate       []string `yaml:"aggregate"`
}

// LoadLayout reads a layout file. Returns nil (not an error) if the file does not exist.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return &l, nil
}

// Resolved returns a copy with defaults filled in. Safe to call on a nil receiver.
func (l *Layout) Resolved() Layout {
	var out Layout
	if l != nil {
		out = *l
	}
	if out.SheetName == "" {
		out.SheetName = DefaultSheetName
	}
	if out.TextColumnIndex == nil {
		idx := DefaultTextColumnIndex
		out.TextColumnIndex = &idx
	}
	if len(out.GroupBy) == 0 {
		out.GroupBy = append([]string(nil), DefaultGroupBy...)
	}
	if len(out.Aggregate) == 0 {
		out.Aggregate = append([]string(nil), DefaultAggregate...)
	}
	return out
}

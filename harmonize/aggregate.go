package harmonize

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultGroupBy are the business key columns final rows are grouped by.
var DefaultGroupBy = []string{RowIDColumn, "study", "source_column", "source_column_value", "conditionMeasureSourceText"}

// DefaultAggregate are the annotation columns joined per group when present.
var DefaultAggregate = []string{
	"hpoLabel", "hpoCode", "hpo_result_match_type",
	"mondoLabel", "mondoCode", "mondo_result_match_type",
	"maxoLabel", "maxoCode", "maxo_result_match_type",
	"otherLabel", "otherCode", "Trish Notes",
}

// Concat stacks tables row-wise. Columns are the union of all headers in
// first-seen order; rows are copied.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			out.EnsureColumn(c)
		}
		out.Rows = append(out.Rows, t.Clone().Rows...)
	}
	return out
}

// Aggregate groups rows by the groupBy columns and joins the non-empty values of
// each aggregate column with ", ". Aggregate columns absent from t are skipped;
// every groupBy column must exist. Groups keep first-seen order and values keep
// row order; repeated values are all written.
func Aggregate(t *Table, groupBy, aggColumns []string) (*Table, error) {
	if t == nil {
		return nil, fmt.Errorf("Aggregate: table is nil")
	}
	if len(groupBy) == 0 {
		return nil, fmt.Errorf("Aggregate: no group-by columns")
	}
	var missing []string
	for _, c := range groupBy {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Aggregate: missing group-by columns: %s", strings.Join(missing, ", "))
	}

	var agg []string
	for _, c := range aggColumns {
		if t.HasColumn(c) && !contains(groupBy, c) {
			agg = append(agg, c)
		}
	}

	type group struct {
		keys   Row
		values map[string][]string
	}
	var order []string
	groups := make(map[string]*group)

	for _, row := range t.Rows {
		parts := make([]string, len(groupBy))
		for i, c := range groupBy {
			parts[i] = row[c]
		}
		key := strings.Join(parts, "\x1f")

		g, ok := groups[key]
		if !ok {
			g = &group{keys: make(Row, len(groupBy)), values: make(map[string][]string, len(agg))}
			for _, c := range groupBy {
				g.keys[c] = row[c]
			}
			groups[key] = g
			order = append(order, key)
		}
		for _, c := range agg {
			v := row[c]
			if strings.TrimSpace(v) == "" {
				continue
			}
			g.values[c] = append(g.values[c], v)
		}
	}

	out := &Table{Columns: append(append([]string(nil), groupBy...), agg...)}
	for _, key := range order {
		g := groups[key]
		row := make(Row, len(out.Columns))
		for c, v := range g.keys {
			row[c] = v
		}
		for _, c := range agg {
			row[c] = strings.Join(g.values[c], ", ")
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// OutputPath builds the timestamped combined-annotations file name, e.g.
// data/output/mondo_hp-combined_ontology_annotations-20240604-101500.xlsx.
func OutputPath(dir string, ontologyIDs []string, now time.Time) string {
	name := fmt.Sprintf("%s-combined_ontology_annotations-%s.xlsx", strings.Join(ontologyIDs, "_"), now.Format("20060102-150405"))
	return filepath.Join(dir, name)
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

package harmonize

import (
	"strings"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/ontology"
)

// OntologyPrefix maps an ontology id to the prefix used in output column names.
// HPO columns are historically named "hpo..." although the OBO id is "hp".
func OntologyPrefix(ontologyID string) string {
	id := strings.ToLower(strings.TrimSpace(ontologyID))
	if id == "hp" {
		return "hpo"
	}
	return id
}

// OntologyColumns names the canonical output columns for one ontology.
type OntologyColumns struct {
	Code      string
	Label     string
	MatchType string
}

// ColumnsFor returns the output columns for ontologyID, e.g. hpoCode, hpoLabel,
// hpo_result_match_type.
func ColumnsFor(ontologyID string) OntologyColumns {
	p := OntologyPrefix(ontologyID)
	return OntologyColumns{
		Code:      p + "Code",
		Label:     p + "Label",
		MatchType: p + "_result_match_type",
	}
}

// MatchTypeFor returns the match type recorded for a hit on prop, e.g. MONDO_EXACT_LABEL.
func MatchTypeFor(ontologyID string, prop ontology.SearchProperty) MatchType {
	return MatchType(strings.ToUpper(OntologyPrefix(ontologyID)) + "_EXACT_" + string(prop))
}

// ApplyResults copies grouped search results into the canonical columns of t.
//
// With reset, every row's columns are rewritten and rows without a result end up
// empty. Without reset, only rows that have a result are touched, so an earlier
// pass is kept for everything else.
func ApplyResults(t *Table, cols OntologyColumns, results []SearchResult, reset bool) {
	t.EnsureColumn(cols.Label)
	t.EnsureColumn(cols.Code)
	t.EnsureColumn(cols.MatchType)

	byID := make(map[string]SearchResult, len(results))
	for _, r := range results {
		byID[r.RowID] = r
	}

	for _, row := range t.Rows {
		res, ok := byID[row.ID()]
		if !ok {
			if reset {
				row[cols.Label] = ""
				row[cols.Code] = ""
				row[cols.MatchType] = ""
			}
			continue
		}
		row[cols.Label] = res.Label
		row[cols.Code] = res.Curie
		row[cols.MatchType] = string(res.MatchType)
	}
}

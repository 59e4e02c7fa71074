package rdfqc

import (
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/formats/rdf"
)

//go:embed queries/*.rq
var queryFS embed.FS

func mustQuery(name string) string {
	b, err := queryFS.ReadFile("queries/" + name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Check is one named QC check. Query holds the SPARQL the check is equivalent
// to; it is shown in reports and not executed.
type Check struct {
	Name        string
	Description string
	Query       string
	run         func(*Ontology) Result
}

// Result is the tabular outcome of a check.
type Result struct {
	Check   string
	Columns []string
	Rows    [][]string
}

// Run executes c against o.
func (c Check) Run(o *Ontology) Result {
	r := c.run(o)
	r.Check = c.Name
	return r
}

var checks = []Check{
	{
		Name:        "label-collisions",
		Description: "Live entities sharing a label, exact synonym or editor preferred term (abbreviation synonyms excluded).",
		Query:       mustQuery("label_collisions.rq"),
		run:         func(o *Ontology) Result { return findingsResult(o.LabelCollisions()) },
	},
	{
		Name:        "duplicate-xrefs",
		Description: "MONDO classes that both claim the same external id through an equivalence xref.",
		Query:       mustQuery("duplicate_xrefs.rq"),
		run:         func(o *Ontology) Result { return findingsResult(o.DuplicateXrefs()) },
	},
	{
		Name:        "classes",
		Description: "MONDO classes whose label does not start with \"obsolete\".",
		Query:       mustQuery("classes.rq"),
		run: func(o *Ontology) Result {
			res := Result{Columns: []string{"class", "label"}}
			for _, c := range o.Classes() {
				res.Rows = append(res.Rows, []string{c.IRI, c.Label})
			}
			return res
		},
	},
	{
		Name:        "count-classes",
		Description: "Number of distinct MONDO classes listed by the classes check.",
		Query:       mustQuery("count_classes.rq"),
		run: func(o *Ontology) Result {
			return Result{Columns: []string{"count"}, Rows: [][]string{{strconv.Itoa(o.CountClasses())}}}
		},
	},
}

// Checks lists the available checks in report order.
func Checks() []Check {
	return append([]Check(nil), checks...)
}

// Lookup finds a check by name.
func Lookup(name string) (Check, error) {
	for _, c := range checks {
		if c.Name == name {
			return c, nil
		}
	}
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name)
	}
	return Check{}, fmt.Errorf("unknown check %q (want one of %s)", name, strings.Join(names, ", "))
}

// Finding is one row of a collision-style check.
type Finding struct {
	Entity   string
	Property string
	Value    string
}

func findingsResult(fs []Finding) Result {
	res := Result{Columns: []string{"entity", "property", "value"}}
	for _, f := range fs {
		res.Rows = append(res.Rows, []string{f.Entity, f.Property, f.Value})
	}
	return res
}

type hit struct {
	entity   rdf.Term
	property string
}

// LabelCollisions reports pairs of distinct, non-deprecated, non-blank entities
// that share a value across rdfs:label, exact synonyms and IAO:0000118. Values
// annotated with the mondo#ABBREVIATION synonym type are ignored. Values are
// compared by lexical form. Results are ordered by upper-cased value, descending.
func (o *Ontology) LabelCollisions() []Finding {
	abbrev := make(map[string]bool)
	for _, ax := range o.axioms {
		for _, t := range ax.synonymTypes {
			if t == mondoAbbreviation {
				abbrev[axiomKey(ax.source.Value, ax.property, ax.target)] = true
			}
		}
	}

	byValue := make(map[string][]hit)
	for _, pred := range []string{rdfsLabel, oioExactSynonym, iaoEditorLabel} {
		for _, s := range o.statementsWith(pred) {
			if _, kind := iriText(s.Subject); kind == rdf.Blank {
				continue
			}
			value := lexical(s.Object)
			if abbrev[axiomKey(s.Subject.Value, pred, value)] || o.isDeprecated(s.Subject) {
				continue
			}
			byValue[value] = append(byValue[value], hit{entity: s.Subject, property: pred})
		}
	}

	seen := make(map[Finding]bool)
	var out []Finding
	for value, hits := range byValue {
		for _, h1 := range hits {
			for _, h2 := range hits {
				if h1.entity.Value == h2.entity.Value {
					continue
				}
				f := Finding{
					Entity:   CompactIRI(lexical(h1.entity)) + "-" + CompactIRI(lexical(h2.entity)),
					Property: CompactIRI(h1.property) + "-" + CompactIRI(h2.property),
					Value:    value,
				}
				if !seen[f] {
					seen[f] = true
					out = append(out, f)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		vi, vj := strings.ToUpper(out[i].Value), strings.ToUpper(out[j].Value)
		if vi != vj {
			return vi > vj
		}
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		return out[i].Property < out[j].Property
	})
	return out
}

var equivalenceSources = map[string]bool{
	"MONDO:equivalentTo":               true,
	"MONDO:obsoleteEquivalent":         true,
	"MONDO:equivalentObsolete":         true,
	"MONDO:obsoleteEquivalentObsolete": true,
}

// DuplicateXrefs reports MONDO classes sharing an oboInOwl:hasDbXref where the
// xref axiom on both sides is sourced from a MONDO equivalence annotation.
// Results are ordered by entity.
func (o *Ontology) DuplicateXrefs() []Finding {
	asserted := make(map[string]bool)
	for _, s := range o.statementsWith(oioDbXref) {
		asserted[axiomKey(s.Subject.Value, oioDbXref, lexical(s.Object))] = true
	}

	byXref := make(map[string][]string)
	for _, ax := range o.axioms {
		if ax.property != oioDbXref {
			continue
		}
		iri, kind := iriText(ax.source)
		if kind != rdf.IRI || !strings.HasPrefix(iri, mondoClassPrefix) {
			continue
		}
		if !asserted[axiomKey(ax.source.Value, oioDbXref, ax.target)] {
			continue
		}
		equiv := false
		for _, src := range ax.sources {
			if equivalenceSources[src] {
				equiv = true
				break
			}
		}
		if !equiv {
			continue
		}
		id := CompactIRI(iri)
		if !containsString(byXref[ax.target], id) {
			byXref[ax.target] = append(byXref[ax.target], id)
		}
	}

	var out []Finding
	for xref, ids := range byXref {
		for _, e1 := range ids {
			for _, e2 := range ids {
				if e1 != e2 {
					out = append(out, Finding{Entity: e1, Property: xref, Value: e2})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		if out[i].Property != out[j].Property {
			return out[i].Property < out[j].Property
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Class is a MONDO class with one of its labels.
type Class struct {
	IRI   string
	ID    string
	Label string
}

// Classes lists (class, label) pairs for MONDO owl:Class entities whose label
// does not start with "obsolete". Classes without a label are left out.
func (o *Ontology) Classes() []Class {
	seen := make(map[Class]bool)
	var out []Class
	for _, s := range o.statementsWith(rdfType) {
		if s.Object.Value != owlClass {
			continue
		}
		iri, kind := iriText(s.Subject)
		if kind != rdf.IRI || !strings.HasPrefix(iri, mondoClassPrefix) {
			continue
		}
		for _, l := range o.labels(s.Subject) {
			if strings.HasPrefix(l, "obsolete") {
				continue
			}
			c := Class{IRI: iri, ID: CompactIRI(iri), Label: l}
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// CountClasses returns the number of distinct classes Classes lists.
func (o *Ontology) CountClasses() int {
	ids := make(map[string]bool)
	for _, c := range o.Classes() {
		ids[c.IRI] = true
	}
	return len(ids)
}

func axiomKey(subject, property, target string) string {
	return subject + "\x1f" + property + "\x1f" + target
}

func containsString(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

// Package rdfqc runs quality-control checks over an ontology exported as
// N-Triples: shared labels and synonyms, duplicated equivalence xrefs, and
// the live class list.
package rdfqc

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/ontology"
)

// Vocabulary used by the checks, in N-Triples IRI form.
const (
	oboNS      = "http://purl.obolibrary.org/obo/"
	oboInOwlNS = "http://www.geneontology.org/formats/oboInOwl#"
	owlNS      = "http://www.w3.org/2002/07/owl#"
	rdfNS      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	rdfsNS     = "http://www.w3.org/2000/01/rdf-schema#"

	rdfType           = "<" + rdfNS + "type>"
	rdfsLabel         = "<" + rdfsNS + "label>"
	owlClass          = "<" + owlNS + "Class>"
	owlOntology       = "<" + owlNS + "Ontology>"
	owlVersionIRI     = "<" + owlNS + "versionIRI>"
	owlDeprecated     = "<" + owlNS + "deprecated>"
	owlAnnotatedSrc   = "<" + owlNS + "annotatedSource>"
	owlAnnotatedProp  = "<" + owlNS + "annotatedProperty>"
	owlAnnotatedTgt   = "<" + owlNS + "annotatedTarget>"
	oioExactSynonym   = "<" + oboInOwlNS + "hasExactSynonym>"
	oioRelatedSynonym = "<" + oboInOwlNS + "hasRelatedSynonym>"
	oioBroadSynonym   = "<" + oboInOwlNS + "hasBroadSynonym>"
	oioNarrowSynonym  = "<" + oboInOwlNS + "hasNarrowSynonym>"
	oioSynonymType    = "<" + oboInOwlNS + "hasSynonymType>"
	oioDbXref         = "<" + oboInOwlNS + "hasDbXref>"
	oioSource         = "<" + oboInOwlNS + "source>"
	iaoEditorLabel    = "<" + oboNS + "IAO_0000118>"
	mondoAbbreviation = "<" + oboNS + "mondo#ABBREVIATION>"

	mondoClassPrefix = oboNS + "MONDO_"
)

// Ontology is a decoded RDF graph plus the axiom annotations the checks need.
type Ontology struct {
	g          *rdf.Graph
	statements int
	axioms     []axiom
	deprecated map[int64]bool
}

// axiom is one owl:Axiom reification: an annotation on (source, property, target).
type axiom struct {
	source       rdf.Term
	property     string
	target       string
	synonymTypes []string
	sources      []string
}

// LoadFile reads an N-Triples file, gunzipping it when the name ends in .gz.
func LoadFile(path string) (*Ontology, error) {
	if path == "" {
		return nil, errors.New("LoadFile: path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("LoadFile: gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	o, err := Load(r)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: %s: %w", path, err)
	}
	return o, nil
}

// Load decodes N-Triples (or N-Quads; graph labels are ignored) from r.
func Load(r io.Reader) (*Ontology, error) {
	g := rdf.NewGraph()
	var dec rdf.Decoder
	dec.Reset(r)

	n := 0
	for {
		s, err := dec.Unmarshal()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("Load: statement %d: %w", n+1, err)
		}
		s.Label = rdf.Term{}
		s.Subject.UID = 0
		s.Predicate.UID = 0
		s.Object.UID = 0
		g.AddStatement(s)
		n++
	}

	o := &Ontology{g: g, statements: n, deprecated: make(map[int64]bool)}
	o.indexAxioms()
	return o, nil
}

// Len returns the number of statements decoded.
func (o *Ontology) Len() int { return o.statements }

func (o *Ontology) indexAxioms() {
	it := o.g.AllStatements()
	for it.Next() {
		s := it.Statement()
		if s.Predicate.Value != owlAnnotatedSrc {
			continue
		}
		ax := axiom{source: s.Object}
		if p := o.objects(s.Subject, owlAnnotatedProp); len(p) > 0 {
			ax.property = p[0].Value
		}
		if t := o.objects(s.Subject, owlAnnotatedTgt); len(t) > 0 {
			ax.target = lexical(t[0])
		}
		for _, t := range o.objects(s.Subject, oioSynonymType) {
			ax.synonymTypes = append(ax.synonymTypes, t.Value)
		}
		for _, t := range o.objects(s.Subject, oioSource) {
			ax.sources = append(ax.sources, lexical(t))
		}
		o.axioms = append(o.axioms, ax)
	}
}

// objects returns the objects of subj's statements with predicate pred.
func (o *Ontology) objects(subj rdf.Term, pred string) []rdf.Term {
	return o.g.Query(subj).Out(func(s *rdf.Statement) bool {
		return s.Predicate.Value == pred
	}).Result()
}

// statementsWith returns every statement with predicate pred.
func (o *Ontology) statementsWith(pred string) []*rdf.Statement {
	var out []*rdf.Statement
	it := o.g.AllStatements()
	for it.Next() {
		if s := it.Statement(); s.Predicate.Value == pred {
			out = append(out, s)
		}
	}
	return out
}

func (o *Ontology) isDeprecated(t rdf.Term) bool {
	if v, ok := o.deprecated[t.UID]; ok {
		return v
	}
	dep := false
	for _, v := range o.objects(t, owlDeprecated) {
		if strings.EqualFold(lexical(v), "true") {
			dep = true
			break
		}
	}
	o.deprecated[t.UID] = dep
	return dep
}

func (o *Ontology) labels(t rdf.Term) []string {
	var out []string
	for _, l := range o.objects(t, rdfsLabel) {
		out = append(out, lexical(l))
	}
	sort.Strings(out)
	return out
}

// Metadata returns the ontology IRI and owl:versionIRI declared in the graph.
func (o *Ontology) Metadata() ontology.Metadata {
	for _, s := range o.statementsWith(rdfType) {
		if s.Object.Value != owlOntology {
			continue
		}
		md := ontology.Metadata{ID: lexical(s.Subject)}
		if v := o.objects(s.Subject, owlVersionIRI); len(v) > 0 {
			md.VersionIRI = lexical(v[0])
		}
		return md
	}
	return ontology.Metadata{}
}

// Terms returns the owl:Class terms whose IRIs fall under the OBO namespace of
// ontologyID (e.g. "mondo" -> MONDO_), with labels and all synonym scopes.
// Deprecated classes and classes labelled "obsolete ..." are flagged Obsolete.
func (o *Ontology) Terms(ontologyID string) []ontology.Term {
	prefix := oboNS + strings.ToUpper(ontologyID) + "_"
	scopes := []struct{ pred, scope string }{
		{oioExactSynonym, "EXACT"},
		{iaoEditorLabel, "EXACT"},
		{oioRelatedSynonym, "RELATED"},
		{oioBroadSynonym, "BROAD"},
		{oioNarrowSynonym, "NARROW"},
	}

	seen := make(map[int64]bool)
	var out []ontology.Term
	for _, s := range o.statementsWith(rdfType) {
		if s.Object.Value != owlClass || seen[s.Subject.UID] {
			continue
		}
		iri, kind := iriText(s.Subject)
		if kind != rdf.IRI || !strings.HasPrefix(iri, prefix) {
			continue
		}
		seen[s.Subject.UID] = true

		t := ontology.Term{ID: CompactIRI(iri), Obsolete: o.isDeprecated(s.Subject)}
		if ls := o.labels(s.Subject); len(ls) > 0 {
			t.Label = ls[0]
		}
		if strings.HasPrefix(t.Label, "obsolete") {
			t.Obsolete = true
		}
		for _, sc := range scopes {
			var texts []string
			for _, v := range o.objects(s.Subject, sc.pred) {
				texts = append(texts, lexical(v))
			}
			sort.Strings(texts)
			for _, text := range texts {
				t.Synonyms = append(t.Synonyms, ontology.Synonym{Text: text, Scope: sc.scope})
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// lexical returns the unquoted text of a term: the IRI without angle brackets,
// the literal's lexical form, or the blank node label.
func lexical(t rdf.Term) string {
	text, _, _, err := t.Parts()
	if err != nil {
		return t.Value
	}
	return text
}

func iriText(t rdf.Term) (string, rdf.Kind) {
	text, _, kind, err := t.Parts()
	if err != nil {
		return t.Value, rdf.Invalid
	}
	return text, kind
}

// CompactIRI shortens well-known IRIs: OBO class IRIs become CURIEs
// (MONDO:0005015) and vocabulary IRIs get their usual prefix (rdfs:label).
func CompactIRI(iri string) string {
	iri = strings.TrimSuffix(strings.TrimPrefix(iri, "<"), ">")
	for ns, p := range map[string]string{
		oboInOwlNS: "oboInOwl:",
		owlNS:      "owl:",
		rdfNS:      "rdf:",
		rdfsNS:     "rdfs:",
	} {
		if strings.HasPrefix(iri, ns) {
			return p + strings.TrimPrefix(iri, ns)
		}
	}
	if rest, ok := strings.CutPrefix(iri, oboNS); ok {
		if i := strings.IndexByte(rest, '_'); i > 0 && !strings.ContainsAny(rest, "#/") {
			return rest[:i] + ":" + rest[i+1:]
		}
		return "obo:" + rest
	}
	return iri
}

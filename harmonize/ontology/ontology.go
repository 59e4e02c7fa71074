// Package ontology provides read-only label and synonym lookup over ontology term databases.
package ontology

import (
	"context"
	"fmt"
	"strings"
)

// SearchProperty selects which annotation a search compares against.
type SearchProperty string

const (
	// Label matches a term's primary rdfs:label.
	Label SearchProperty = "LABEL"
	// Alias matches any recorded synonym of a term.
	Alias SearchProperty = "ALIAS"
)

// Predicate CURIEs as stored in semantic-SQL databases.
const (
	PredLabel           = "rdfs:label"
	PredExactSynonym    = "oio:hasExactSynonym"
	PredRelatedSynonym  = "oio:hasRelatedSynonym"
	PredBroadSynonym    = "oio:hasBroadSynonym"
	PredNarrowSynonym   = "oio:hasNarrowSynonym"
	PredEditorPreferred = "IAO:0000118"
	PredVersionIRI      = "owl:versionIRI"
	PredDeprecated      = "owl:deprecated"
)

// Predicates returns the annotation predicates searched for prop.
func (p SearchProperty) Predicates() ([]string, error) {
	switch p {
	case Label:
		return []string{PredLabel}, nil
	case Alias:
		return []string{PredExactSynonym, PredRelatedSynonym, PredBroadSynonym, PredNarrowSynonym, PredEditorPreferred}, nil
	default:
		return nil, fmt.Errorf("unknown search property %q", string(p))
	}
}

// Searcher is the ontology adapter used by the matcher.
//
// BasicSearch returns the CURIEs of every term whose prop annotation equals text,
// ignoring case. No partial or fuzzy matching is attempted.
type Searcher interface {
	BasicSearch(ctx context.Context, text string, prop SearchProperty) ([]string, error)
	Label(ctx context.Context, curie string) (string, error)
	Metadata(ctx context.Context) ([]Metadata, error)
}

// Metadata identifies one ontology loaded in a term database.
type Metadata struct {
	ID         string
	VersionIRI string
}

// HasPrefix reports whether curie belongs to the ontology identified by ontologyID
// (e.g. "MONDO:0005015" for "mondo").
func HasPrefix(curie, ontologyID string) bool {
	return strings.HasPrefix(curie, strings.ToUpper(ontologyID)+":")
}

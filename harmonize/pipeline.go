package harmonize

import (
	"context"
	"errors"
	"fmt"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/ontology"
)

// OntologySource pairs an ontology id with the adapter that searches it.
type OntologySource struct {
	ID       string
	Searcher ontology.Searcher
}

// RunOptions configures Harmonize.
type RunOptions struct {
	MatchOptions

	GroupBy   []string
	Aggregate []string
}

// Harmonize matches in against every source in order, stacks the per-ontology
// results and aggregates them into one row per business key.
func Harmonize(ctx context.Context, in *Table, sources []OntologySource, opts RunOptions) (*Table, error) {
	if ctx == nil {
		return nil, errors.New("Harmonize: ctx is nil")
	}
	if len(sources) == 0 {
		return nil, errors.New("Harmonize: no ontologies to search")
	}
	if len(opts.GroupBy) == 0 {
		opts.GroupBy = DefaultGroupBy
	}
	if len(opts.Aggregate) == 0 {
		opts.Aggregate = DefaultAggregate
	}

	perOntology := make([]*Table, 0, len(sources))
	for _, src := range sources {
		res, err := MatchOntology(ctx, src.ID, src.Searcher, in, opts.MatchOptions)
		if err != nil {
			return nil, fmt.Errorf("Harmonize: %s: %w", src.ID, err)
		}
		perOntology = append(perOntology, res)
	}

	combined, err := Aggregate(Concat(perOntology...), opts.GroupBy, opts.Aggregate)
	if err != nil {
		return nil, fmt.Errorf("Harmonize: %w", err)
	}
	return combined, nil
}

package harmonize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/fileutils"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/ontology"
)

var tracer = otel.Tracer("github.com/theimaginaryfoundation/condition-harmonizer/harmonize")

// maxLoggedText caps the source text echoed in per-hit debug lines.
const maxLoggedText = 120

// MatchOptions controls a matching run.
type MatchOptions struct {
	// TextColumn holds the free-text condition label to search for.
	TextColumn string

	// Logger receives per-hit debug lines and pass summaries. Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger

	// Progress, when set, receives a progress bar per search pass.
	Progress io.Writer
}

func (o MatchOptions) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// SearchOntology runs one exact search pass: one BasicSearch per row, in order.
// Hits outside the searched ontology are dropped, and the remaining hits for a
// row are grouped into a single SearchResult. Rows without hits produce no result.
// The first search error aborts the pass.
func SearchOntology(ctx context.Context, ontologyID string, s ontology.Searcher, rows []InputRow, prop ontology.SearchProperty, opts MatchOptions) ([]SearchResult, error) {
	if s == nil {
		return nil, errors.New("SearchOntology: searcher is nil")
	}
	ctx, span := tracer.Start(ctx, "harmonize.SearchOntology")
	defer span.End()
	span.SetAttributes(
		attribute.String("ontology.id", ontologyID),
		attribute.String("search.property", string(prop)),
		attribute.Int("rows", len(rows)),
	)

	log := opts.logger().WithFields(logrus.Fields{"ontology": ontologyID, "property": string(prop)})
	matchType := MatchTypeFor(ontologyID, prop)

	var bar *progressbar.ProgressBar
	if opts.Progress != nil && len(rows) > 0 {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription(fmt.Sprintf("%s %s", ontologyID, strings.ToLower(string(prop)))),
		)
	}

	var results []SearchResult
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		curies, err := s.BasicSearch(ctx, row.Text, prop)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "search failed")
			return nil, fmt.Errorf("SearchOntology: row %s: %w", row.RowID, err)
		}

		var matches []Match
		for _, curie := range curies {
			if !ontology.HasPrefix(curie, ontologyID) {
				continue
			}
			label, err := s.Label(ctx, curie)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "label lookup failed")
				return nil, fmt.Errorf("SearchOntology: label %s: %w", curie, err)
			}
			log.Debugf("%s -- %s ---> %s - %s", row.RowID, fileutils.Truncate(fileutils.SanitizeNewlines(row.Text), maxLoggedText), curie, label)
			matches = append(matches, Match{Curie: curie, Label: label})
		}

		if len(matches) > 0 {
			curie, label := joinMatches(matches)
			results = append(results, SearchResult{
				RowID:     row.RowID,
				Curie:     curie,
				Label:     label,
				MatchType: matchType,
			})
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(opts.Progress)
	}

	span.SetAttributes(attribute.Int("matched_rows", len(results)))
	log.Infof("matched %d of %d rows", len(results), len(rows))
	return results, nil
}

// MatchOntology runs the two-pass match for one ontology over a copy of in:
// an exact label pass over every row, then an exact synonym pass over the rows
// the label pass left unmatched. Results land in the ontology's canonical
// code/label/match-type columns; unmatched rows carry empty values.
func MatchOntology(ctx context.Context, ontologyID string, s ontology.Searcher, in *Table, opts MatchOptions) (*Table, error) {
	if in == nil {
		return nil, errors.New("MatchOntology: table is nil")
	}
	if opts.TextColumn == "" {
		return nil, errors.New("MatchOntology: text column is empty")
	}
	if !in.HasColumn(opts.TextColumn) {
		return nil, fmt.Errorf("MatchOntology: column %q not in table", opts.TextColumn)
	}
	if !in.HasColumn(RowIDColumn) {
		return nil, fmt.Errorf("MatchOntology: column %q not in table", RowIDColumn)
	}

	ctx, span := tracer.Start(ctx, "harmonize.MatchOntology")
	defer span.End()
	span.SetAttributes(attribute.String("ontology.id", ontologyID))

	cols := ColumnsFor(ontologyID)
	out := in.Clone()

	labelResults, err := SearchOntology(ctx, ontologyID, s, out.InputRows(opts.TextColumn), ontology.Label, opts)
	if err != nil {
		return nil, err
	}
	ApplyResults(out, cols, labelResults, true)

	var unmatched []InputRow
	for _, row := range out.Rows {
		if row[cols.MatchType] == "" {
			unmatched = append(unmatched, InputRow{RowID: row.ID(), Text: row[opts.TextColumn]})
		}
	}

	aliasResults, err := SearchOntology(ctx, ontologyID, s, unmatched, ontology.Alias, opts)
	if err != nil {
		return nil, err
	}
	ApplyResults(out, cols, aliasResults, false)

	span.SetAttributes(
		attribute.Int("label_matches", len(labelResults)),
		attribute.Int("alias_matches", len(aliasResults)),
	)
	return out, nil
}

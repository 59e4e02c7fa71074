package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/ontology"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/rdfqc"
)

var tracer = otel.Tracer("github.com/theimaginaryfoundation/condition-harmonizer/cmd/harmonize")

func newSearchCmd(a *app) *cobra.Command {
	cfg := defaultSearchConfig()
	var oids string

	cmd := &cobra.Command{
		Use:   "search [ontology_id] [filename]",
		Short: "Search ontologies for exact label and synonym matches of a spreadsheet's condition labels",
		Example: `  harmonize search --oid mondo,hp --data-filename condition_codes.xlsx
  harmonize search mondo condition_codes.xlsx
  harmonize -v search -o hp -d condition_codes.xlsx --ontology-db ~/.data/oaklib/hp.db --out annotated.xlsx`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(2)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if oids == "" && len(args) > 0 {
				oids = args[0]
			}
			if cfg.DataFilename == "" && len(args) > 1 {
				cfg.DataFilename = args[1]
			}
			cfg.OntologyIDs = splitIDs(oids)
			if err := cfg.Validate(); err != nil {
				return a.fail(cmd.Context(), usageError{err})
			}
			if a.global.Quiet {
				cfg.Progress = false
			}
			if err := runSearch(cmd.Context(), a, cfg); err != nil {
				return a.fail(cmd.Context(), err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&oids, "oid", "o", "", "Comma separated ontology ids to search (e.g. mondo,hp,maxo)")
	f.StringVarP(&cfg.DataFilename, "data-filename", "d", "", "Spreadsheet to annotate, relative to --input-dir")
	f.StringVar(&cfg.InputDir, "input-dir", cfg.InputDir, "Directory holding input spreadsheets")
	f.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory receiving the timestamped output file")
	f.StringVar(&cfg.OutPath, "out", "", "Fixed output path (overrides the timestamped name)")
	f.StringVar(&cfg.SheetName, "sheet", "", "Sheet to read (default from --config, else Sheet1)")
	f.StringVar(&cfg.SearchColumn, "search-column", "", "Header of the column holding the condition text (default: third column)")
	f.StringVar(&cfg.CacheDir, "cache-dir", "", "Download cache for ontology databases (default ~/.data/oaklib)")
	f.StringVar(&cfg.OntologyDB, "ontology-db", "", "Local semantic-SQL database to use instead of fetching (single ontology only)")
	f.StringVar(&cfg.OntologyRDF, "ontology-rdf", "", "N-Triples export to search in memory instead of a database (single ontology only)")
	f.BoolVar(&cfg.Refresh, "refresh", false, "Re-download ontology databases even when cached")
	f.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show progress bars on stderr")
	return cmd
}

// openedSource is an ontology searcher plus the function releasing it.
type openedSource struct {
	harmonize.OntologySource
	close func() error
}

func runSearch(ctx context.Context, a *app, cfg SearchConfig) error {
	ctx, span := tracer.Start(ctx, "harmonize.search", trace.WithAttributes(
		attribute.StringSlice("ontology.ids", cfg.OntologyIDs),
		attribute.String("input", cfg.InputPath()),
	))
	defer span.End()
	log := a.log

	layout, err := harmonize.LoadLayout(a.global.ConfigPath)
	if err != nil {
		return err
	}
	lay := layout.Resolved()
	if cfg.SheetName != "" {
		lay.SheetName = cfg.SheetName
	}
	if cfg.SearchColumn != "" {
		lay.TextColumn = cfg.SearchColumn
	}

	inPath := cfg.InputPath()
	table, err := harmonize.LoadSheet(inPath, lay.SheetName)
	if err != nil {
		return err
	}
	if n := harmonize.EnsureRowIDs(table); n > 0 {
		log.Debugf("generated %d row ids", n)
	}
	textColumn, err := harmonize.ResolveTextColumn(table, lay.TextColumn, *lay.TextColumnIndex)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"input":       inPath,
		"sheet":       lay.SheetName,
		"rows":        len(table.Rows),
		"text_column": textColumn,
	}).Info("loaded spreadsheet")

	var sources []harmonize.OntologySource
	for _, id := range cfg.OntologyIDs {
		src, err := openSource(ctx, cfg, id, log)
		if err != nil {
			return err
		}
		defer src.close()
		sources = append(sources, src.OntologySource)
	}

	var progress io.Writer
	if cfg.Progress {
		progress = a.stderr
	}
	start := time.Now()
	combined, err := harmonize.Harmonize(ctx, table, sources, harmonize.RunOptions{
		MatchOptions: harmonize.MatchOptions{
			TextColumn: textColumn,
			Logger:     log,
			Progress:   progress,
		},
		GroupBy:   lay.GroupBy,
		Aggregate: lay.Aggregate,
	})
	if err != nil {
		return err
	}

	outPath := cfg.OutPath
	if outPath == "" {
		outPath = harmonize.OutputPath(cfg.OutputDir, cfg.OntologyIDs, time.Now())
	}
	if err := harmonize.WriteSheet(outPath, combined, ""); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"rows":    len(combined.Rows),
		"out":     outPath,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("wrote combined annotations")

	fmt.Fprintf(a.stdout, "rows=%d ontologies=%s out=%s\n", len(combined.Rows), strings.Join(cfg.OntologyIDs, ","), outPath)
	return nil
}

// openSource resolves one ontology id to a searcher: an in-memory index over an
// N-Triples export, a given local database, or a fetched (cached) database.
func openSource(ctx context.Context, cfg SearchConfig, id string, log logrus.FieldLogger) (openedSource, error) {
	ctx, span := tracer.Start(ctx, "harmonize.openOntology",
		trace.WithAttributes(attribute.String("ontology.id", id)))
	defer span.End()

	var (
		s       ontology.Searcher
		release = func() error { return nil }
	)
	switch {
	case cfg.OntologyRDF != "":
		o, err := rdfqc.LoadFile(cfg.OntologyRDF)
		if err != nil {
			return openedSource{}, err
		}
		idx := ontology.NewMemoryIndex(o.Metadata(), o.Terms(id))
		log.WithFields(logrus.Fields{"ontology": id, "terms": idx.Len()}).Info("indexed RDF export")
		s = idx
	default:
		source := id
		if cfg.OntologyDB != "" {
			source = cfg.OntologyDB
		}
		store, err := ontology.OpenOBO(ctx, source, ontology.FetchOptions{CacheDir: cfg.CacheDir, Refresh: cfg.Refresh})
		if err != nil {
			return openedSource{}, err
		}
		log.WithFields(logrus.Fields{"ontology": id, "db": store.Path()}).Debug("opened ontology database")
		s = store
		release = store.Close
	}

	metas, err := s.Metadata(ctx)
	if err != nil {
		_ = release()
		return openedSource{}, err
	}
	for _, m := range metas {
		log.Infof("Ontology metadata: %s, %s", m.ID, m.VersionIRI)
	}
	return openedSource{OntologySource: harmonize.OntologySource{ID: id, Searcher: s}, close: release}, nil
}

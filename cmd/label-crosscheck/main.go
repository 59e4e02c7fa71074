package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v2"
	"github.com/sirupsen/logrus"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/fileutils"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/logging"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/ontology"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/rdfqc"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, cfg, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute opens the log and the ontology database, runs the crosscheck and
// returns the process exit code. Everything it opens is closed before it returns.
func execute(ctx context.Context, cfg Config, stdout, stderr io.Writer) int {
	verbose := 1
	if cfg.Verbose {
		verbose = 2
	}
	log, closeLog, err := logging.New(logging.Options{Verbose: verbose, Console: stderr})
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}
	defer closeLog()

	store, err := ontology.OpenOBO(ctx, cfg.Ontology, ontology.FetchOptions{CacheDir: cfg.CacheDir, Refresh: cfg.Refresh})
	if err != nil {
		log.WithError(err).Error("open ontology database")
		return 1
	}
	defer store.Close()

	var progress io.Writer
	if cfg.Progress {
		progress = stderr
	}
	sum, err := run(ctx, cfg, store, progress, log)
	if err != nil {
		log.WithError(err).Error("label crosscheck failed")
		return 1
	}
	fmt.Fprintf(stdout, "classes=%d matched=%d missing=%d out=%s\n", sum.Classes, sum.Matched, sum.Missing, cfg.OutPath)
	return 0
}

type summary struct {
	Classes int
	Matched int
	Missing int
}

var csvHeader = []string{"class", "input_label", "matched_curie", "matched_label"}

// run lists the live classes of the RDF export, searches each label exactly in
// store and writes one CSV row per hit. Classes with no hit get a row with
// empty match columns and are counted as missing.
func run(ctx context.Context, cfg Config, store ontology.Searcher, progress io.Writer, log logrus.FieldLogger) (summary, error) {
	start := time.Now()
	o, err := rdfqc.LoadFile(cfg.InPath)
	if err != nil {
		return summary{}, err
	}
	classes := o.Classes()
	if cfg.MaxClasses > 0 && len(classes) > cfg.MaxClasses {
		classes = classes[:cfg.MaxClasses]
	}
	log.WithFields(logrus.Fields{
		"statements": o.Len(),
		"classes":    len(classes),
		"elapsed":    time.Since(start).Round(time.Millisecond),
	}).Info("listed classes from RDF export")

	metas, err := store.Metadata(ctx)
	if err != nil {
		return summary{}, err
	}
	for _, m := range metas {
		log.Infof("Ontology metadata: %s, %s", m.ID, m.VersionIRI)
	}

	var bar *progressbar.ProgressBar
	if progress != nil && len(classes) > 0 {
		bar = progressbar.NewOptions(len(classes),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("label search"),
		)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return summary{}, err
	}

	sum := summary{Classes: len(classes)}
	searchStart := time.Now()
	for _, c := range classes {
		if err := ctx.Err(); err != nil {
			return summary{}, err
		}
		curies, err := store.BasicSearch(ctx, c.Label, ontology.Label)
		if err != nil {
			return summary{}, fmt.Errorf("search %s: %w", c.ID, err)
		}
		if len(curies) == 0 {
			sum.Missing++
			log.WithField("class", c.ID).Debugf("no exact label match for %q", c.Label)
			if err := w.Write([]string{c.ID, c.Label, "", ""}); err != nil {
				return summary{}, err
			}
		} else {
			sum.Matched++
		}
		for _, curie := range curies {
			label, err := store.Label(ctx, curie)
			if err != nil {
				return summary{}, fmt.Errorf("label %s: %w", curie, err)
			}
			if err := w.Write([]string{c.ID, c.Label, curie, label}); err != nil {
				return summary{}, err
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(progress)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return summary{}, err
	}
	if err := fileutils.WriteFileAtomicSameDir(cfg.OutPath, buf.Bytes(), 0o644); err != nil {
		return summary{}, fmt.Errorf("write %s: %w", cfg.OutPath, err)
	}
	log.WithFields(logrus.Fields{
		"matched": sum.Matched,
		"missing": sum.Missing,
		"elapsed": time.Since(searchStart).Round(time.Millisecond),
	}).Info("label search finished")
	return sum, nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Ontology export in N-Triples (.nt or .nt.gz)")
	fs.StringVar(&cfg.Ontology, "db", cfg.Ontology, "Semantic-SQL database: a local .db path or an OBO id to fetch (e.g. mondo)")
	fs.StringVar(&cfg.CacheDir, "cache-dir", "", "Download cache for fetched databases (default ~/.data/oaklib)")
	fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "CSV file to write")
	fs.BoolVar(&cfg.Refresh, "refresh", false, "Re-download the database even when cached")
	fs.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show a progress bar on stderr")
	fs.IntVar(&cfg.MaxClasses, "max-classes", 0, "Only check the first N classes (0 = all)")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging (logs every class without a match)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/label-crosscheck -in ontologies/mondo.nt -db mondo -out search_results.csv")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/label-crosscheck -in mondo.nt.gz -db ~/.data/oaklib/mondo.db -max-classes 100 -progress=false")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.InPath = filepath.Clean(cfg.InPath)
	cfg.OutPath = filepath.Clean(cfg.OutPath)
	return cfg, nil
}

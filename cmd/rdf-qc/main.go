package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/logging"
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

	verbose := 1
	if cfg.Verbose {
		verbose = 2
	}
	log, closeLog, err := logging.New(logging.Options{Verbose: verbose, File: cfg.LogFile, Console: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer closeLog()

	if err := run(cfg, os.Stdout, log); err != nil {
		log.WithError(err).Error("rdf-qc failed")
		closeLog()
		os.Exit(1)
	}
}

func run(cfg Config, stdout io.Writer, log logrus.FieldLogger) error {
	start := time.Now()
	log.WithField("in", cfg.InPath).Info("loading ontology")
	o, err := rdfqc.LoadFile(cfg.InPath)
	if err != nil {
		return err
	}
	md := o.Metadata()
	log.WithFields(logrus.Fields{
		"statements":  o.Len(),
		"ontology":    md.ID,
		"version_iri": md.VersionIRI,
		"elapsed":     time.Since(start).Round(time.Millisecond),
	}).Info("loaded ontology")

	var selected []rdfqc.Check
	if cfg.Check == allChecks {
		selected = rdfqc.Checks()
	} else {
		c, err := rdfqc.Lookup(cfg.Check)
		if err != nil {
			return err
		}
		selected = []rdfqc.Check{c}
	}

	results := make([]rdfqc.Result, 0, len(selected))
	total := 0
	for _, c := range selected {
		checkStart := time.Now()
		res := c.Run(o)
		results = append(results, res)
		total += len(res.Rows)
		log.WithFields(logrus.Fields{
			"check":   c.Name,
			"rows":    len(res.Rows),
			"elapsed": time.Since(checkStart).Round(time.Millisecond),
		}).Info("check finished")

		if len(selected) > 1 {
			fmt.Fprintf(stdout, "# %s\n", c.Name)
		}
		if !cfg.NoHeader {
			fmt.Fprintln(stdout, strings.Join(res.Columns, "\t"))
		}
		for _, row := range res.Rows {
			fmt.Fprintln(stdout, strings.Join(row, "\t"))
		}
	}

	if cfg.ReportPath != "" {
		if err := rdfqc.WriteReport(cfg.ReportPath, cfg.InPath, time.Now(), results); err != nil {
			return err
		}
		log.WithField("report", cfg.ReportPath).Info("wrote report")
	}
	log.Infof("checks=%d rows=%d", len(results), total)
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.SetOutput(os.Stderr)

	names := []string{allChecks}
	for _, c := range rdfqc.Checks() {
		names = append(names, c.Name)
	}

	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Ontology export in N-Triples (.nt or .nt.gz)")
	fs.StringVar(&cfg.Check, "check", cfg.Check, "Check to run: "+strings.Join(names, ", "))
	fs.StringVar(&cfg.ReportPath, "report", "", "Optional report path (.md for markdown, anything else for HTML)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Optional file receiving a copy of the log")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging")
	fs.BoolVar(&cfg.NoHeader, "no-header", false, "Omit the column header line on stdout")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  robot convert -i mondo.owl -o mondo.nt && go run ./cmd/rdf-qc -in mondo.nt")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/rdf-qc -in mondo.nt.gz -check all -report qc.html")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/rdf-qc -in mondo.nt -check count-classes -no-header")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.InPath = filepath.Clean(cfg.InPath)
	cfg.Check = strings.TrimSpace(cfg.Check)
	return cfg, nil
}

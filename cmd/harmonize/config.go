package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// GlobalConfig holds the persistent flags shared by every subcommand.
type GlobalConfig struct {
	Verbose      int
	Quiet        bool
	LogFile      string
	ConfigPath   string
	OTLPEndpoint string
}

// SearchConfig configures the search subcommand.
type SearchConfig struct {
	OntologyIDs  []string
	DataFilename string
	InputDir     string
	OutputDir    string
	OutPath      string
	SheetName    string
	SearchColumn string
	CacheDir     string
	OntologyDB   string
	OntologyRDF  string
	Refresh      bool
	Progress     bool
}

func (c SearchConfig) Validate() error {
	if len(c.OntologyIDs) == 0 {
		return errors.New("missing --oid (or positional <ontology_id>)")
	}
	for _, id := range c.OntologyIDs {
		if id == "" {
			return fmt.Errorf("empty ontology id in %q", strings.Join(c.OntologyIDs, ","))
		}
	}
	if c.DataFilename == "" {
		return errors.New("missing --data-filename (or positional <filename>)")
	}
	if c.OntologyDB != "" && c.OntologyRDF != "" {
		return errors.New("--ontology-db and --ontology-rdf are mutually exclusive")
	}
	if (c.OntologyDB != "" || c.OntologyRDF != "") && len(c.OntologyIDs) != 1 {
		return errors.New("--ontology-db/--ontology-rdf need exactly one ontology id")
	}
	if c.OutPath == "" && c.OutputDir == "" {
		return errors.New("missing --output-dir")
	}
	return nil
}

// InputPath resolves the data file under InputDir unless it is absolute.
func (c SearchConfig) InputPath() string {
	if filepath.IsAbs(c.DataFilename) || c.InputDir == "" {
		return filepath.Clean(c.DataFilename)
	}
	return filepath.Join(c.InputDir, c.DataFilename)
}

func defaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		LogFile: "error.log",
	}
}

func defaultSearchConfig() SearchConfig {
	return SearchConfig{
		InputDir:  filepath.FromSlash("data/input"),
		OutputDir: filepath.FromSlash("data/output"),
		Progress:  true,
	}
}

// splitIDs parses a comma separated ontology id list.
func splitIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

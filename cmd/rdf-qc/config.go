package main

import (
	"errors"
	"path/filepath"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/rdfqc"
)

// allChecks selects every registered check.
const allChecks = "all"

type Config struct {
	InPath     string
	Check      string
	ReportPath string
	LogFile    string
	Verbose    bool
	NoHeader   bool
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.Check == "" {
		return errors.New("missing -check")
	}
	if c.Check != allChecks {
		if _, err := rdfqc.Lookup(c.Check); err != nil {
			return err
		}
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InPath: filepath.FromSlash("ontologies/mondo.nt"),
		Check:  "label-collisions",
	}
}

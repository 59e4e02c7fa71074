package main

import (
	"errors"
	"path/filepath"
)

type Config struct {
	InPath     string
	Ontology   string
	CacheDir   string
	OutPath    string
	Refresh    bool
	Progress   bool
	MaxClasses int
	Verbose    bool
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.Ontology == "" {
		return errors.New("missing -db")
	}
	if c.OutPath == "" {
		return errors.New("missing -out")
	}
	if c.MaxClasses < 0 {
		return errors.New("max-classes must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InPath:   filepath.FromSlash("ontologies/mondo.nt"),
		Ontology: "mondo",
		OutPath:  "search_results.csv",
		Progress: true,
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/abbrev"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/provider"
)

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("abbrev-expander", flag.ContinueOnError)
	cfg, err := parseFlags(fs, nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Condition != "ASD" || cfg.Provider != providerOpenAI {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.model() != "gpt-5-mini" || cfg.apiKeyEnv() != "OPENAI_API_KEY" {
		t.Fatalf("model=%q env=%q", cfg.model(), cfg.apiKeyEnv())
	}
}

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("abbrev-expander", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-condition", " T2D ", "-provider", "Anthropic", "-glossary", "data/abbr.json", "-q"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Condition != "T2D" {
		t.Fatalf("Condition=%q, want %q", cfg.Condition, "T2D")
	}
	if cfg.Provider != providerAnthropic || cfg.apiKeyEnv() != "ANTHROPIC_API_KEY" {
		t.Fatalf("Provider=%q", cfg.Provider)
	}
	if cfg.model() != defaultModels[providerAnthropic] {
		t.Fatalf("model=%q", cfg.model())
	}
	if cfg.GlossaryPath != filepath.FromSlash("data/abbr.json") || !cfg.Quiet {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error for empty config")
	}
	cfg := defaultConfig()
	cfg.Provider = "llama"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("Validate(default): %v", err)
	}
}

type fakeGenerator struct {
	out string
	err error
	req provider.JSONRequest
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, req provider.JSONRequest) (string, error) {
	f.req = req
	return f.out, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRun_PrintsAndMergesGlossary(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{out: `{"conditions": ["Autism spectrum disorder", "Atrial septal defect"]}`}
	cfg := defaultConfig()
	cfg.GlossaryPath = filepath.Join(t.TempDir(), "abbreviations.json")

	var out bytes.Buffer
	if err := run(context.Background(), cfg, gen, &out, quietLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(gen.req.User, "abbreviation ASD") {
		t.Fatalf("user prompt=%q", gen.req.User)
	}
	if gen.req.Schema["type"] != "object" {
		t.Fatalf("schema=%v", gen.req.Schema)
	}
	want := "{\n    \"conditions\": [\n        \"Autism spectrum disorder\",\n        \"Atrial septal defect\"\n    ]\n}\nAutism spectrum disorder\nAtrial septal defect\n"
	if out.String() != want {
		t.Fatalf("stdout=%q, want %q", out.String(), want)
	}

	g, err := abbrev.LoadGlossary(cfg.GlossaryPath)
	if err != nil {
		t.Fatalf("LoadGlossary: %v", err)
	}
	e, ok := g.Lookup("ASD")
	if !ok || len(e.Expansions) != 2 || e.Sources[0] != "openai/gpt-5-mini" {
		t.Fatalf("entry=%+v ok=%v", e, ok)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	var out bytes.Buffer
	if err := run(context.Background(), cfg, &fakeGenerator{err: errors.New("429 rate limit")}, &out, quietLogger()); err == nil {
		t.Fatalf("expected generator error")
	}
	if err := run(context.Background(), cfg, &fakeGenerator{out: "I am not sure."}, &out, quietLogger()); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := run(context.Background(), cfg, nil, &out, quietLogger()); err == nil {
		t.Fatalf("expected error for nil generator")
	}
	if out.Len() != 0 {
		t.Fatalf("stdout=%q, want nothing on failure", out.String())
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/abbrev"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/logging"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/provider"
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

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(cfg.apiKeyEnv())
	}
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "missing %s (or pass -api-key)\n", cfg.apiKeyEnv())
		os.Exit(2)
	}

	log, closeLog, err := logging.New(logging.Options{Verbose: 1, Quiet: cfg.Quiet, Console: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gen provider.JSONGenerator
	switch cfg.Provider {
	case providerAnthropic:
		gen = provider.NewAnthropic(apiKey, cfg.model())
	default:
		gen = provider.NewOpenAI(apiKey, cfg.model())
	}

	if err := run(ctx, cfg, gen, os.Stdout, log); err != nil {
		log.WithError(err).Error("abbreviation expansion failed")
		os.Exit(1)
	}
}

var expansionSchema = provider.GenerateSchema[abbrev.Expansion]()

func run(ctx context.Context, cfg Config, gen provider.JSONGenerator, stdout io.Writer, log logrus.FieldLogger) error {
	if gen == nil {
		return errors.New("run: generator is nil")
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	condition := strings.TrimSpace(cfg.Condition)
	raw, err := gen.GenerateJSON(ctx, provider.JSONRequest{
		Name:        "AbbreviationExpansion",
		Description: "Medical conditions an abbreviation may stand for",
		System:      abbreviationSystemPrompt,
		User:        abbreviationUserPrompt(condition),
		Schema:      expansionSchema,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return err
	}
	log.WithField("provider", cfg.Provider).Debugf("raw response: %s", raw)

	exp, err := abbrev.DecodeExpansion(raw)
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(exp, "", "    ")
	if err != nil {
		return fmt.Errorf("run: marshal: %w", err)
	}
	fmt.Fprintln(stdout, string(pretty))
	for _, c := range exp.Conditions {
		fmt.Fprintln(stdout, c)
	}

	if cfg.GlossaryPath == "" {
		return nil
	}
	g, err := abbrev.LoadGlossary(cfg.GlossaryPath)
	if err != nil {
		return err
	}
	if prev, ok := g.Lookup(condition); ok {
		log.WithField("abbreviation", condition).Debugf("known expansions: %s", strings.Join(prev.Expansions, "; "))
	}
	seenAt := float64(time.Now().Unix())
	added := abbrev.Merge(&g, condition, cfg.Provider+"/"+cfg.model(), exp.Conditions, &seenAt)
	if err := abbrev.SaveGlossary(cfg.GlossaryPath, g); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"abbreviation": condition,
		"new":          len(added),
		"glossary":     cfg.GlossaryPath,
	}).Info("updated glossary")
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Condition, "condition", cfg.Condition, "Abbreviation to expand (e.g. ASD)")
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Model provider: openai or anthropic")
	fs.StringVar(&cfg.Model, "model", "", "Model name (default depends on -provider)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key (defaults to OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	fs.StringVar(&cfg.GlossaryPath, "glossary", "", "Optional abbreviation glossary JSON to merge results into")
	fs.Int64Var(&cfg.MaxTokens, "max-tokens", cfg.MaxTokens, "Maximum output tokens")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Overall request timeout (0 disables)")
	fs.BoolVar(&cfg.Quiet, "q", false, "Only log errors")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  OPENAI_API_KEY=... go run ./cmd/abbrev-expander -condition ASD")
		fmt.Fprintln(fs.Output(), "  ANTHROPIC_API_KEY=... go run ./cmd/abbrev-expander -provider anthropic -condition T2D -glossary data/abbreviations.json")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Condition = strings.TrimSpace(cfg.Condition)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.GlossaryPath != "" {
		cfg.GlossaryPath = filepath.Clean(cfg.GlossaryPath)
	}
	return cfg, nil
}

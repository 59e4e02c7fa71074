package main

import (
	"errors"
	"fmt"
	"time"
)

const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
)

var defaultModels = map[string]string{
	providerOpenAI:    "gpt-5-mini",
	providerAnthropic: "claude-sonnet-4-20250514",
}

type Config struct {
	Condition    string
	Provider     string
	Model        string
	APIKey       string
	GlossaryPath string
	MaxTokens    int64
	Timeout      time.Duration
	Quiet        bool
}

func (c Config) Validate() error {
	if c.Condition == "" {
		return errors.New("missing -condition")
	}
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("unknown -provider %q (want %s or %s)", c.Provider, providerOpenAI, providerAnthropic)
	}
	if c.MaxTokens < 0 {
		return errors.New("max-tokens must be >= 0")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be >= 0")
	}
	return nil
}

// model returns the configured model or the provider default.
func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// apiKeyEnv names the environment variable holding the provider's key.
func (c Config) apiKeyEnv() string {
	if c.Provider == providerAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func defaultConfig() Config {
	return Config{
		Condition: "ASD",
		Provider:  providerOpenAI,
		MaxTokens: 1000,
		Timeout:   2 * time.Minute,
	}
}

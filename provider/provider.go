// Package provider abstracts the language-understanding backends the
// model-backed planner can talk to.
package provider

import (
	"context"
	"fmt"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/provider/openai"
)

// Provider generates text from a system prompt and a user prompt.
type Provider interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// NewProvider builds a provider from its configuration. Failure here
// is a bootstrap fault: the caller must abort startup, not degrade.
func NewProvider(name string, cfg config.LLMProvider) (Provider, error) {
	switch cfg.Type {
	case "openai":
		return openai.New(name, cfg)
	case "anthropic":
		return nil, fmt.Errorf("provider %q: anthropic backend not implemented yet", name)
	case "gemini":
		return nil, fmt.Errorf("provider %q: gemini backend not implemented yet", name)
	default:
		return nil, fmt.Errorf("provider %q: unknown type %q", name, cfg.Type)
	}
}

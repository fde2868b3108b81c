package llm

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/reviewharvest/internal/model"
)

// NewProvider creates a provider for config.Provider. It returns nil, nil when
// no provider is configured.
func NewProvider(config Config, client JSONPoster) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "ollama":
		return NewOllamaProvider(config, client)
	case "":
		return nil, nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the llm config section, reading credentials from
// OPENAI_API_KEY and OLLAMA_BASE_URL
func ConfigFromModel(cfg model.LLMConfig) Config {
	c := Config{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	if !cfg.Enabled {
		c.Provider = ""
	}

	switch strings.ToLower(c.Provider) {
	case "openai":
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	case "ollama":
		c.BaseURL = cfg.BaseURL
		if env := os.Getenv("OLLAMA_BASE_URL"); env != "" {
			c.BaseURL = env
		}
	}
	return c
}

package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// JSONPoster is the JSON POST client the Ollama provider talks through
// (fetch.APIClient in production)
type JSONPoster interface {
	PostJSON(ctx context.Context, rawURL string, body, out any) error
}

// OllamaProvider implements the Provider interface for local Ollama models
type OllamaProvider struct {
	baseURL string
	client  JSONPoster
	config  Config
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`

	// Token counts, present when done=true
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config, client JSONPoster) (*OllamaProvider, error) {
	if client == nil {
		return nil, eris.New("llm: ollama requires an HTTP client")
	}
	if config.Model == "" {
		return nil, eris.New("llm: ollama model must be specified (e.g. llama3.1:8b, mistral)")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		config:  config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable asks Ollama to describe the configured model, which fails when
// the server is down or the model is not pulled
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	err := p.client.PostJSON(ctx, p.baseURL+"/api/show", map[string]string{"model": p.config.Model}, nil)
	if err != nil {
		zap.L().Warn("ollama availability check failed",
			zap.String("base_url", p.baseURL),
			zap.String("model", p.config.Model),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Summarize generates a brief with /api/generate
func (p *OllamaProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.AllowedIDs)
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	var resp ollamaResponse
	err := p.client.PostJSON(ctx, p.baseURL+"/api/generate", ollamaRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		System: systemPrompt,
		Options: ollamaOptions{
			Temperature: p.config.Temperature,
			NumPredict:  maxTokens,
		},
	}, &resp)
	if err != nil {
		return nil, eris.Wrap(err, "llm: ollama generate")
	}

	summary := strings.TrimSpace(resp.Response)

	// Some models report zero counts; estimate at ~4 characters per token
	tokensUsed := resp.PromptEvalCount + resp.EvalCount
	if tokensUsed == 0 {
		tokensUsed = (len(prompt) + len(summary)) / 4
	}

	if resp.Model != "" {
		model = resp.Model
	}
	return &SummarizeResponse{
		Summary:    summary,
		CitedIDs:   extractIDs(summary),
		Model:      model,
		TokensUsed: tokensUsed,
	}, nil
}

package unifiedllm

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmAdapter wraps a gollm.LLM instance and implements ProviderAdapter.
type GollmAdapter struct {
	provider string
	llm      gollm.LLM
	model    string
}

// NewGollmAdapter creates a GollmAdapter for provider, defaulting its
// underlying gollm.LLM to model. A GollmAdapter.Complete call whose request
// names a model overrides it; a request with an empty Model keeps the
// model most recently set on the underlying gollm.LLM. If apiKey is empty, gollm
// attempts to read it from the environment (unnecessary for a local ollama
// backend).
func NewGollmAdapter(provider, model, apiKey string) (*GollmAdapter, error) {
	opts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(4096),
		gollm.SetMaxRetries(0), // unifiedllm.Retry handles retries.
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		opts = append(opts, gollm.SetAPIKey(apiKey))
	}

	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: "creating gollm LLM for provider " + provider,
			Cause:   err,
		}}
	}

	return &GollmAdapter{provider: provider, llm: llm, model: model}, nil
}

// Name returns the provider identifier.
func (a *GollmAdapter) Name() string {
	return a.provider
}

// Complete sends a blocking request and returns the full response.
func (a *GollmAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := a.translateRequest(req)
	a.applyRequestOptions(req)

	text, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, a.translateError(err)
	}

	return a.buildResponse(req, text), nil
}

// translateRequest converts a unified Request into a gollm Prompt, folding
// system messages into the system prompt and prior assistant turns into
// labeled context, since gollm.Prompt takes one user-facing string.
func (a *GollmAdapter) translateRequest(req Request) *gollm.Prompt {
	var systemPrompt string
	var userParts []string

	for _, msg := range req.Messages {
		text := msg.TextContent()
		switch msg.Role {
		case RoleSystem:
			systemPrompt += text + "\n"
		case RoleAssistant:
			if text != "" {
				userParts = append(userParts, "[Assistant]: "+text)
			}
		default: // RoleUser
			userParts = append(userParts, text)
		}
	}

	promptText := strings.Join(userParts, "\n")
	if promptText == "" {
		promptText = "Hello"
	}

	var promptOpts []gollm.PromptOption
	if systemPrompt != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(strings.TrimSpace(systemPrompt), gollm.CacheTypeEphemeral))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyRequestOptions applies request-level parameters to the gollm LLM.
func (a *GollmAdapter) applyRequestOptions(req Request) {
	if req.Model != "" {
		a.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		a.llm.SetOption("temperature", *req.Temperature)
	}
}

// buildResponse constructs a unified Response from the generated text.
func (a *GollmAdapter) buildResponse(req Request, text string) *Response {
	model := req.Model
	if model == "" {
		model = a.model
	}

	return &Response{
		ID:           "resp_" + uuid.New().String()[:8],
		Model:        model,
		Provider:     a.provider,
		Message:      AssistantMessage(text),
		FinishReason: FinishReason{Reason: "stop", Raw: "stop"},
		Usage: Usage{
			// gollm doesn't expose provider usage headers for ollama; estimate
			// from text length.
			InputTokens:  estimateTokens(req),
			OutputTokens: len(text) / 4,
			TotalTokens:  estimateTokens(req) + len(text)/4,
		},
	}
}

// translateError converts a gollm error into the unified error hierarchy.
func (a *GollmAdapter) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	msgLower := strings.ToLower(msg)

	switch {
	case strings.Contains(msgLower, "401") || strings.Contains(msgLower, "unauthorized") || strings.Contains(msgLower, "invalid key") || strings.Contains(msgLower, "invalid api key"):
		return &AuthenticationError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: a.provider, StatusCode: 401,
		}}
	case strings.Contains(msgLower, "403") || strings.Contains(msgLower, "forbidden"):
		return &AccessDeniedError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: a.provider, StatusCode: 403,
		}}
	case strings.Contains(msgLower, "404") || strings.Contains(msgLower, "not found"):
		return &NotFoundError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: a.provider, StatusCode: 404,
		}}
	case strings.Contains(msgLower, "429") || strings.Contains(msgLower, "rate limit"):
		return &RateLimitError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: a.provider, StatusCode: 429, Retryable: true,
		}}
	case strings.Contains(msgLower, "context length") || strings.Contains(msgLower, "too many tokens"):
		return &ContextLengthError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: a.provider, StatusCode: 413,
		}}
	case strings.Contains(msgLower, "500") || strings.Contains(msgLower, "internal server"):
		return &ServerError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: a.provider, StatusCode: 500, Retryable: true,
		}}
	case strings.Contains(msgLower, "timeout"):
		return &RequestTimeoutError{SDKError: SDKError{Message: msg, Cause: err}}
	case strings.Contains(msgLower, "content filter") || strings.Contains(msgLower, "safety"):
		return &ContentFilterError{ProviderError: ProviderError{
			SDKError: SDKError{Message: msg, Cause: err}, Provider: a.provider,
		}}
	default:
		return &ProviderError{
			SDKError:  SDKError{Message: msg, Cause: err},
			Provider:  a.provider,
			Retryable: true,
		}
	}
}

// estimateTokens provides a rough token count estimate from request messages.
func estimateTokens(req Request) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.TextContent()) / 4
	}
	if total == 0 {
		total = 10
	}
	return total
}

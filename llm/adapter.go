// Package llm wraps the unifiedllm transport layer with the narrow
// interface the dialogue system actually consumes: a blocking text
// generation call and an emotion classification call (spec.md section 1's
// "black box" external collaborator). Everything below the Adapter
// interface — retries, error taxonomy, provider adapters — is the kept and
// adapted unifiedllm package.
package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/entelgia/entelgia/unifiedllm"
	"github.com/rs/zerolog"
)

// Adapter is the external LLM collaborator interface named in spec.md
// section 1.
type Adapter interface {
	// Generate produces text from model at the given sampling temperature.
	// On terminal failure (after retries) it returns the sentinel error
	// utterance, never an error — callers that need to distinguish a
	// degraded generation from a healthy one check IsSentinel(text).
	Generate(ctx context.Context, model, prompt string, temperature float64) string

	// ClassifyEmotion returns a coarse emotion label and an intensity in
	// [0,1]. Malformed classifier output yields ("neutral", 0.35); a failed
	// classification call (sentinel generation) yields ("neutral", 0.2).
	ClassifyEmotion(ctx context.Context, text string) (label string, intensity float64)
}

// SentinelUtterance is returned by Generate when every retry attempt fails.
// spec.md section 5: "the adapter returns a sentinel error utterance; this
// is logged as the agent's turn (emotion defaults to neutral, intensity
// 0.2)".
const SentinelUtterance = "[unable to generate a response at this time]"

// IsSentinel reports whether text is the sentinel fallback utterance.
func IsSentinel(text string) bool { return text == SentinelUtterance }

// gollmAdapter is the default Adapter, backed by a unifiedllm.Client whose
// providers were registered with gollm-backed adapters (see NewFromEnv).
type gollmAdapter struct {
	client *unifiedllm.Client
	policy unifiedllm.RetryPolicy
	log    zerolog.Logger
}

// New wraps an already-configured unifiedllm.Client.
func New(client *unifiedllm.Client, log zerolog.Logger) Adapter {
	return &gollmAdapter{
		client: client,
		policy: unifiedllm.DefaultRetryPolicy(),
		log:    log,
	}
}

// NewFromEnv builds an Adapter backed by unifiedllm.NewClientFromEnv's
// default local ollama provider.
func NewFromEnv(log zerolog.Logger) Adapter {
	return New(unifiedllm.NewClientFromEnv(), log)
}

func (a *gollmAdapter) Generate(ctx context.Context, model, prompt string, temperature float64) string {
	callCtx, cancel := context.WithTimeout(ctx, a.policy.CallTimeout)
	defer cancel()

	temp := temperature
	result, err := unifiedllm.Generate(callCtx, unifiedllm.GenerateOptions{
		Model:       model,
		Prompt:      prompt,
		Temperature: &temp,
		MaxRetries:  a.policy.MaxRetries,
		Client:      a.client,
	})
	if err != nil {
		a.log.Warn().Err(err).Str("model", model).Msg("llm generation failed after retries; using sentinel utterance")
		return SentinelUtterance
	}
	return result.Text
}

// ClassifyEmotion asks the same generation endpoint to emit a one-line
// "label intensity" classification and parses it defensively. spec.md
// section 7: malformed classifier output defaults to (neutral, 0.35).
func (a *gollmAdapter) ClassifyEmotion(ctx context.Context, text string) (string, float64) {
	prompt := fmt.Sprintf(
		"Classify the dominant emotion of the following text. Respond with "+
			"exactly two tokens: an emotion label (one word, lowercase) and an "+
			"intensity between 0.0 and 1.0, separated by a space. Text:\n\n%s",
		text,
	)
	raw := a.Generate(ctx, "phi", prompt, 0.0)
	if IsSentinel(raw) {
		return "neutral", 0.2
	}
	return parseEmotion(raw)
}

func parseEmotion(raw string) (string, float64) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) < 2 {
		return "neutral", 0.35
	}
	label := strings.ToLower(fields[0])
	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || intensity < 0 || intensity > 1 {
		return "neutral", 0.35
	}
	return label, intensity
}

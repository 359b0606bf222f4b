package unifiedllm

import "context"

// GenerateOptions configures a single blocking generation call — the
// generate(model, prompt, temperature) -> text black box llm.Adapter drives.
type GenerateOptions struct {
	Model       string
	Prompt      string
	Temperature *float64
	Provider    string
	MaxRetries  int
	Client      *Client
}

// GenerateResult is returned by Generate.
type GenerateResult struct {
	Text         string
	FinishReason FinishReason
	Usage        Usage
	Response     Response
}

// Generate wraps Client.Complete with the retry policy.
func Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	client := opts.Client
	if client == nil {
		client = NewClientFromEnv()
	}

	retryPolicy := DefaultRetryPolicy()
	if opts.MaxRetries > 0 {
		retryPolicy.MaxRetries = opts.MaxRetries
	}

	req := Request{
		Model:       opts.Model,
		Messages:    []Message{UserMessage(opts.Prompt)},
		Provider:    opts.Provider,
		Temperature: opts.Temperature,
	}

	resp, err := Retry(ctx, retryPolicy, func(ctx context.Context) (*Response, error) {
		return client.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		Text:         resp.Text(),
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
		Response:     *resp,
	}, nil
}

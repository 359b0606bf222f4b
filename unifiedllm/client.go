package unifiedllm

import (
	"context"
	"fmt"
	"sync"
)

// Client is the core orchestration layer. It holds registered provider
// adapters and routes requests by provider identifier.
type Client struct {
	providers       map[string]ProviderAdapter
	defaultProvider string
	mu              sync.RWMutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithProvider registers a provider adapter.
func WithProvider(name string, adapter ProviderAdapter) ClientOption {
	return func(c *Client) {
		c.providers[name] = adapter
	}
}

// WithDefaultProvider sets the default provider name.
func WithDefaultProvider(name string) ClientOption {
	return func(c *Client) {
		c.defaultProvider = name
	}
}

// NewClient creates a new Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		providers: make(map[string]ProviderAdapter),
	}
	for _, opt := range opts {
		opt(c)
	}
	// If no default and exactly one provider, use it.
	if c.defaultProvider == "" && len(c.providers) == 1 {
		for name := range c.providers {
			c.defaultProvider = name
		}
	}
	return c
}

// RegisterProvider adds a provider adapter to the client.
func (c *Client) RegisterProvider(name string, adapter ProviderAdapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = adapter
	if c.defaultProvider == "" {
		c.defaultProvider = name
	}
}

// resolveProvider determines which provider adapter to use for a request.
func (c *Client) resolveProvider(req Request) (ProviderAdapter, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := req.Provider
	if name == "" {
		name = c.defaultProvider
	}
	if name == "" {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: "no provider specified and no default provider configured",
		}}
	}

	adapter, ok := c.providers[name]
	if !ok {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("provider %q is not registered", name),
		}}
	}
	return adapter, nil
}

// Complete sends a blocking request to the resolved provider.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	adapter, err := c.resolveProvider(req)
	if err != nil {
		return nil, err
	}
	if req.Provider == "" {
		req.Provider = adapter.Name()
	}
	return adapter.Complete(ctx, req)
}

// NewClientFromEnv builds a Client wired to the local "ollama" backend that
// serves the "phi" model identifiers config.Config defaults every persona
// to. The gollm adapter reads its connection details from the environment.
func NewClientFromEnv() *Client {
	c := NewClient()
	if adapter, err := NewGollmAdapter("ollama", "phi", ""); err == nil {
		c.RegisterProvider("ollama", adapter)
	}
	return c
}

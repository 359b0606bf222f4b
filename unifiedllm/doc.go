// Package unifiedllm is the transport layer beneath llm.Adapter: a
// provider-agnostic Client that wraps the gollm library
// (github.com/teilomillet/gollm) to turn a (model, messages, temperature)
// request into a blocking Response.
//
// # Architecture
//
//   - types.go / provider.go: the Request/Response shapes and the
//     ProviderAdapter interface a backend must implement.
//   - retry.go / errors.go: the retry policy Generate wraps around
//     Client.Complete, and the error taxonomy it classifies failures with.
//     Client.Complete itself does not retry.
//   - client.go: Client, which routes a request to a registered provider.
//   - gollm_adapter.go: GollmAdapter, the only ProviderAdapter Entelgia
//     registers, backed by a local ollama model.
//   - generate.go: Generate, the single entry point llm.Adapter calls.
//
// # Usage
//
//	result, err := unifiedllm.Generate(ctx, unifiedllm.GenerateOptions{
//	    Model:  "phi",
//	    Prompt: "What is the nature of consciousness?",
//	})
//	fmt.Println(result.Text)
package unifiedllm

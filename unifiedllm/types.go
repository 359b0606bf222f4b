package unifiedllm

import (
	"strings"
)

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPart is one part of a message. Every call Entelgia makes is plain
// text, so this carries only text; it stays a struct (rather than a bare
// string field on Message) so a provider adapter can still report back
// multiple parts without a breaking change.
type ContentPart struct {
	Text string `json:"text"`
}

// TextPart creates a text ContentPart.
func TextPart(text string) ContentPart {
	return ContentPart{Text: text}
}

// Message is the fundamental unit of conversation.
type Message struct {
	Role    Role          `json:"role"`
	Content []ContentPart `json:"content"`
}

// TextContent returns the concatenation of all text content parts.
func (m Message) TextContent() string {
	var sb strings.Builder
	for _, part := range m.Content {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: []ContentPart{TextPart(text)}}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentPart{TextPart(text)}}
}

// AssistantMessage creates an assistant Message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentPart{TextPart(text)}}
}

// FinishReason describes why generation stopped.
type FinishReason struct {
	Reason string `json:"reason"` // "stop", "length", "content_filter", "error", "other"
	Raw    string `json:"raw,omitempty"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns a new Usage that is the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Request is the input to ProviderAdapter.Complete.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Provider    string    `json:"provider,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Response is the output of ProviderAdapter.Complete.
type Response struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Provider     string       `json:"provider"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        Usage        `json:"usage"`
}

// Text returns the concatenated text of the response message.
func (r Response) Text() string {
	return r.Message.TextContent()
}

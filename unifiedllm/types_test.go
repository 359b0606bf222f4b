package unifiedllm

import "testing"

func TestMessageConstructors(t *testing.T) {
	t.Run("SystemMessage", func(t *testing.T) {
		msg := SystemMessage("You are helpful.")
		if msg.Role != RoleSystem {
			t.Errorf("expected role %q, got %q", RoleSystem, msg.Role)
		}
		if msg.TextContent() != "You are helpful." {
			t.Errorf("expected text %q, got %q", "You are helpful.", msg.TextContent())
		}
	})

	t.Run("UserMessage", func(t *testing.T) {
		msg := UserMessage("Hello")
		if msg.Role != RoleUser {
			t.Errorf("expected role %q, got %q", RoleUser, msg.Role)
		}
		if msg.TextContent() != "Hello" {
			t.Errorf("expected text %q, got %q", "Hello", msg.TextContent())
		}
	})

	t.Run("AssistantMessage", func(t *testing.T) {
		msg := AssistantMessage("Hi there")
		if msg.Role != RoleAssistant {
			t.Errorf("expected role %q, got %q", RoleAssistant, msg.Role)
		}
		if msg.TextContent() != "Hi there" {
			t.Errorf("expected text %q, got %q", "Hi there", msg.TextContent())
		}
	})
}

func TestTextPart(t *testing.T) {
	part := TextPart("hello")
	if part.Text != "hello" {
		t.Errorf("expected text %q, got %q", "hello", part.Text)
	}
}

func TestMessageTextContent(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Content: []ContentPart{
			TextPart("Hello "),
			TextPart("world"),
		},
	}
	text := msg.TextContent()
	if text != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", text)
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}
	b := Usage{InputTokens: 5, OutputTokens: 15, TotalTokens: 20}
	result := a.Add(b)

	if result.InputTokens != 15 {
		t.Errorf("expected input_tokens 15, got %d", result.InputTokens)
	}
	if result.OutputTokens != 35 {
		t.Errorf("expected output_tokens 35, got %d", result.OutputTokens)
	}
	if result.TotalTokens != 50 {
		t.Errorf("expected total_tokens 50, got %d", result.TotalTokens)
	}
}

func TestResponseText(t *testing.T) {
	resp := Response{
		Message: AssistantMessage("The answer is 42."),
	}
	if resp.Text() != "The answer is 42." {
		t.Errorf("expected text %q, got %q", "The answer is 42.", resp.Text())
	}
}

func TestFinishReasonValues(t *testing.T) {
	cases := []string{"stop", "length", "content_filter", "error", "other"}
	for _, reason := range cases {
		fr := FinishReason{Reason: reason}
		if fr.Reason != reason {
			t.Errorf("expected reason %q, got %q", reason, fr.Reason)
		}
	}
}

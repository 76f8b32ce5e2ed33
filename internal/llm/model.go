package llm

import "time"

// MessageRole labels who authored a chat message.
type MessageRole string

const (
	// RoleSystem marks instruction messages.
	RoleSystem MessageRole = "system"
	// RoleUser marks caller messages.
	RoleUser MessageRole = "user"
	// RoleAssistant marks model messages.
	RoleAssistant MessageRole = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ChatCompletionRequest is the OpenAI chat-completions request body.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float32  `json:"temperature,omitempty"`
}

// ChatCompletionResponse is the OpenAI chat-completions response body.
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   ChatCompletionUsage    `json:"usage"`
	Error   *APIError              `json:"error,omitempty"`
}

// ChatCompletionChoice is one completion candidate.
type ChatCompletionChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatCompletionUsage reports token consumption.
type ChatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError is the provider's structured error payload.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Response is the provider-independent completion result.
type Response struct {
	Text       string    // generated text
	TokenCount int       // total tokens spent
	ModelName  string    // model that produced the text
	FinishTime time.Time // completion timestamp
}

// Selectable models. The values are passed to the provider opaquely.
const (
	// ModelGPT4oMini is the fast, inexpensive default.
	ModelGPT4oMini = "gpt-4o-mini-2024-07-18"
	// ModelChatGPT4oLatest tracks the latest chat-tuned 4o snapshot.
	ModelChatGPT4oLatest = "chatgpt-4o-latest"
)

// Models lists the selectable model names in display order.
func Models() []string {
	return []string{ModelGPT4oMini, ModelChatGPT4oLatest}
}

// IsKnownModel reports whether name is one of the selectable models.
func IsKnownModel(name string) bool {
	for _, m := range Models() {
		if m == name {
			return true
		}
	}
	return false
}

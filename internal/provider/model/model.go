// Package model holds the provider-neutral conversation types exchanged
// between the agent loop and the model backends.
package model

import (
	"strings"
	"time"

	"github.com/Cyclone1070/lumen/internal/tool"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ReasoningKind distinguishes visible and redacted reasoning blocks.
type ReasoningKind string

const (
	ReasoningThinking ReasoningKind = "thinking"
	ReasoningRedacted ReasoningKind = "redacted_thinking"
)

// ReasoningBlock is an opaque reasoning artifact. It must be replayed
// byte-for-byte on the next call of the same tool-calling round.
type ReasoningBlock struct {
	Kind      ReasoningKind `json:"type"`
	Thinking  string        `json:"thinking,omitempty"`
	Signature string        `json:"signature,omitempty"`
	Data      string        `json:"data,omitempty"`
}

// ToolCall is one invocation requested by the model, plus its resolution.
// Result and IsError are filled in once by the agent loop.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`

	// Signature is an opaque continuity token some backends attach to the
	// call itself. Replayed unchanged.
	Signature string `json:"signature,omitempty"`
}

// Completed reports whether the call has been resolved.
func (c ToolCall) Completed() bool {
	return c.Result != "" || c.IsError
}

// Attachment references a stored image.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Path     string `json:"path"` // relative to the attachment root
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Message is one turn in a conversation.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	ToolCalls      []ToolCall
	Attachments    []Attachment
	Reasoning      []ReasoningBlock
	ToolSummary    string // display only, never sent to a model
	CreatedAt      time.Time
}

// HasToolCalls reports whether the message carries any tool calls.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// ToolChoiceKind is the tool-choice directive sent with tools.
type ToolChoiceKind string

const (
	ToolChoiceAuto ToolChoiceKind = "auto"
	ToolChoiceAny  ToolChoiceKind = "any"
	ToolChoiceTool ToolChoiceKind = "tool"
)

// ToolChoice forces or frees tool selection. Name is only used with ToolChoiceTool.
type ToolChoice struct {
	Kind ToolChoiceKind
	Name string
}

// Request is a single model call.
type Request struct {
	Model      string // empty means the backend's primary model
	System     string
	Messages   []Message
	Tools      []tool.Declaration
	ToolChoice *ToolChoice // nil means auto when tools are present
	MaxTokens  int         // zero means the backend default

	// DisableThinking turns extended reasoning off, e.g. for title generation.
	DisableThinking bool
}

// Usage is the token accounting for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Response is the normalized result of one model call.
type Response struct {
	Text       string
	ToolCalls  []ToolCall
	Reasoning  []ReasoningBlock
	StopReason string
	Usage      Usage
	Model      string
}

// HasToolCalls reports whether the model requested any tools.
func (r *Response) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// User-visible failure texts produced by the agent loop. Assistant messages
// starting with one of these are never sent back to a model.
const (
	ErrorPrefix    = "Error:"
	TimeoutMessage = "The request timed out. Extended reasoning can take a while; try simplifying the question or splitting it into smaller parts."
)

// IsErrorText reports whether content is a failure text rather than a real answer.
func IsErrorText(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, ErrorPrefix) || strings.HasPrefix(trimmed, TimeoutMessage)
}

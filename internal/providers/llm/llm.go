package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation sent to the model. Tool results
// carry the id of the call they answer in ToolCallID.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolCall is a function invocation requested by the model. Arguments is the
// raw JSON payload as emitted by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDef declares a callable function to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  Schema
}

// Schema is a minimal JSON-schema subset, enough for the tool contracts.
type Schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Items       *Schema           `json:"items,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

type Provider interface {
	// Chat runs one completion over the given messages. When tools is
	// non-empty the model may answer with tool calls instead of content.
	Chat(ctx context.Context, messages []Message, tools []ToolDef) (*ChatResponse, error)
	// StreamAnswer returns a stream of text chunks (incremental).
	StreamAnswer(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)
	Close() error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	return &VertexGemini{client: c, model: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Chat(ctx context.Context, messages []Message, tools []ToolDef) (*ChatResponse, error) {
	m := v.client.GenerativeModel(v.model)

	if len(tools) > 0 {
		decls := make([]*vertexgenai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, &vertexgenai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGeminiSchema(t.Parameters),
			})
		}
		m.Tools = []*vertexgenai.Tool{{FunctionDeclarations: decls}}
	}

	history, last, err := toGeminiContents(m, messages)
	if err != nil {
		return nil, err
	}

	cs := m.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates")
	}

	out := &ChatResponse{}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case vertexgenai.Text:
			out.Content += string(p)
		case vertexgenai.FunctionCall:
			args, _ := json.Marshal(p.Args)
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				// Gemini carries no call id; the function name is unique
				// within one turn in this design.
				ID:        p.Name,
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	return out, nil
}

func (v *VertexGemini) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		m := v.client.GenerativeModel(v.model)
		it := m.GenerateContentStream(ctx, vertexgenai.Text(prompt))
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- err
				return
			}

			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
						out <- string(t)
					}
				}
			}
		}
	}()

	return out, errs
}

// toGeminiContents splits the conversation into chat history plus the parts of
// the final message. System messages become the model's system instruction.
func toGeminiContents(m *vertexgenai.GenerativeModel, messages []Message) ([]*vertexgenai.Content, []vertexgenai.Part, error) {
	var contents []*vertexgenai.Content

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			m.SystemInstruction = &vertexgenai.Content{
				Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)},
			}
		case RoleAssistant:
			c := &vertexgenai.Content{Role: "model"}
			if msg.Content != "" {
				c.Parts = append(c.Parts, vertexgenai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					args = map[string]any{}
				}
				c.Parts = append(c.Parts, vertexgenai.FunctionCall{Name: tc.Name, Args: args})
			}
			contents = append(contents, c)
		case RoleTool:
			contents = append(contents, &vertexgenai.Content{
				Role: "user",
				Parts: []vertexgenai.Part{vertexgenai.FunctionResponse{
					Name:     msg.Name,
					Response: map[string]any{"content": msg.Content},
				}},
			})
		default:
			contents = append(contents, &vertexgenai.Content{
				Role:  "user",
				Parts: []vertexgenai.Part{vertexgenai.Text(msg.Content)},
			})
		}
	}

	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("no user messages")
	}

	last := contents[len(contents)-1]
	return contents[:len(contents)-1], last.Parts, nil
}

func toGeminiSchema(s Schema) *vertexgenai.Schema {
	out := &vertexgenai.Schema{Description: s.Description}

	switch s.Type {
	case "object":
		out.Type = vertexgenai.TypeObject
	case "array":
		out.Type = vertexgenai.TypeArray
	case "number":
		out.Type = vertexgenai.TypeNumber
	case "integer":
		out.Type = vertexgenai.TypeInteger
	case "boolean":
		out.Type = vertexgenai.TypeBoolean
	default:
		out.Type = vertexgenai.TypeString
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*vertexgenai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	if s.Items != nil {
		out.Items = toGeminiSchema(*s.Items)
	}
	out.Required = s.Required
	return out
}
